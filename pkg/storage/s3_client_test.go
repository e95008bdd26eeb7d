package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reports/sales.pdf", ObjectKey("reports/", "sales.pdf"))
	assert.Equal(t, "reports/sales.pdf", ObjectKey("/reports", "exports/sales.pdf"))
	assert.Equal(t, "sales.csv", ObjectKey("", "sales.csv"))
	assert.Equal(t, "a/b/x.xlsx", ObjectKey("a/b", `C:\out\x.xlsx`))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "s3://bucket/reports/sales.pdf", Location("bucket", "reports/sales.pdf"))
}
