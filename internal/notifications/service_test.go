package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"game-reports/report-desk/internal/config"
)

func newTestManager(queueSize int) (*Manager, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewManager(config.NotificationsConfig{QueueSize: queueSize, DefaultDuration: time.Second}, zap.New(core))
	return m, logs
}

func TestManager_InvisibleIsOnlyLogged(t *testing.T) {
	m, logs := newTestManager(4)

	m.Notify(context.Background(), Debug("engine", "No data to filter"))

	assert.Equal(t, StateIdle, m.State())
	_, ok := m.Current()
	assert.False(t, ok)
	require.Equal(t, 1, logs.FilterMessage("No data to filter").Len())
}

func TestManager_VisibleIsLoggedAndShown(t *testing.T) {
	m, logs := newTestManager(4)

	m.Notify(context.Background(), Error("controller", "Aggregation failed"))

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "Aggregation failed", current.Message)
	assert.Equal(t, time.Second, current.Duration)
	assert.NotEmpty(t, current.ID)
	assert.Equal(t, StateShowing, m.State())
	assert.Equal(t, 1, logs.FilterMessage("Aggregation failed").Len())
}

func TestManager_OneVisibleAtATimeAndDrain(t *testing.T) {
	m, _ := newTestManager(4)
	ctx := context.Background()

	m.Notify(ctx, Info("a", "first"))
	m.Notify(ctx, Info("b", "second"))
	m.Notify(ctx, Info("c", "third"))

	current, _ := m.Current()
	assert.Equal(t, "first", current.Message)
	assert.Equal(t, 2, m.Pending())

	m.Dismiss()
	current, _ = m.Current()
	assert.Equal(t, "second", current.Message)

	m.Dismiss()
	current, _ = m.Current()
	assert.Equal(t, "third", current.Message)
	assert.Equal(t, 0, m.Pending())

	m.Dismiss()
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, m.State())

	// dismissing while idle is a no-op
	m.Dismiss()
	assert.Equal(t, StateIdle, m.State())
}

func TestManager_QueueDropsOldest(t *testing.T) {
	m, logs := newTestManager(2)
	ctx := context.Background()

	m.Notify(ctx, Info("", "active"))
	m.Notify(ctx, Info("", "q1"))
	m.Notify(ctx, Info("", "q2"))
	m.Notify(ctx, Info("", "q3"))

	assert.Equal(t, 2, m.Pending())
	assert.Equal(t, 1, logs.FilterMessage("Notification queue full, dropping oldest").Len())

	m.Dismiss()
	current, _ := m.Current()
	assert.Equal(t, "q2", current.Message)
}

func TestManager_Expire(t *testing.T) {
	m, _ := newTestManager(4)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	m.Notify(context.Background(), Info("", "short"))

	assert.False(t, m.Expire(start.Add(500*time.Millisecond)))
	assert.True(t, m.Expire(start.Add(time.Second)))
	assert.Equal(t, StateIdle, m.State())
	assert.False(t, m.Expire(start.Add(2*time.Second)))
}

func TestManager_Subscribers(t *testing.T) {
	m, _ := newTestManager(4)
	var seen []string
	m.Subscribe(func(n Notification) { seen = append(seen, n.Message) })

	m.Notify(context.Background(), Info("", "shown"))
	m.Notify(context.Background(), Debug("", "hidden"))
	m.Notify(context.Background(), Warning("", "queued"))

	assert.Equal(t, []string{"shown", "queued"}, seen)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify(context.Background(), Warning("gateway", "Connection lost"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Connection lost", entries[0].Message)
	assert.Equal(t, "warning", entries[0].ContextMap()["severity"])
}
