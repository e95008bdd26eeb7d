package database

import "strings"

// Table is a name on the allow-list of tables the gateway may read
type Table string

const (
	TableRoles  Table = "roles"
	TableUsers  Table = "users"
	TableGenres Table = "genres"
	TableGames  Table = "games"
	TableSales  Table = "sales"
)

var allowedTables = []Table{TableRoles, TableUsers, TableGenres, TableGames, TableSales}

// AllowedTables returns the allow-list in declaration order
func AllowedTables() []Table {
	out := make([]Table, len(allowedTables))
	copy(out, allowedTables)
	return out
}

// Valid reports whether t is on the allow-list. The comparison is exact.
func (t Table) Valid() bool {
	for _, allowed := range allowedTables {
		if t == allowed {
			return true
		}
	}
	return false
}

func (t Table) String() string {
	return string(t)
}

// ParseTable validates a raw name against the allow-list
func ParseTable(name string) (Table, error) {
	t := Table(strings.TrimSpace(name))
	if !t.Valid() {
		return "", &InvalidTableError{Table: name}
	}
	return t, nil
}
