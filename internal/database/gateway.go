package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/config"
)

const columnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_name = $1
	ORDER BY ordinal_position
`

// Row is one fetched row. Columns keeps the order the database reported.
type Row struct {
	Columns []string
	Values  map[string]interface{}
}

// Get returns the value of a column, nil when absent
func (r Row) Get(column string) interface{} {
	return r.Values[column]
}

// Model is the column catalog of a table together with all of its rows
type Model struct {
	Columns []string
	Rows    []Row
}

// Gateway is the single owner of the database connection. It only reads.
type Gateway struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	logger *zap.Logger
}

// New wraps an already open handle
func New(db *sqlx.DB, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{db: db, logger: logger}
}

// Open connects to PostgreSQL. When the connection fails the returned gateway is
// still usable but every fetch reports a ConnectionError; it never reconnects on its own.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Gateway, error) {
	g := New(nil, logger)

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDatabaseURL())
	if err != nil {
		g.logger.Error("Failed to connect to database",
			zap.String("host", cfg.Host),
			zap.String("database", cfg.DBName),
			zap.Error(err))
		return g, &ConnectionError{Op: "open", Err: err}
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	g.db = db
	g.logger.Info("Database connection opened",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName))
	return g, nil
}

// Connected reports whether a live handle is held
func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Ping checks the connection
func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.conn("ping")
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return &ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the connection. Later fetches report a ConnectionError.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	g.logger.Info("Database connection closed")
	return nil
}

func (g *Gateway) conn(op string) (*sqlx.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, &ConnectionError{Op: op}
	}
	return g.db, nil
}

// FetchAll returns every row of an allow-listed table in database order
func (g *Gateway) FetchAll(ctx context.Context, table Table) ([]Row, error) {
	if !table.Valid() {
		return nil, &InvalidTableError{Table: string(table)}
	}
	db, err := g.conn("fetch " + table.String())
	if err != nil {
		return nil, err
	}

	// the name is allow-listed, so it is safe to interpolate
	query := "SELECT * FROM " + table.String()

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		g.logger.Error("Failed to query table", zap.String("table", table.String()), zap.Error(err))
		return nil, &QueryError{Table: table, Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Table: table, Query: query, Err: err}
	}

	results := make([]Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, &QueryError{Table: table, Query: query, Err: err}
		}

		row := Row{
			Columns: columns,
			Values:  make(map[string]interface{}, len(columns)),
		}
		for i, col := range columns {
			row.Values[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: table, Query: query, Err: err}
	}

	g.logger.Debug("Fetched table",
		zap.String("table", table.String()),
		zap.Int("rows", len(results)))
	return results, nil
}

// FetchColumns returns the column names of a table from the catalog
func (g *Gateway) FetchColumns(ctx context.Context, table Table) ([]string, error) {
	if !table.Valid() {
		return nil, &InvalidTableError{Table: string(table)}
	}
	db, err := g.conn("columns " + table.String())
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0)
	if err := db.SelectContext(ctx, &columns, columnsQuery, table.String()); err != nil {
		g.logger.Error("Failed to fetch columns", zap.String("table", table.String()), zap.Error(err))
		return nil, &QueryError{Table: table, Query: columnsQuery, Err: err}
	}
	return columns, nil
}

// FetchModel returns the catalog columns followed by all rows. The first failure wins.
func (g *Gateway) FetchModel(ctx context.Context, table Table) (*Model, error) {
	columns, err := g.FetchColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	rows, err := g.FetchAll(ctx, table)
	if err != nil {
		return nil, err
	}
	return &Model{Columns: columns, Rows: rows}, nil
}

// normalizeValue turns driver byte slices (text, numeric) into strings
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
