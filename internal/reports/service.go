package reports

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"game-reports/report-desk/internal/database"
)

// Repository is the read access the report pipeline needs. *database.Gateway implements it.
type Repository interface {
	FetchAll(ctx context.Context, table database.Table) ([]database.Row, error)
	FetchColumns(ctx context.Context, table database.Table) ([]string, error)
	FetchModel(ctx context.Context, table database.Table) (*database.Model, error)
}

// Service loads report data. It keeps no state between calls, so every
// filter apply sees the current contents of the database.
type Service struct {
	repo   Repository
	schema Schema
	logger *zap.Logger
}

// NewService creates a new report data service
func NewService(repo Repository, schema Schema, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		schema: schema,
		logger: logger,
	}
}

// Schema returns the schema the service reads with
func (s *Service) Schema() Schema {
	return s.schema
}

// FetchPrimary returns the primary table as records in database order
func (s *Service) FetchPrimary(ctx context.Context) ([]Record, error) {
	rows, err := s.repo.FetchAll(ctx, s.schema.PrimaryTable)
	if err != nil {
		s.logger.Error("Failed to fetch primary records",
			zap.String("table", s.schema.PrimaryTable.String()),
			zap.Error(err))
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, NewRecord(row, s.schema))
	}
	return records, nil
}

// FetchLookup returns the lookup table as id/name entries
func (s *Service) FetchLookup(ctx context.Context) ([]LookupEntry, error) {
	rows, err := s.repo.FetchAll(ctx, s.schema.LookupTable)
	if err != nil {
		s.logger.Error("Failed to fetch lookup entries",
			zap.String("table", s.schema.LookupTable.String()),
			zap.Error(err))
		return nil, err
	}

	entries := make([]LookupEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LookupEntry{
			ID:   row.Get(s.schema.LookupIDField),
			Name: stringify(row.Get(s.schema.LookupNameField)),
		})
	}
	return entries, nil
}

// LoadModel returns the primary table with its full column catalog
func (s *Service) LoadModel(ctx context.Context) (*database.Model, error) {
	model, err := s.repo.FetchModel(ctx, s.schema.PrimaryTable)
	if err != nil {
		s.logger.Error("Failed to load model",
			zap.String("table", s.schema.PrimaryTable.String()),
			zap.Error(err))
		return nil, err
	}
	return model, nil
}

// LoadTable returns the model of any allow-listed table
func (s *Service) LoadTable(ctx context.Context, name string) (*database.Model, error) {
	table, err := database.ParseTable(name)
	if err != nil {
		return nil, err
	}
	model, err := s.repo.FetchModel(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", table, err)
	}
	return model, nil
}

// CategoryOptions returns the "all" sentinel followed by lookup names in fetch order
func (s *Service) CategoryOptions(ctx context.Context) ([]string, error) {
	entries, err := s.FetchLookup(ctx)
	if err != nil {
		return []string{s.schema.AllCategory}, err
	}

	options := make([]string, 0, len(entries)+1)
	options = append(options, s.schema.AllCategory)
	for _, e := range entries {
		options = append(options, e.Name)
	}
	return options, nil
}
