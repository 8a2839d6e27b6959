package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/records/apper"
	"fintrack/internal/records/memory"
	"fintrack/internal/records/sheets"
	"fintrack/internal/records/sqlite"
	"fintrack/internal/schema"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case ApperBackend:
		return f.createApperBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_file", config.DataFile)
	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}

	tabs := make(map[string][]string)
	for _, m := range schema.All() {
		tabs[m.Entity] = m.StoreFields()
	}
	if err := store.EnsureTabs(ctx, tabs); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to prepare spreadsheet tabs: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createApperBackend(config Config) (*BackendResult, error) {
	client, err := apper.New(apper.Config{
		BaseURL:   config.ApperBaseURL,
		ProjectID: config.ApperProjectID,
		APIKey:    config.ApperAPIKey,
		Timeout:   config.ApperTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record service client: %w", err)
	}
	f.logger.Info("Initialized record service backend", "base_url", config.ApperBaseURL, "project_id", config.ApperProjectID)
	return &BackendResult{Store: client}, nil
}
