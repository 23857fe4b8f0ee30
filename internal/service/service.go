// Package service opens the optional publishing and history backends from
// configuration and builds analyzers on top of them.
package service

import (
	"context"
	"fmt"

	"github.com/fardiff/internal/inspect"
	"github.com/fardiff/internal/locator"
	"github.com/fardiff/internal/pipeline"
	"github.com/fardiff/internal/repository"
	"github.com/fardiff/internal/storage"
	"github.com/fardiff/pkg/config"
	"github.com/fardiff/pkg/utils"
)

// Service owns the backends shared by analyze, serve and history.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	storage storage.Storage
	history repository.RunRepository

	closeHistory func() error
}

// New creates a Service. Nothing is opened until Initialize.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize opens the backends enabled in the config.
func (s *Service) Initialize(ctx context.Context) error {
	if s.config.History.Enabled {
		if err := s.initHistory(ctx); err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
	}

	if s.config.Storage.Enabled {
		if err := s.initStorage(); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
	}
	return nil
}

func (s *Service) initHistory(ctx context.Context) error {
	s.logger.Debug("Connecting to history database (%s)...", s.config.History.Type)

	repo, closeFn, err := repository.NewRunRepositoryFromConfig(ctx, &s.config.History)
	if err != nil {
		return err
	}
	s.history = repo
	s.closeHistory = closeFn
	return nil
}

func (s *Service) initStorage() error {
	s.logger.Debug("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.New(&s.config.Storage)
	if err != nil {
		return err
	}
	s.storage = store
	return nil
}

// History returns the run history, or nil when disabled.
func (s *Service) History() repository.RunRepository {
	return s.history
}

// Storage returns the publishing backend, or nil when disabled.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// Analyzer builds a pipeline analyzer using the service's backends.
// A nil runner executes the configured tools.
func (s *Service) Analyzer(chooser locator.Chooser, runner inspect.Runner) (*pipeline.Analyzer, error) {
	settings, err := pipeline.SettingsFromConfig(s.config)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(s.logger),
		pipeline.WithChooser(chooser),
	}
	if runner != nil {
		opts = append(opts, pipeline.WithRunner(runner))
	}
	if s.storage != nil {
		opts = append(opts, pipeline.WithStorage(s.storage))
	}
	if s.history != nil {
		opts = append(opts, pipeline.WithHistory(s.history))
	}
	return pipeline.NewAnalyzer(settings, opts...)
}

// Close releases the history database.
func (s *Service) Close() error {
	if s.closeHistory == nil {
		return nil
	}
	err := s.closeHistory()
	s.closeHistory = nil
	return err
}
