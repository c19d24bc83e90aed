package main

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/spotgrid/internal/classifier"
	"github.com/jonesrussell/spotgrid/internal/config"
	"github.com/jonesrussell/spotgrid/internal/database"
	"github.com/jonesrussell/spotgrid/internal/grid"
	"github.com/jonesrussell/spotgrid/internal/logger"
	"github.com/jonesrussell/spotgrid/internal/processor"
	"github.com/jonesrussell/spotgrid/internal/telemetry"
)

const defaultConfigPath = "config.yml"

// app holds everything a command needs after wiring.
type app struct {
	cfg         *config.Config
	log         logger.Logger
	db          *sqlx.DB
	spots       *database.SpotRepository
	schedules   *database.ScheduleRepository
	assignments *database.AssignmentRepository
	engine      *classifier.Engine
	runner      *processor.Runner
	telemetry   *telemetry.Provider
}

// newApp loads config, connects to the store, and wires the
// classification pipeline. The caller owns closing.
func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:            cfg.Database.Host,
		Port:            strconv.Itoa(cfg.Database.Port),
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	spots := database.NewSpotRepository(db)
	schedules := database.NewScheduleRepository(db)
	assignments := database.NewAssignmentRepository(db)

	tp := telemetry.NewProvider()
	resolver := grid.NewResolver(schedules, log)
	engine := classifier.NewEngine(cfg.Classification, resolver, log, tp, cfg.Service.Version)

	runner := processor.NewRunner(spots, assignments, engine, processor.Config{
		BatchSize:           cfg.Service.BatchSize,
		CommitRatePerSecond: cfg.Service.CommitRatePerSecond,
		CommitBurst:         cfg.Service.CommitBurst,
		FlaggedSampleSize:   cfg.Service.FlaggedSampleSize,
	}, log, tp)

	log.Info("spotgrid initialized",
		logger.String("config", path),
		logger.String("version", cfg.Service.Version),
		logger.String("settings_version", cfg.Classification.Version))

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		spots:       spots,
		schedules:   schedules,
		assignments: assignments,
		engine:      engine,
		runner:      runner,
		telemetry:   tp,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", logger.Error(err))
	}
	_ = a.log.Sync()
}
