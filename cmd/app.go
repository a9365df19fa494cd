package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/pp9653/warera-ranking-sys/core/config"
	"github.com/pp9653/warera-ranking-sys/core/database"
	"github.com/pp9653/warera-ranking-sys/core/logger"
	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/core/storage"
	"github.com/pp9653/warera-ranking-sys/core/warera"
	"github.com/pp9653/warera-ranking-sys/feature/report"
	"github.com/pp9653/warera-ranking-sys/feature/roster"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	client  *warera.Client
	engine  *reconcile.Engine
	service *roster.Service
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := roster.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	client := warera.NewClient(cfg.Warera, l)
	engine := reconcile.NewEngine(reconcile.SourcesFrom(client), cfg.Reconcile, l)
	service := roster.NewService(engine, store, client, l)
	if err := service.RestoreToken(ctx); err != nil {
		l.Warn("Could not restore stored token", zap.Error(err))
	}

	return &app{
		cfg:     cfg,
		log:     l,
		db:      db,
		client:  client,
		engine:  engine,
		service: service,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// sink returns the bucket sink when object storage is enabled, otherwise a
// local directory sink rooted at dir.
func (a *app) sink(dir string) (report.Sink, error) {
	if !a.cfg.Storage.Enabled {
		return report.FileSink{Dir: dir}, nil
	}
	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	return report.BucketSink{
		Client: client,
		Bucket: a.cfg.Storage.Bucket,
		Region: a.cfg.Storage.Region,
		Keep:   a.cfg.Storage.Retain,
	}, nil
}

// dbLocation describes where the cache lives without exposing credentials.
func (a *app) dbLocation() string {
	d := a.cfg.Database
	if d.Driver == database.DriverMySQL {
		return net.JoinHostPort(d.Host, strconv.Itoa(d.Port)) + "/" + d.Name
	}
	return d.Name
}
