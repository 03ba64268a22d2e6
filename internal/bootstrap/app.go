package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"annotation-stats/internal/annotations"
	"annotation-stats/internal/export"
	"annotation-stats/internal/members"
	"annotation-stats/internal/reports"
	"annotation-stats/internal/schedule"
	"annotation-stats/internal/services/health"
	"annotation-stats/internal/shared/config"
	"annotation-stats/internal/shared/server"
	"annotation-stats/internal/shared/storage/db"
	"annotation-stats/internal/shared/storage/object"
	localstore "annotation-stats/internal/shared/storage/object/local"
	s3store "annotation-stats/internal/shared/storage/object/s3"
	"annotation-stats/internal/upstream"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Annotations    annotations.Source
	Members        members.Source
	Reports        *reports.Service
	Exporter       *export.Exporter
	Scheduler      *schedule.Scheduler
	ReportsHandler *reports.Handler
	Health         *health.Service
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	if err := buildSources(ctx, app); err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	sink, err := buildSink(cfg, store)
	if err != nil {
		return nil, err
	}
	app.Exporter = &export.Exporter{Sink: sink}

	app.Reports = &reports.Service{
		Annotations: app.Annotations,
		Members:     app.Members,
		Location:    cfg.Location(),
		DateLayout:  cfg.HistoryDateLayout,
	}
	app.ReportsHandler = reports.NewHandler(app.Reports, app.Exporter)

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(app.Config.Source, pinger)

	if path := strings.TrimSpace(cfg.ScheduleFile); path != "" {
		jobs, err := schedule.LoadFile(path)
		if err != nil {
			return nil, err
		}
		app.Scheduler, err = schedule.New(app.Reports, app.Exporter, cfg.Location(), jobs)
		if err != nil {
			return nil, err
		}
		log.Printf("bootstrap: loaded %d scheduled exports from %s", len(jobs), path)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		Health:         app.Health,
		ReportsHandler: app.ReportsHandler,
	})

	return app, nil
}

func buildSources(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.Source {
	case "api":
		client, err := upstream.NewClient(upstream.Options{
			BaseURL: cfg.UpstreamBaseURL,
			Token:   cfg.UpstreamToken,
			Timeout: cfg.UpstreamTimeout,
		})
		if err != nil {
			return fmt.Errorf("SOURCE=api: %w", err)
		}
		app.Annotations = client
		app.Members = client
		return nil
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return err
		}
		if sqlDB != nil {
			app.DB = sqlDB
			app.Annotations = &annotations.PGRepo{DB: sqlDB}
			app.Members = &members.PGRepo{DB: sqlDB}
			return nil
		}
		app.Config.Source = "memory"
	}
	app.Annotations = annotations.NewMemoryRepo()
	app.Members = members.NewMemoryRepo()
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory sources")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory sources: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSink(cfg config.Config, store object.ObjectStore) (export.Sink, error) {
	switch cfg.ExportSink {
	case "none":
		return nil, nil
	case "slack":
		if strings.TrimSpace(cfg.SlackBotToken) == "" || strings.TrimSpace(cfg.SlackChannelID) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: EXPORT_SINK=slack without SLACK_BOT_TOKEN/SLACK_CHANNEL_ID; deliveries disabled")
				return nil, nil
			}
			return nil, fmt.Errorf("EXPORT_SINK=slack requires SLACK_BOT_TOKEN and SLACK_CHANNEL_ID")
		}
		return export.NewSlackSink(cfg.SlackBotToken, cfg.SlackChannelID), nil
	default:
		return &export.StoreSink{Store: store}, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
