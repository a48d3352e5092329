package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/assistant"
	openai "docqa-backend/internal/assistant/openai"
	"docqa-backend/internal/files"
	"docqa-backend/internal/qa"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/storage/object"
	localstore "docqa-backend/internal/shared/storage/object/local"
	s3store "docqa-backend/internal/shared/storage/object/s3"
	"docqa-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	UsersRepo users.Repo
	FilesRepo files.Repo

	UsersService *users.Service
	FilesService *files.Service
	QAService    *qa.Service
	Provider     assistant.Provider
	Cache        *qa.ResourceCache

	UsersHandler *users.Handler
	FilesHandler *files.Handler
	QAHandler    *qa.Handler
}

// Build prepares all dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Provider: provider,
	}

	if sqlDB != nil {
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
		app.FilesRepo = &files.PGRepo{DB: sqlDB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.FilesRepo = files.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.FilesService = &files.Service{Store: app.Store, Repo: app.FilesRepo}

	if cfg.QACacheEnabled {
		app.Cache = qa.NewResourceCache(cfg.QACacheTTL, nil)
		app.Cache.StartSweep(ctx, cfg.QACacheSweep)
	}
	app.QAService = &qa.Service{
		Files:    app.FilesRepo,
		Store:    app.Store,
		Provider: app.Provider,
		Cache:    app.Cache,
		Model:    cfg.AssistantModel,
	}

	app.UsersHandler = users.NewHandler(app.UsersService)
	app.FilesHandler = files.NewHandler(app.FilesService)
	app.QAHandler = qa.NewHandler(app.QAService)

	app.Router = server.NewRouter(server.RouterDeps{
		Cfg:      cfg,
		Users:    app.UsersHandler,
		Files:    app.FilesHandler,
		QA:       app.QAHandler,
		Verifier: app.UsersService,
		Limiter:  middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is required for the s3 object store")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProvider(cfg config.Config) (assistant.Provider, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; question answering will fail until it is set")
		} else {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		if isDevLike(cfg.Env) {
			return &unconfiguredProvider{}, nil
		}
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch env {
	case "dev", "local", "":
		return true
	}
	return false
}
