// Package server initializes and runs the application server. It opens the
// database, applies migrations, seeds the reserved admin account, wires the
// services together and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mindmaster/mindmapd/internal/logging"
	"github.com/mindmaster/mindmapd/internal/server/config"
	"github.com/mindmaster/mindmapd/internal/server/repositories/repomanager"
	"github.com/mindmaster/mindmapd/internal/server/rest"
	"github.com/mindmaster/mindmapd/internal/server/services"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	documentService *services.DocumentService
	fileService     *services.FileService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	ds := services.NewDocumentService(db, rm)
	fs := services.NewFileService(db, rm)

	if err := us.EnsureAdmin(ctx); err != nil {
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     us,
		documentService: ds,
		fileService:     fs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.documentService, app.fileService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
