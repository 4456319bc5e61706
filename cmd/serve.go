package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the web API and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	gateway, err := r.requireGateway(config)
	if err != nil {
		return err
	}

	db, catalog, engine, err := r.openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	playlists := repositories.NewPlaylistRepository(db)
	comments := repositories.NewCommentRepository(db)

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewCatalogHandler(gateway, engine, catalog, r.logger))
	router.Handler(server.NewUserHandler(users, catalog, r.logger))
	router.Handler(server.NewPlaylistHandler(playlists, comments, users, catalog, r.logger))

	srv := server.NewServer(config.Server, router)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
