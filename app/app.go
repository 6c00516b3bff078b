// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/signup/config"
	"github.com/dalemusser/signup/logging"
	"github.com/dalemusser/signup/metrics"
	"github.com/dalemusser/signup/server"
)

// Hooks are the integration points a service provides to Run. D is the
// bundle of backends the service opens at startup.
type Hooks[D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig parses args and the environment into a validated Config.
	LoadConfig func(logger *zap.Logger, args []string) (*config.Config, error)

	// Connect opens backends. ctx is bounded by cfg.Session.StoreConnectTimeout.
	Connect func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (D, error)

	// BuildHandler constructs the routed, middleware-wrapped handler.
	BuildHandler func(cfg *config.Config, deps D, logger *zap.Logger) (http.Handler, error)

	// Close releases what Connect opened. Optional.
	Close func(deps D) error
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load config (Hooks.LoadConfig)
//  3. Build final logger from config
//  4. Register metrics
//  5. Connect backends (Hooks.Connect)
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler (Hooks.BuildHandler)
//  8. Serve until shutdown, then close backends
func Run[D any](ctx context.Context, args []string, hooks Hooks[D]) error {
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	cfg, err := hooks.LoadConfig(bootstrap, args)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("log_level", cfg.LogLevel),
	)

	logger, err := logging.BuildLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", zap.String("app", hooks.Name))
	logger.Debug("effective config\n" + cfg.Dump())

	metrics.RegisterDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.Session.StoreConnectTimeout)
	deps, err := hooks.Connect(connectCtx, cfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}
	if hooks.Close != nil {
		defer func() {
			if err := hooks.Close(deps); err != nil {
				logger.Warn("backend close failed", zap.Error(err))
			}
		}()
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(cfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
