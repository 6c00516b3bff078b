package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/signup/app"
	"github.com/dalemusser/signup/config"
	"github.com/dalemusser/signup/httputil"
	"github.com/dalemusser/signup/internal/app/features/signup"
	"github.com/dalemusser/signup/metrics"
	"github.com/dalemusser/signup/middleware"
	"github.com/dalemusser/signup/pantry/health"
	"github.com/dalemusser/signup/pantry/session"
	"github.com/dalemusser/signup/router"
)

// memorySweepInterval is how often the in-process store drops expired drafts.
const memorySweepInterval = 5 * time.Minute

// LoadConfig loads and validates the service config.
func LoadConfig(logger *zap.Logger, args []string) (*config.Config, error) {
	return config.Load(logger, args)
}

// Connect opens the session store selected by session_store.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Deps, error) {
	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		rs, err := session.ConnectRedis(ctx, session.RedisConfig{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err != nil {
			return Deps{}, err
		}
		logger.Info("session store: redis", zap.String("addr", cfg.Session.RedisAddr))
		store = rs
	case "memory", "":
		logger.Info("session store: memory")
		store = session.NewMemoryStore(memorySweepInterval)
	default:
		return Deps{}, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	return Deps{
		Sessions: session.NewManager(store, session.Config{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.MaxAge,
			Secure:     cfg.Session.CookieSecure,
		}),
	}, nil
}

// Close closes the session store.
func Close(deps Deps) error {
	if deps.Sessions == nil {
		return nil
	}
	return deps.Sessions.Close()
}

// BuildHandler mounts the signup feature, health and metrics on the
// standard router.
func BuildHandler(cfg *config.Config, deps Deps, logger *zap.Logger) (http.Handler, error) {
	httputil.SetLogger(logger)

	views, err := signup.Views(logger)
	if err != nil {
		return nil, fmt.Errorf("compile views: %w", err)
	}

	r := router.New(cfg, logger)

	health.Mount(r, map[string]health.Check{"session_store": deps.Sessions.Ping}, logger)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/signup", http.StatusFound)
	})
	r.Handle("/static/*", signup.Static())

	h := signup.NewHandler(views, deps.Sessions, logger.Named("signup"), signup.Options{
		AllowedOrigins: cfg.WSAllowedOrigins,
		CORS:           corsOrNil(cfg),
	})
	r.Mount("/signup", h.Routes())

	return r, nil
}

func corsOrNil(cfg *config.Config) func(http.Handler) http.Handler {
	if !cfg.CORS.EnableCORS {
		return nil
	}
	return middleware.CORSFromConfig(cfg)
}

// Hooks wires the service into the app lifecycle.
var Hooks = app.Hooks[Deps]{
	Name:         "signup",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	BuildHandler: BuildHandler,
	Close:        Close,
}
