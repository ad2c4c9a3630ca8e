package transport

import (
	"context"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

var Module = fx.Options(
	fx.Provide(
		NewHTTPServer,
		NewEcho,
	),
	fx.Invoke(RegisterLifecycle),
)

type HTTPServer struct {
	identity *service.Identity
	tokens   *service.Tokens
	catalog  *service.Catalog
	logger   *zap.SugaredLogger
	limiter  *KeyedRateLimiter

	// paths of registered routes, filled by NewEcho
	routes map[string]struct{}
}

func NewHTTPServer(cfg *config.Config, identity *service.Identity, tokens *service.Tokens, catalog *service.Catalog, logger *zap.SugaredLogger) *HTTPServer {
	return &HTTPServer{
		identity: identity,
		tokens:   tokens,
		catalog:  catalog,
		logger:   logger,
		limiter:  NewKeyedRateLimiter(cfg.LoginRate, cfg.LoginBurst),
	}
}

// NewEcho builds the router with every route and middleware attached.
func NewEcho(s *HTTPServer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goccyJSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.HandleError

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.RequestLogger())
	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(echo.Context) bool { return !s.logger.Desugar().Core().Enabled(zap.DebugLevel) },
		Handler: s.dumpBody,
	}))
	e.Use(s.AuthMiddleware)

	userG := e.Group("/user")
	userG.POST("/create", s.UserCreate)
	userG.POST("/token", s.TokenCreate, s.RateLimit)
	userG.GET("/me", s.UserMe)
	userG.PATCH("/me", s.UserMeUpdate)
	userG.PUT("/me", s.UserMeUpdate)

	recipeG := e.Group("/recipe")
	recipeG.GET("/tags", s.TagGet)
	recipeG.POST("/tags", s.TagCreate)
	recipeG.GET("/ingredients", s.IngredientGet)
	recipeG.POST("/ingredients", s.IngredientCreate)
	recipeG.GET("/recipes", s.RecipeGet)
	recipeG.POST("/recipes", s.RecipeCreate)
	recipeG.GET("/recipes/:id", s.RecipeDetail)

	e.GET("/admin/users", s.AdminUsers)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	s.routes = make(map[string]struct{})
	for _, r := range e.Routes() {
		s.routes[r.Path] = struct{}{}
	}

	return e
}

// RegisterLifecycle starts and stops the HTTP listener with the fx app.
func RegisterLifecycle(lc fx.Lifecycle, cfg *config.Config, e *echo.Echo, s *HTTPServer, logger *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.HTTPAddr()
				logger.Infow("Starting HTTP server.", "addr", listen)
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					logger.Fatalw("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			s.limiter.Stop()
			return e.Shutdown(ctx)
		},
	})
}

////////

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
