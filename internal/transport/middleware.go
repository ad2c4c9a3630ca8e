package transport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/models"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

const (
	userContextKey = "user"
	censored       = "$censored"
)

var publicPaths = map[string]struct{}{
	"/user/create": {},
	"/user/token":  {},
	"/ping":        {},
}

// AuthMiddleware resolves the caller from its token and stores it in the
// context. Every route except publicPaths requires it; requests matching no
// route fall through to the 404 handler.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := publicPaths[c.Path()]; ok {
			return next(c)
		}
		if _, ok := s.routes[c.Path()]; !ok {
			return next(c)
		}

		token := tokenFromRequest(c.Request())
		if token == "" {
			return service.ErrUnauthenticated
		}
		user, err := s.tokens.Resolve(c.Request().Context(), token)
		if err != nil {
			if !service.IsUnauthenticated(err) {
				s.logger.Errorw("resolve token", "error", err)
			}
			return err
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// tokenFromRequest accepts "Authorization: Token <key>",
// "Authorization: Bearer <key>" and "X-Token: <key>".
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		parts := strings.Fields(auth)
		if len(parts) == 2 && (strings.EqualFold(parts[0], "token") || strings.EqualFold(parts[0], "bearer")) {
			return parts[1]
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-Token"))
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get(userContextKey).(*db.User)
	if !ok || user == nil {
		return nil, service.ErrUnauthenticated
	}
	return user, nil
}

// RequestLogger logs one line per request through zap.
func (s *HTTPServer) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			)
			return nil
		},
	})
}

func (s *HTTPServer) dumpBody(c echo.Context, reqBody, resBody []byte) {
	if len(reqBody) == 0 {
		return
	}
	s.logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
}

// censorBody masks the password of a JSON object body. Other bodies are
// returned unchanged.
func censorBody(b []byte) []byte {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return b
	}
	if _, ok := fields["password"]; !ok {
		return b
	}
	fields["password"] = censored

	out, err := json.Marshal(fields)
	if err != nil {
		return b
	}
	return out
}

// HandleError renders every error returned by handlers and middleware.
func (s *HTTPServer) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.errorResponse(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Errorw("write error response", "error", err)
	}
}

func (s *HTTPServer) errorResponse(err error) (int, interface{}) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Fields
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, map[string][]string{
			service.NonFieldErrors: {"Unable to authenticate with provided credentials."},
		}
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, models.ErrorResp{Detail: "Invalid token."}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, models.ErrorResp{Detail: "Authentication credentials were not provided."}
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, models.ErrorResp{Detail: "You do not have permission to perform this action."}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, models.ErrorResp{Detail: "Not found."}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, models.ErrorResp{Detail: fmt.Sprint(he.Message)}
	}

	s.logger.Errorw("request failed", "error", err)
	return http.StatusInternalServerError, models.ErrorResp{Detail: "A server error occurred."}
}
