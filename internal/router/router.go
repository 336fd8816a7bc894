package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"photogallery/internal/auth"
	"photogallery/internal/handler"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Group *handler.GroupHandler
	Image *handler.ImageHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log *zap.Logger,
	tokens *auth.JWTService,
	sessions *handler.SessionMiddleware,
	validate *validator.Validate,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validate}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Every other route runs inside a session. A missing, expired or forged
	// cookie is not an error: the visitor simply starts a new guest session.
	site := e.Group("",
		echojwt.WithConfig(echojwt.Config{
			TokenLookup: "cookie:" + auth.SessionCookieName,
			ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
				claims, err := tokens.ValidateToken(token)
				if err != nil {
					return nil, err
				}
				return claims, nil
			},
			ContinueOnIgnoredError: true,
			ErrorHandler: func(c echo.Context, err error) error {
				return nil
			},
		}),
		sessions.Handle,
		handler.RequireCSRF,
	)

	api := site.Group("/api")

	// Session and authentication
	api.GET("/auth/captcha", h.Auth.Captcha)
	api.GET("/auth/csrf", h.Auth.CSRF)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)

	// Current user
	api.GET("/me", h.Auth.Me)
	api.PUT("/me/profile", h.User.UpdateProfile)
	api.DELETE("/me", h.User.DeleteSelf)
	api.POST("/admin/confirm", h.User.ConfirmAdmin)

	// User administration
	api.DELETE("/users/:id", h.User.SoftDelete)
	api.POST("/users/:id/restore", h.User.Restore)
	api.DELETE("/users/:id/permanent", h.User.HardDelete)
	api.PUT("/users/:id/rights", h.User.UpdateRights)

	// Groups and categories
	api.POST("/groups", h.Group.CreateGroup)
	api.PUT("/groups/:id", h.Group.UpdateGroup)
	api.DELETE("/groups/:id", h.Group.DeleteGroup)
	api.POST("/categories/:name", h.Image.CreateCategory)
	api.DELETE("/categories/:name", h.Image.RemoveCategory)

	// Images
	images := api.Group("/images")
	images.GET("/photo/*", h.Image.Photo)
	images.GET("/thumbnail/*", h.Image.Thumbnail)
	images.GET("/placeholder", h.Image.Placeholder)
	images.GET("/size", h.Image.Size)
	images.POST("/thumbnail", h.Image.CreateThumbnail)
	images.POST("/fix-extension", h.Image.FixExtension)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
