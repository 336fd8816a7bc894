package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"photogallery/internal/auth"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/session"
)

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// SessionMiddleware loads the visitor's session, resolves the actor and
// persists the session once the handler returns.
type SessionMiddleware struct {
	store  session.StoreInterface
	tokens *auth.JWTService
	build  ManagerFactory
	secure bool
	log    *zap.Logger
}

// NewSessionMiddleware creates the middleware. secure marks the cookie HTTPS-only.
func NewSessionMiddleware(store session.StoreInterface, tokens *auth.JWTService, build ManagerFactory, secure bool, log *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{store: store, tokens: tokens, build: build, secure: secure, log: log}
}

// Handle runs after the echo-jwt middleware, which leaves the verified claims
// in the context when the cookie is valid. A session whose login changed
// during the request moves to a new id and the old record is destroyed.
func (s *SessionMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sess, err := s.store.Load(ctx, sessionIDFrom(c))
		if err != nil {
			s.log.Error("load session", zap.Error(err))
			return serviceError(err)
		}
		m, err := s.build(ctx, sess)
		if err != nil {
			s.log.Error("resolve actor", zap.String("session_id", sess.ID()), zap.Error(err))
			return serviceError(err)
		}

		// The cookie goes out just before the headers, once the handler had
		// its chance to log the visitor in or out.
		var (
			issued   bool
			issueErr error
			replaced string
		)
		issue := func() {
			if issued {
				return
			}
			issued = true
			replaced = sess.Rotate()
			if issueErr = s.setCookie(c, sess.ID()); issueErr != nil {
				s.log.Error("issue session token", zap.String("session_id", sess.ID()), zap.Error(issueErr))
			}
		}
		c.Response().Before(issue)
		c.Set(ManagerKey, m)

		herr := next(c)
		if !c.Response().Committed {
			issue()
			if herr == nil && issueErr != nil {
				herr = serviceError(issueErr)
			}
		}

		// Saving on every request slides the store expiry along with the cookie.
		if err := s.store.Save(ctx, sess); err != nil {
			s.log.Error("save session", zap.String("session_id", sess.ID()), zap.Error(err))
			if herr == nil && !c.Response().Committed {
				herr = serviceError(err)
			}
		}
		if replaced != "" {
			if err := s.store.Destroy(ctx, replaced); err != nil {
				s.log.Warn("destroy replaced session", zap.String("session_id", replaced), zap.Error(err))
			}
		}
		return herr
	}
}

func (s *SessionMiddleware) setCookie(c echo.Context, id string) error {
	token, err := s.tokens.IssueSessionToken(id)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.tokens.TTL()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sessionIDFrom returns the session id of a verified token, or "".
func sessionIDFrom(c echo.Context) string {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.SessionID()
}

// RequireCSRF rejects mutating requests whose token does not match the session.
func RequireCSRF(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}
		m, err := managerFrom(c)
		if err != nil {
			return err
		}
		want, err := m.CSRFToken()
		if err != nil {
			return serviceError(err)
		}
		got := c.Request().Header.Get(CSRFHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			return serviceError(apperrors.ErrInvalidCSRF)
		}
		return next(c)
	}
}
