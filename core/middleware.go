package core

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "wb_session"
const sessionMaxAge = 18000 // 5h

// gin context keys
const (
	ctxCookieSession = "session"
	ctxAuthSession   = "auth"
)

// cookie session value keys
const (
	cookieTokenKey = "token"
	cookieCSRFKey  = "csrf_token"
)

// SessionMiddleware loads the signed cookie, applies consistent cookie options and, when
// the cookie carries a token, resolves it to the bound principal. An unknown or expired
// token leaves the request anonymous.
func SessionMiddleware(cfg Config, store sessions.Store, auth *SessionAuthority) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			// A cookie signed with a rotated key is treated as absent.
			session, _ = store.New(c.Request, sessionName)
		}
		if session == nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			c.Abort()
			return
		}

		applySessionOptions(cfg, session)
		if err := session.Save(c.Request, c.Writer); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
			c.Abort()
			return
		}
		c.Set(ctxCookieSession, session)

		if token, _ := session.Values[cookieTokenKey].(string); token != "" {
			if sess, err := auth.Lookup(c.Request.Context(), token); err == nil {
				c.Set(ctxAuthSession, sess)
			} else if KindOf(err) == KindStorageUnavailable {
				respondKind(c, auth.log, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// OriginRefererMiddleware validates Origin/Referer against allowed list and sets CORS headers.
func OriginRefererMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if referer := c.GetHeader("Referer"); origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		if c.Request.Method == http.MethodOptions && origin != "" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

// CSRFMiddleware issues and validates a per-session CSRF token.
func CSRFMiddleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := cookieSession(c)
		if session == nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			c.Abort()
			return
		}

		token, _ := session.Values[cookieCSRFKey].(string)
		if token == "" {
			var err error
			token, err = generateCSRFToken()
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue csrf token")
				c.Abort()
				return
			}
			session.Values[cookieCSRFKey] = token
			applySessionOptions(cfg, session)
			if err := session.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
				c.Abort()
				return
			}
		}

		if !isSafeMethod(c.Request.Method) && !csrfExemptPath(c.Request.URL.Path) {
			header := c.GetHeader("X-CSRF-Token")
			if header == "" || header != token {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "invalid csrf token")
				c.Abort()
				return
			}
		}

		c.Writer.Header().Set("X-CSRF-Token", token)
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// Paths reachable before a session exists skip CSRF validation.
func csrfExemptPath(path string) bool {
	switch path {
	case "/api/v1/auth/login", "/api/v1/auth/register":
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	maxAge := sessionMaxAge
	if cfg.SessionTTL > 0 {
		maxAge = int(cfg.SessionTTL.Seconds())
	}
	session.Options.Path = "/"
	session.Options.MaxAge = maxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func cookieSession(c *gin.Context) *sessions.Session {
	v, _ := c.Get(ctxCookieSession)
	sess, _ := v.(*sessions.Session)
	return sess
}

// authSession returns the principal session resolved by SessionMiddleware, or nil.
func authSession(c *gin.Context) *Session {
	v, _ := c.Get(ctxAuthSession)
	sess, _ := v.(*Session)
	return sess
}
