package core

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

// Services bundles the core components the HTTP layer calls into.
type Services struct {
	Credentials *CredentialService
	Auth        *SessionAuthority
	Ledger      *BookingLedger
	Views       *ViewAssembler
	Status      *StatusCollector
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, store sessions.Store, svc Services, log *logrus.Logger) *gin.Engine {
	r := gin.Default()

	// Global middleware: origin/CORS -> session -> CSRF
	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, store, svc.Auth))
	r.Use(CSRFMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		if svc.Status != nil && !svc.Status.Healthy(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", func(c *gin.Context) {
			var req registerRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			role, err := ParseRole(req.Role)
			if err != nil {
				respondKind(c, log, err)
				return
			}

			ctx := c.Request.Context()
			var id int64
			switch role {
			case RoleUser:
				id, err = svc.Credentials.RegisterUser(ctx, UserSignup{
					Name:     req.Name,
					Email:    req.Email,
					Password: req.Password,
					Address:  req.Address,
					DoorNo:   req.DoorNo,
					Street:   req.Street,
					City:     req.City,
				})
			case RoleWorker:
				city := req.WorkerCity
				if strings.TrimSpace(city) == "" {
					city = req.City
				}
				id, err = svc.Credentials.RegisterWorker(ctx, WorkerSignup{
					Name:         req.Name,
					Email:        req.Email,
					Password:     req.Password,
					Profession:   req.Profession,
					HourlyCharge: req.HourlyCharge.String(),
					City:         city,
				})
			}
			if err != nil {
				respondKind(c, log, err)
				return
			}
			log.WithFields(logrus.Fields{"role": role, "id": id}).Info("account registered")
			c.JSON(http.StatusCreated, gin.H{"id": id, "role": role, "next": "/login"})
		})

		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			sess, err := svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				respondKind(c, log, err)
				return
			}

			cookie := cookieSession(c)
			// A previous login bound to this cookie is ended before rotating.
			if old, _ := cookie.Values[cookieTokenKey].(string); old != "" {
				_ = svc.Auth.Logout(c.Request.Context(), old)
			}
			csrf := cookie.Values[cookieCSRFKey]
			cookie.Values = map[interface{}]interface{}{}
			cookie.Values[cookieTokenKey] = sess.Token
			if csrf != nil {
				cookie.Values[cookieCSRFKey] = csrf
			}
			applySessionOptions(cfg, cookie)
			if err := cookie.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to set session")
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"principal": principalJSON(sess.Principal),
				"next":      "/dashboard",
			})
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			cookie := cookieSession(c)
			token, _ := cookie.Values[cookieTokenKey].(string)
			if err := svc.Auth.Logout(c.Request.Context(), token); err != nil {
				respondKind(c, log, err)
				return
			}
			cookie.Values = map[interface{}]interface{}{}
			applySessionOptions(cfg, cookie)
			cookie.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
			if err := cookie.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/me", func(c *gin.Context) {
			sess := authSession(c)
			if sess == nil {
				respondKind(c, log, ErrUnauthenticated)
				return
			}
			c.JSON(http.StatusOK, gin.H{"principal": principalJSON(sess.Principal)})
		})

		api.GET("/dashboard", func(c *gin.Context) {
			view, err := svc.Views.Dashboard(c.Request.Context(), authSession(c))
			if err != nil {
				respondKind(c, log, err)
				return
			}
			c.JSON(http.StatusOK, view)
		})

		api.GET("/workers", RoleOnly(RoleUser, log), func(c *gin.Context) {
			roster, err := svc.Views.WorkerRoster(c.Request.Context())
			if err != nil {
				respondKind(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"items": roster})
		})

		api.GET("/bookings", func(c *gin.Context) {
			items, err := svc.Views.History(c.Request.Context(), authSession(c))
			if err != nil {
				respondKind(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"items": items})
		})

		api.POST("/bookings", RoleOnly(RoleUser, log), func(c *gin.Context) {
			var req struct {
				WorkerID int64  `json:"worker_id"`
				Date     string `json:"date"`
				Time     string `json:"time"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			b, err := svc.Ledger.CreateBooking(c.Request.Context(), authSession(c), req.WorkerID, req.Date, req.Time)
			if err != nil {
				respondKind(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, b)
		})

		respond := func(c *gin.Context, target BookingStatus) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || id <= 0 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking id")
				return
			}
			b, err := svc.Ledger.TransitionBooking(c.Request.Context(), authSession(c), id, target)
			if err != nil {
				respondKind(c, log, err)
				return
			}
			c.JSON(http.StatusOK, b)
		}
		api.POST("/bookings/:id/accept", RoleOnly(RoleWorker, log), func(c *gin.Context) {
			respond(c, StatusAccepted)
		})
		api.POST("/bookings/:id/reject", RoleOnly(RoleWorker, log), func(c *gin.Context) {
			respond(c, StatusRejected)
		})
		api.POST("/bookings/:id/decision", RoleOnly(RoleWorker, log), func(c *gin.Context) {
			var req struct {
				Decision string `json:"decision"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			target, err := ParseDecision(req.Decision)
			if err != nil {
				respondKind(c, log, err)
				return
			}
			respond(c, target)
		})

		api.GET("/system/status", func(c *gin.Context) {
			if authSession(c) == nil {
				respondKind(c, log, ErrUnauthenticated)
				return
			}
			if svc.Status == nil {
				respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "status unavailable")
				return
			}
			c.JSON(http.StatusOK, svc.Status.Collect(c.Request.Context()))
		})
	}

	return r
}

// registerRequest carries both signup forms; Role selects which fields apply.
type registerRequest struct {
	Role         string      `json:"role"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Address      string      `json:"address"`
	DoorNo       string      `json:"door_no"`
	Street       string      `json:"street"`
	City         string      `json:"city"`
	Profession   string      `json:"profession"`
	HourlyCharge json.Number `json:"hourly_charge"`
	WorkerCity   string      `json:"worker_city"`
}

func principalJSON(p Principal) gin.H {
	return gin.H{"id": p.PrincipalID(), "role": p.Role()}
}
