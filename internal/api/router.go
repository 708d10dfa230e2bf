package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubhub/internal/auth"
	"clubhub/internal/httpmiddleware"
	"clubhub/internal/lifecycle"
	"clubhub/internal/metrics"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Config wires the router.
type Config struct {
	Service     *lifecycle.Service
	Signer      auth.Signer
	Limiter     *httpmiddleware.SimpleTokenBucket
	CORSOrigins []string
	PublicURL   string
	Production  bool
	Health      map[string]HealthCheck
}

var registerTagName sync.Once

// useJSONFieldNames makes validation errors name fields by their JSON key.
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// NewRouter builds the HTTP handler. Every route is served both at the root
// and under /api.
func NewRouter(cfg Config) *gin.Engine {
	useJSONFieldNames()
	h := &Handler{
		svc:        cfg.Service,
		signer:     cfg.Signer,
		publicURL:  strings.TrimSuffix(cfg.PublicURL, "/"),
		production: cfg.Production,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	r.Use(securityHeaders())
	r.Use(metrics.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", healthz(cfg.Health))

	limit := func(c *gin.Context) { c.Next() }
	if cfg.Limiter != nil {
		limit = cfg.Limiter.GinMiddleware()
	}
	bearer := auth.Bearer(cfg.Signer)

	for _, base := range []*gin.RouterGroup{&r.RouterGroup, r.Group("/api")} {
		h.mount(base.Group("", limit), base.Group("", bearer, limit))
	}
	return r
}

func (h *Handler) mount(pub, authed *gin.RouterGroup) {
	admin := auth.RequireRole(string(lifecycle.RoleAdmin))
	managers := auth.RequireRole(string(lifecycle.RoleCoordinator), string(lifecycle.RoleAdmin))

	pub.POST("/auth/register", h.register)
	pub.POST("/auth/login", h.login)
	pub.POST("/auth/refresh", h.refresh)

	pub.GET("/events/notifications", h.notifications)
	pub.GET("/events/recent", h.recentEvents)
	pub.GET("/events/club/:clubId", h.clubEvents)
	pub.GET("/events/:id", h.getEvent)
	authed.POST("/events", managers, h.createEvent)
	authed.GET("/events/my", managers, h.myEvents)
	authed.POST("/events/request-venue", managers, h.requestVenue)
	authed.GET("/events/venue-requests", managers, h.myVenueRequests)
	authed.POST("/events/:id/register", h.registerForEvent)
	authed.GET("/events/:id/registration-status", h.registrationStatus)
	authed.GET("/events/:id/registrations", managers, h.registrations)
	authed.GET("/events/:id/attendees", managers, h.attendees)
	authed.POST("/events/:id/submit-attendance", managers, h.submitAttendance)
	authed.POST("/events/:id/attendance", managers, h.markAttendanceBatch)

	att := authed.Group("/attendance/event/:id", managers)
	att.POST("/save", h.saveProgress)
	att.GET("/saved", h.savedProgress)
	att.GET("/attendees", h.attendees)
	att.POST("/submit", h.submitAttendance)
	att.PUT("/student/:studentId", h.markStudent)
	att.POST("/close-registration", h.closeRegistration)

	adm := authed.Group("/admin", admin)
	adm.GET("/venue-requests", h.adminVenueRequests)
	adm.GET("/venue-requests/approved-count", h.approvedVenueCount)
	adm.POST("/approve-venue/:id", h.approveVenue)
	adm.POST("/reject-venue/:id", h.rejectVenue)
	adm.POST("/cleanup-venue-requests", h.cleanupVenues)

	authed.GET("/users/me", h.me)
	authed.GET("/users/certificates", h.myCertificates)
	authed.GET("/users/my-events", h.myRegisteredEvents)
	authed.PUT("/users/me/club-description", h.updateMyClubDescription)
	authed.POST("/users/upload-profile-pic", h.uploadProfilePic)
	authed.GET("/users/coordinator-requests", admin, h.coordinatorRequests)
	authed.POST("/users/approve-coordinator/:id", admin, h.approveCoordinator)
	authed.POST("/users/reject-coordinator/:id", admin, h.rejectCoordinator)

	pub.GET("/clubs", h.listClubs)
	pub.GET("/clubs/:id", h.getClub)
	authed.POST("/clubs", admin, h.createClub)
	authed.PUT("/clubs/:id", admin, h.updateClub)
	authed.DELETE("/clubs/:id", admin, h.deleteClub)
	authed.POST("/clubs/:id/logo", admin, h.uploadClubLogo)

	pub.GET("/certificates/:id/verify", h.verifyCertificate)
	pub.GET("/certificates/:id/qrcode", h.certificateQRCode)
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		status := http.StatusOK
		for name, check := range checks {
			ok := check(c.Request.Context())
			body[name] = ok
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
