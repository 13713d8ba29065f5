package api

import (
	"fmt"           // Panic messages
	"net/http"      // HTTP handler types
	"os"            // Static file lookup
	"path/filepath" // Static file paths
	"strings"       // Path prefixes

	"room_rental/internal/apperr"     // Error envelope
	"room_rental/internal/config"     // Configuration
	"room_rental/internal/domain"     // Roles
	"room_rental/internal/metrics"    // Prometheus collectors
	"room_rental/internal/middleware" // Auth, roles, logging, metrics
	"room_rental/internal/service"    // Use cases

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics handler
	"github.com/rs/cors"                                      // CORS
	"github.com/sirupsen/logrus"                              // Logging library
)

// NewRouter wires every route of the API. gatherer may be nil to skip /metrics.
func NewRouter(cfg *config.Config, svc *service.Service, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	useJSONFieldNames()

	r := gin.New()
	// Only trust X-Forwarded-For from a local reverse proxy
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.WithError(err).Warn("failed to set trusted proxies")
	}
	r.Use(middleware.RequestLogger(), middleware.Metrics(m)) // Request id, access log and metrics on every route
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		apperr.Abort(c, fmt.Errorf("panic: %v", recovered))
	}))

	if cfg.WebDir == "" {
		r.GET("/", RootHandler()) // Plain banner when no SPA is bundled
	}
	r.GET("/healthz", HealthHandler(svc))
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.JWTAuth(svc)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleAdvertiser)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	apiGroup := r.Group("/api")

	// Auth routes
	apiGroup.POST("/auth/register", RegisterHandler(svc)) // Registration endpoint
	apiGroup.POST("/auth/login", LoginHandler(svc))       // Login endpoint

	// Profile routes (protected by JWT)
	me := apiGroup.Group("/usuario/me", auth)
	me.GET("", MeHandler(svc))
	me.PATCH("", UpdateMeHandler(svc))
	me.DELETE("", DeactivateMeHandler(svc))
	me.PATCH("/password", ChangePasswordHandler(svc))
	me.GET("/estancia", MyStayHandler(svc))

	// Public piso routes
	pisos := apiGroup.Group("/piso")
	pisos.GET("", ListPropertiesHandler(svc))
	pisos.GET("/ciudad/:ciudad", PropertiesByCityHandler(svc))
	pisos.GET("/:id", GetPropertyHandler(svc))
	pisos.GET("/:id/fotos", PropertyPhotosHandler(svc))

	// Piso management (ownership checked by the service)
	pisos.POST("", auth, staff, CreatePropertyHandler(svc))
	pisos.PATCH("/:id", auth, staff, UpdatePropertyHandler(svc))
	pisos.DELETE("/:id", auth, staff, DeactivatePropertyHandler(svc))
	pisos.POST("/:id/fotos", auth, staff, AddPropertyPhotoHandler(svc))
	pisos.PATCH("/:id/fotos/:fotoId", auth, staff, UpdatePropertyPhotoHandler(svc))
	pisos.DELETE("/:id/fotos/:fotoId", auth, staff, DeletePropertyPhotoHandler(svc))

	// Public room routes
	rooms := apiGroup.Group("/habitacion")
	rooms.GET("", ListRoomsHandler(svc))
	rooms.GET("/piso/:pisoId", RoomsByPropertyHandler(svc))
	rooms.GET("/:id", GetRoomHandler(svc))
	rooms.GET("/:id/fotos", RoomPhotosHandler(svc))

	// Tenancy routes
	stays := apiGroup.Group("/usuario-habitacion", auth)
	stays.POST("/join", JoinHandler(svc))
	stays.PATCH("/leave", LeaveHandler(svc))
	stays.PATCH("/kick/:id", staff, KickHandler(svc))
	stays.GET("/my", MyStayHandler(svc))
	stays.GET("/piso/:id/convivientes", RoommatesHandler(svc))
	stays.GET("/habitacion/:id/historial", RoomHistoryHandler(svc))

	// Rating routes (a user's ratings are public)
	votes := apiGroup.Group("/voto-usuario")
	votes.GET("/usuario/:id/resumen", VoteSummaryHandler(svc))
	votes.GET("/usuario/:id/recibidos", VotesReceivedHandler(svc))
	votes.POST("", auth, CastVoteHandler(svc))
	votes.GET("/mis-votos", auth, MyVotesHandler(svc))

	// Admin routes (protected, staff or admin only)
	admin := apiGroup.Group("/admin", auth)
	admin.POST("/habitacion", staff, CreateRoomHandler(svc))
	admin.PATCH("/habitacion/:id", staff, UpdateRoomHandler(svc))
	admin.DELETE("/habitacion/:id/deactivate", staff, DeactivateRoomHandler(svc))
	admin.POST("/habitacion/:id/fotos", staff, AddRoomPhotoHandler(svc))
	admin.PATCH("/habitacion/:id/fotos/:fotoId", staff, UpdateRoomPhotoHandler(svc))
	admin.DELETE("/habitacion/:id/fotos/:fotoId", staff, DeleteRoomPhotoHandler(svc))

	users := admin.Group("/usuario", adminOnly)
	users.GET("", ListUsersHandler(svc))
	users.GET("/:id", GetUserHandler(svc))
	users.PATCH("/:id", AdminUpdateUserHandler(svc))
	users.PATCH("/:id/password", AdminSetPasswordHandler(svc))
	users.DELETE("/:id", AdminDeactivateUserHandler(svc))

	r.NoRoute(noRoute(cfg.WebDir))

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(r)
}

// noRoute answers unknown API paths with the JSON envelope and, when webDir
// is set, serves the SPA with an index.html fallback for client-side routes.
func noRoute(webDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if webDir == "" || strings.HasPrefix(path, "/api/") || path == "/api" {
			apperr.Abort(c, apperr.NotFound(apperr.CodeNotFound))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			apperr.Abort(c, apperr.NotFound(apperr.CodeNotFound))
			return
		}
		file := filepath.Join(webDir, filepath.Clean("/"+path)) // Clean against the root so ".." cannot escape webDir
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(webDir, "index.html"))
	}
}
