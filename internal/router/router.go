package router

import (
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/config"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/handler"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/middleware"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/service"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Store/Directorio ← TransferClient ← remote services
func New(cfg *config.Config, rdb *redis.Client, cb *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	transferClient := infra.NewTransferClient(cfg.TransferAPIURL, timeout, cb)
	directorio := service.NewDirectorioClient(cfg.DirectoryAPIURL, timeout, rdb)

	// ── Store ────────────────────────────────────────────────────────────────
	// The fallback session covers calls issued without a request context
	// (startup warmers, tests); real requests override role and token.
	fallback := service.StaticSession{Role: infra.RoleJefeAlmacen}
	store := service.NewTransferStore(transferClient, fallback, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	transferenciasH := handler.NewTransferenciasHandler(store)
	directorioH := handler.NewDirectorioHandler(directorio)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(rdb, cb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Reads — both transfer roles see the listings
		lectura := middleware.RequireRole(infra.RoleAdministrador, infra.RoleJefeAlmacen)
		v1.GET("/transferencias", lectura, transferenciasH.Listar)
		v1.GET("/transferencias/sede/:hqId", lectura, transferenciasH.ListarPorSede)
		v1.GET("/transferencias/:id", lectura, transferenciasH.ObtenerPorID)

		// Requesting a transfer — warehouse chiefs and administrators
		v1.POST("/transferencias",
			middleware.RequireRole(infra.RoleJefeAlmacen, infra.RoleAdministrador),
			transferenciasH.Solicitar)

		// Lifecycle decisions — administrators only. The logistics service
		// enforces this again server-side; this guard is UX.
		decision := middleware.RequireRole(infra.RoleAdministrador)
		v1.PATCH("/transferencias/:id/aprobar", decision, transferenciasH.Aprobar)
		v1.PATCH("/transferencias/:id/rechazar", decision, transferenciasH.Rechazar)
		v1.PATCH("/transferencias/:id/confirmar-recepcion", decision, transferenciasH.ConfirmarRecepcion)

		dir := v1.Group("/directorio", lectura)
		{
			dir.GET("/sedes", directorioH.Sedes)
			dir.GET("/almacenes", directorioH.Almacenes)
			dir.GET("/productos/:id", directorioH.Producto)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
