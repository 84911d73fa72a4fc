package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/minniexp/expense-backend/internal/auth"
	"github.com/minniexp/expense-backend/internal/config"
	"github.com/minniexp/expense-backend/internal/handler"
	"github.com/minniexp/expense-backend/internal/repository"
)

type Handlers struct {
	Transactions *handler.TransactionHandler
	Returns      *handler.ReturnHandler
	Users        *handler.UserHandler
	Checkpoints  *handler.CheckpointHandler
	Teller       *handler.TellerHandler
}

// Setup wires the route table: user routes are open, everything else needs a
// valid session, and checkpoint routes additionally need advanced access.
func Setup(cfg *config.Config, users *repository.UserRepository, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = []string{"Content-Type", "Authorization", "X-Teller-Token"}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	r.Use(cors.New(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "expense-backend"})
	})

	api := r.Group("/api")

	userRoutes := api.Group("/users")
	userRoutes.POST("", h.Users.Create)
	userRoutes.POST("/fetch-by-email", h.Users.FetchByEmail)
	userRoutes.POST("/verify-token", h.Users.VerifyToken)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(cfg.JWTSecret, users))

	tx := protected.Group("/transactions")
	tx.GET("", h.Transactions.List)
	tx.GET("/:year/:month", h.Transactions.ListMonth)
	tx.GET("/:year/:month/export", h.Transactions.ExportMonthXLSX)
	tx.POST("", h.Transactions.CreateBulk)
	tx.POST("/single", h.Transactions.Create)
	tx.PUT("", h.Transactions.UpdateMany)
	tx.DELETE("/all", h.Transactions.DeleteAll)

	tellerRoutes := protected.Group("/teller")
	tellerRoutes.GET("/enrollment", h.Teller.Enrollment)
	tellerRoutes.GET("/transactions", h.Teller.Preview)
	tellerRoutes.POST("/sync", h.Teller.Sync)

	returns := protected.Group("/returns")
	returns.POST("", h.Returns.Create)
	returns.GET("", h.Returns.List)
	returns.GET("/:id", h.Returns.Get)
	returns.PUT("/:id", h.Returns.Update)
	returns.DELETE("/:id", h.Returns.Delete)
	// Attach is idempotent, and a PUT here keeps the static migrate route
	// out of the POST tree where it would collide with :id.
	returns.PUT("/:id/attach", h.Returns.Attach)
	returns.POST("/migrate-transaction-ids", h.Returns.Migrate)

	checkpoints := protected.Group("/pending-transactions")
	checkpoints.Use(auth.RequireAdvanced())
	checkpoints.GET("", h.Checkpoints.Get)
	checkpoints.POST("", h.Checkpoints.Set)

	return r
}
