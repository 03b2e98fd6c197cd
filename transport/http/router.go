package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the gin router. adminSecret guards the operator
// routes; the public API is open (the faucet UI is served elsewhere).
func SetupRouter(handlers *FaucetHandlers, adminSecret string) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.POST("/challenge", handlers.Challenge)
		api.POST("/claim", handlers.Claim)
		api.GET("/balances", handlers.Balances)
		api.GET("/stats", handlers.Stats)
	}

	admin := router.Group("/admin")
	admin.Use(AdminAuthMiddleware(adminSecret))
	{
		admin.GET("/reconciliation", handlers.Reconciliation)
	}

	return router
}
