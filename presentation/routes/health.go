package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func HealthRoutes(router gin.IRoutes) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}
