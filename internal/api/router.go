package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/payout-service/internal/handlers"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

func NewRouter(payoutHandler *handlers.PayoutHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payout-service"})
	})

	// Payout routes
	v1 := r.Group("/api/v1")
	v1.POST("/payouts", payoutHandler.CreatePayout)
	v1.GET("/payouts", payoutHandler.ListPayouts)
	v1.GET("/payouts/:external_id", payoutHandler.GetPayout)
	v1.PATCH("/payouts/:external_id", payoutHandler.UpdatePayout)
	v1.DELETE("/payouts/:external_id", payoutHandler.DeletePayout)

	return r
}
