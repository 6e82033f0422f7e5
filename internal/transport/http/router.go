package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/tdpcorpsa/singup/internal/health"
	"github.com/tdpcorpsa/singup/internal/transport/http/handler"
	"github.com/tdpcorpsa/singup/internal/transport/http/middleware"
)

func NewRouter(logger *slog.Logger, reg *handler.RegistrationHandler, checker *health.Checker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	api := r.Group("/api")
	api.POST("/check-dni", reg.CheckDNI)
	api.POST("/send-verification-email", reg.SendVerificationEmail)
	api.GET("/verify-email", reg.VerifyEmail)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Liveness(c.Request.Context()))
	})
	r.GET("/readyz", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	return r
}
