package api

import (
	"net/http"
	"time"

	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	timeout "github.com/vearne/gin-timeout"

	"github.com/checkmarble/kyc-backend/usecases"
	"github.com/checkmarble/kyc-backend/utils"
)

func timeoutMiddleware(duration time.Duration) gin.HandlerFunc {
	return timeout.Timeout(
		timeout.WithTimeout(duration),
		timeout.WithErrorHttpCode(http.StatusRequestTimeout),
		timeout.WithDefaultMsg(`{"error":"request timeout"}`),
	)
}

func addRoutes(r *gin.Engine, conf Configuration, uc usecases.Usecases, auth utils.Authentication) {
	conf = conf.withDefaults()
	defaultTimeout := timeoutMiddleware(conf.DefaultTimeout)

	r.GET("/liveness", handleLivenessProbe(uc))
	r.GET("/metrics", gin.WrapH(uc.Metrics().Handler()))

	api := r.Group("/api", limits.RequestSizeLimiter(conf.MaxBodySize))

	api.POST("/auth/register", defaultTimeout, handleRegister(uc))
	api.POST("/auth/login", defaultTimeout, handleLogin(uc))

	api.POST("/kyc/start", defaultTimeout, handleStartKyc(uc))
	api.POST("/kyc/upload-document", timeoutMiddleware(conf.IngestionTimeout), handleUploadDocument(uc))
	api.POST("/kyc/analyze", timeoutMiddleware(conf.AnalysisTimeout), handleAnalyzeKyc(uc))

	admin := api.Group("/admin/kyc", auth.Middleware, utils.RequireAdmin, defaultTimeout)
	admin.GET("/pending", handleListPendingKyc(uc))
	admin.GET("/:kycId", handleGetKycForReview(uc))
	admin.GET("/:kycId/history", handleGetKycHistory(uc))
	admin.POST("/:kycId/decision", handlePostKycDecision(uc))
}
