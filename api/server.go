package api

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/checkmarble/kyc-backend/usecases"
	"github.com/checkmarble/kyc-backend/utils"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownMargin    = 5 * time.Second
)

// NewServer mounts the kyc routes on the router and serves them over h2c.
func NewServer(router *gin.Engine, conf Configuration, uc usecases.Usecases, auth utils.Authentication) *http.Server {
	conf = conf.withDefaults()
	addRoutes(router, conf, uc, auth)

	// the route timeouts answer first, the server only cuts what they could not
	writeTimeout := max(conf.DefaultTimeout, conf.IngestionTimeout, conf.AnalysisTimeout) + shutdownMargin

	return &http.Server{
		Addr:              net.JoinHostPort(conf.Host, conf.Port),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       conf.DefaultTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       writeTimeout,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
	}
}
