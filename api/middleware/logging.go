package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type config struct {
	logger     *slog.Logger
	ignorePath map[string]struct{}

	successLevel     slog.Level
	clientErrorLevel slog.Level
	serverErrorLevel slog.Level
}

type LoggerOption func(*config)

func WithIgnorePath(paths []string) LoggerOption {
	return func(c *config) {
		for _, path := range paths {
			c.ignorePath[path] = struct{}{}
		}
	}
}

// WithLevel sets the level of successful requests, "debug" keeps them out of the
// default output.
func WithLevel(level string) LoggerOption {
	return func(c *config) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			c.successLevel = l
		}
	}
}

func (c *config) levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return c.serverErrorLevel
	case status >= http.StatusBadRequest:
		return c.clientErrorLevel
	default:
		return c.successLevel
	}
}

// NewLogging logs one line per request, named after the route template so that
// case ids only show up in the kyc_id attribute.
func NewLogging(logger *slog.Logger, options ...LoggerOption) gin.HandlerFunc {
	conf := &config{
		logger:           logger,
		ignorePath:       map[string]struct{}{},
		successLevel:     slog.LevelInfo,
		clientErrorLevel: slog.LevelWarn,
		serverErrorLevel: slog.LevelError,
	}
	for _, option := range options {
		option(conf)
	}

	return func(c *gin.Context) {
		if _, ok := conf.ignorePath[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		attributes := []slog.Attr{
			slog.Int("status", status),
			slog.Int64("latency", time.Since(start).Milliseconds()),
			slog.String("client_ip", c.ClientIP()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.Int("data_length", max(c.Writer.Size(), 0)),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if kycId := c.Param("kycId"); kycId != "" {
			attributes = append(attributes, slog.String("kyc_id", kycId))
		}
		if len(c.Errors) > 0 {
			attributes = append(attributes, slog.String("error", c.Errors.String()))
		}
		conf.logger.LogAttrs(c.Request.Context(), conf.levelFor(status),
			c.Request.Method+" "+route, attributes...)
	}
}
