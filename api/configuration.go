package api

import (
	"time"
)

type Configuration struct {
	Env                 string
	AppName             string
	AppVersion          string
	Host                string
	Port                string
	RequestLoggingLevel string
	AllowedOrigins      []string
	MaxBodySize         int64

	DefaultTimeout   time.Duration
	IngestionTimeout time.Duration
	AnalysisTimeout  time.Duration
}

const (
	defaultRouteTimeout     = 10 * time.Second
	defaultIngestionTimeout = 45 * time.Second
	defaultAnalysisTimeout  = 60 * time.Second
	defaultMaxBodySize      = 1 << 20
	defaultHost             = "0.0.0.0"
)

func (conf Configuration) withDefaults() Configuration {
	if conf.DefaultTimeout == 0 {
		conf.DefaultTimeout = defaultRouteTimeout
	}
	if conf.IngestionTimeout == 0 {
		conf.IngestionTimeout = defaultIngestionTimeout
	}
	if conf.AnalysisTimeout == 0 {
		conf.AnalysisTimeout = defaultAnalysisTimeout
	}
	if conf.Host == "" {
		conf.Host = defaultHost
	}
	if conf.MaxBodySize == 0 {
		conf.MaxBodySize = defaultMaxBodySize
	}
	return conf
}
