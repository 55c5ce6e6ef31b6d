// Package httputil builds pooled HTTP clients for upstream APIs.
package httputil

import (
	"net"
	"net/http"
	"time"
)

type ClientConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	// ResponseTimeout caps the wait for response headers, not the body.
	ResponseTimeout time.Duration
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ResponseTimeout:     30 * time.Second,
	}
}

// GmailClientConfig allows one connection per sync worker plus headroom.
func GmailClientConfig(workers int) *ClientConfig {
	cfg := DefaultClientConfig()
	if workers > 0 {
		cfg.MaxIdleConnsPerHost = workers * 2
	}
	cfg.ResponseTimeout = 60 * time.Second
	return cfg
}

// NewClient returns a client with no overall timeout; callers bound
// requests with a context.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          cfg.MaxIdleConns,
			MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:       cfg.IdleConnTimeout,
			TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
			ResponseHeaderTimeout: cfg.ResponseTimeout,
			ForceAttemptHTTP2:     true,
		},
	}
}
