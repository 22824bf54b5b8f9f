package executor

import (
	"net"
	"net/http"
	"time"
)

// NewClient returns an HTTP client tuned for sustained load against a single
// target. The client timeout bounds the whole request including body read.
// maxConns should be at least the number of concurrent users so connections
// are reused rather than churned against the one host under test.
func NewClient(timeout time.Duration, maxConns int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if maxConns < 32 {
		maxConns = 32
	}

	// The stdlib default transport shape, with the idle pool widened so
	// every user can hold a warm connection to the one target host.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}
