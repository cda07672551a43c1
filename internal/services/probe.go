package services

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/adbx/internal/shared"
)

const defaultProbeTimeout = 8 * time.Second

// Prober checks whether media URLs are reachable. It tries a HEAD request
// first and falls back to a one-byte ranged GET for hosts that reject HEAD.
// Every probe is bounded by the configured timeout; any failure, including
// the timeout itself, reads as unreachable.
type Prober struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger
}

// NewProber creates a prober from the application config.
func NewProber(cfg *shared.Config, logger *log.Logger) *Prober {
	timeout := defaultProbeTimeout
	if cfg != nil && cfg.Probe.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Probe.TimeoutSeconds) * time.Second
	}
	return &Prober{
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger,
	}
}

// Reachable reports whether the URL answers with a success status within the
// probe timeout.
func (p *Prober) Reachable(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if ok, decided := p.attempt(probeCtx, http.MethodHead, url); decided {
		return ok
	}
	ok, _ := p.attempt(probeCtx, http.MethodGet, url)
	return ok
}

// attempt performs one probe request. decided is false when the method itself
// was refused (405/501) and a fallback is worth trying.
func (p *Prober) attempt(ctx context.Context, method, url string) (ok, decided bool) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false, true
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// A transport error on HEAD may still mean the host only serves GET.
		return false, method != http.MethodHead
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return false, false
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 400, true
}
