// Package readiness waits for a web app under test to start serving.
package readiness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// Options controls polling
type Options struct {
	Interval       time.Duration
	Timeout        time.Duration
	RequestTimeout time.Duration
	// Settle is waited after the first 200 so the app can finish rendering
	Settle time.Duration
}

// DefaultOptions returns the standard polling schedule
func DefaultOptions() Options {
	return Options{
		Interval:       5 * time.Second,
		Timeout:        180 * time.Second,
		RequestTimeout: 2 * time.Second,
		Settle:         10 * time.Second,
	}
}

// WaitForHTTP polls url until it answers 200 OK and returns how long that
// took. It fails with a timeout error once opts.Timeout has passed.
func WaitForHTTP(ctx context.Context, url string, opts Options) (time.Duration, error) {
	if opts.Interval <= 0 || opts.Timeout <= 0 || opts.RequestTimeout <= 0 {
		return 0, apperrors.NewValidationError("interval, timeout and request timeout must be positive", nil)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client := &http.Client{Timeout: opts.RequestTimeout}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if isReady(ctx, client, url) {
			elapsed := time.Since(start)
			logger.WithFields(logrus.Fields{
				"url":      url,
				"attempts": attempt,
				"elapsed":  elapsed.String(),
			}).Info("App is ready")
			sleep(ctx, opts.Settle)
			return elapsed, nil
		}

		logger.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt,
		}).Debug("App not ready yet")

		select {
		case <-ctx.Done():
			return time.Since(start), apperrors.NewTimeoutError(
				fmt.Sprintf("%s not ready after %s", url, opts.Timeout), ctx.Err())
		case <-ticker.C:
		}
	}
}

func isReady(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
