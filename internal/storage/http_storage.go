package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// ImageFetcher loads a decoded screenshot from a location (URL, path, blob
// URL or screen reference, depending on the implementation).
type ImageFetcher interface {
	FetchImage(ctx context.Context, location string) (image.Image, error)
}

// timeoutFetcher bounds every fetch of the wrapped fetcher
type timeoutFetcher struct {
	next    ImageFetcher
	timeout time.Duration
}

// WithTimeout limits each FetchImage call on f to timeout
func WithTimeout(f ImageFetcher, timeout time.Duration) ImageFetcher {
	if timeout <= 0 {
		return f
	}
	return &timeoutFetcher{next: f, timeout: timeout}
}

func (t *timeoutFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.FetchImage(ctx, location)
}

const maxFetchAttempts = 3

// HTTPImageFetcher downloads screenshots over HTTP(S), retrying transient failures
type HTTPImageFetcher struct {
	client  *http.Client
	backoff time.Duration
}

// ErrInternalAddress is returned when a public-only fetcher is asked to
// connect to a loopback, private or link-local address.
var ErrInternalAddress = errors.New("refusing to connect to internal address")

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher() ImageFetcher {
	return newHTTPImageFetcher(time.Second, nil)
}

// NewPublicHTTPImageFetcher creates an HTTP image fetcher that only connects
// to public addresses. The check runs on the dialed address, so it also
// covers hostnames resolving to internal addresses and redirects.
func NewPublicHTTPImageFetcher() ImageFetcher {
	return newHTTPImageFetcher(time.Second, rejectInternal)
}

// rejectInternal is a net.Dialer Control hook
func rejectInternal(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInternalAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || validation.IsInternalIP(ip) {
		return fmt.Errorf("%w: %s", ErrInternalAddress, host)
	}
	return nil
}

func newHTTPImageFetcher(backoff time.Duration, control func(network, address string, c syscall.RawConn) error) *HTTPImageFetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   control,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		backoff: backoff,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,

			// Screenshot servers should not redirect more than a couple of times
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Headers for image downloads
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Brand-Inspector/1.0")

	// Retry logic - only retry on network errors and 5xx responses
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		resp, err = h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		retryable := true
		if err != nil {
			lastErr = err
			retryable = !errors.Is(err, ErrInternalAddress)
		} else {
			// Use closure to ensure body is always closed
			func() {
				defer resp.Body.Close()
				switch {
				case resp.StatusCode >= 500:
					lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
				case resp.StatusCode >= 400:
					lastErr = fmt.Errorf("client error: status code %d", resp.StatusCode)
					retryable = false
				default:
					lastErr = fmt.Errorf("unexpected status code %d", resp.StatusCode)
					retryable = false
				}
			}()
			resp = nil
		}

		if !retryable || ctx.Err() != nil {
			break
		}

		// Sleep before next retry (not on last attempt)
		if attempt < maxFetchAttempts-1 {
			logger.WithFields(logrus.Fields{
				"url":     imageURL,
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			}).Debug("Retrying image fetch")

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	if resp == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("unknown error")
		}
		return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", maxFetchAttempts, lastErr)
	}
	defer resp.Body.Close()

	img, _, err := DecodeImage(resp.Body)
	if err != nil {
		return nil, err
	}
	return img, nil
}
