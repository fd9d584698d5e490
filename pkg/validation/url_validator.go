package validation

import (
	"net"
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
)

// Schemes accepted for image locations. Bare filesystem paths count as
// "file".
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeFile   = "file"
	SchemeScreen = "screen"
)

// LocationValidator decides which image locations a caller may analyze
type LocationValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	publicOnly     bool
}

// NewLocationValidator allows remote http(s) locations on public hosts.
// Loopback, private, link-local and unspecified addresses are rejected, as
// are localhost names. Hostnames that resolve to such addresses are caught
// when the fetcher dials (see storage.NewPublicHTTPImageFetcher).
func NewLocationValidator() *LocationValidator {
	return &LocationValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS},
		allowedHosts:   []string{}, // empty means all hosts allowed
		publicOnly:     true,
	}
}

// NewLocalLocationValidator additionally allows local files and screen
// captures. It is meant for the CLI and trusted deployments.
func NewLocalLocationValidator() *LocationValidator {
	return &LocationValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS, SchemeFile, SchemeScreen},
		allowedHosts:   []string{},
	}
}

// NewLocationValidatorWithOptions creates a validator with custom options
func NewLocationValidatorWithOptions(schemes []string, hosts []string) *LocationValidator {
	return &LocationValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateLocation validates an image location before it is fetched
func (v *LocationValidator) ValidateLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return apperrors.NewValidationError("location cannot be empty", nil)
	}

	parsedURL, err := url.Parse(location)
	if err != nil {
		return apperrors.NewValidationError("invalid location format", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme == "" {
		scheme = SchemeFile
	}
	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("location scheme not allowed", nil)
	}

	switch scheme {
	case SchemeHTTP, SchemeHTTPS:
		if parsedURL.Host == "" {
			return apperrors.NewValidationError("URL must have a valid host", nil)
		}
		if !v.isHostAllowed(parsedURL.Hostname()) {
			return apperrors.NewValidationError("URL host not allowed", nil)
		}
		if v.publicOnly && isInternalHost(parsedURL.Hostname()) {
			return apperrors.NewValidationError("URL host not allowed", nil).
				WithDetails("internal addresses cannot be fetched")
		}
	case SchemeFile:
		if parsedURL.Path == "" && parsedURL.Opaque == "" {
			return apperrors.NewValidationError("file location must have a path", nil)
		}
	}

	return nil
}

// isSchemeAllowed checks if the scheme is in the allowed list
func (v *LocationValidator) isSchemeAllowed(scheme string) bool {
	return slices.Contains(v.allowedSchemes, scheme)
}

// isHostAllowed checks if the host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *LocationValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return slices.Contains(v.allowedHosts, host)
}

// isInternalHost reports whether host names this machine or its network.
// Only literal addresses and localhost names are checked here.
func isInternalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return IsInternalIP(ip)
	}
	return false
}

// IsInternalIP reports whether ip is loopback, private, link-local,
// unspecified or otherwise not routable on the public internet.
func IsInternalIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsUnspecified()
}
