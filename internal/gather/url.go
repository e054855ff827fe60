package gather

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so the visited set can deduplicate
// equivalent forms. It lowercases the scheme and host, strips default ports
// and fragments, and sorts query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// Domain extracts the lowercase host of a seed URL, used to partition session
// results per source. It returns "unknown" when the URL has no usable host.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ValidateSeed checks that a seed is an absolute http(s) URL.
func ValidateSeed(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("seed %q is not a valid URL: %v", rawURL, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Msg: fmt.Sprintf("seed %q must use http or https", rawURL)}
	}
	if u.Host == "" {
		return &ValidationError{Msg: fmt.Sprintf("seed %q has no host", rawURL)}
	}
	return nil
}
