package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
)

// KeyExtractor groups requests into rate limit buckets. An empty key means
// the request cannot be grouped.
type KeyExtractor func(*http.Request) string

// RemoteIPKeyExtractor returns the address of the connection's peer.
// Client supplied headers are ignored.
func RemoteIPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ForwardedIPKeyExtractor prefers the first X-Forwarded-For hop, then
// X-Real-IP, then the connection's remote address. Clients can set these
// headers freely, so only use it behind a proxy that overwrites them.
func ForwardedIPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return RemoteIPKeyExtractor(r)
}

// UserIDKeyExtractor returns the authenticated principal id, or "".
func UserIDKeyExtractor(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// CompositeKeyExtractor joins the non-empty keys of every extractor with sep,
// e.g. "192.168.1.1:alice@x.io".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// maxKeyBodyBytes caps how much of a request body JSONFieldKeyExtractor reads.
const maxKeyBodyBytes = 1 << 16

// JSONFieldKeyExtractor extracts a string field from a JSON request body.
// The body is restored so the handler can decode it again. Field values are
// lowercased so "Alice@x.io" and "alice@x.io" share a bucket.
func JSONFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		buf, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))
		if err != nil {
			return ""
		}

		var fields map[string]any
		if err := json.Unmarshal(buf, &fields); err != nil {
			return ""
		}
		v, _ := fields[fieldName].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}
