package log

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys, header names and query parameter names
// whose values are always masked. Site configs carry cookies and auth
// headers, and audited URLs sometimes carry access tokens.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"access_token":        true,
	"refresh_token":       true,
	"session":             true,
	"session_id":          true,
	"sessionid":           true,
	"sid":                 true,
	"jsessionid":          true,
	"phpsessid":           true,
	"signature":           true,
	"sig":                 true,
	"credential":          true,
	"credentials":         true,
}

// sensitiveKeywords match keys by substring. The bare "key" is left out
// because it hits "keyword", which the analyzer logs constantly.
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "auth", "credential", "cookie"}

// sensitivePatterns match values that are secrets whatever their key.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*PRIVATE KEY-----`),
}

// SecureHandler wraps an slog.Handler and masks secrets before records
// reach it. It masks:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - string values that look like credentials (JWT, bearer, basic auth)
//   - sensitive query parameters inside URL values
//   - sensitive entries of header maps (map[string]string, http.Header)
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. Every package keeps using the standard *slog.Logger API
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Crawler options that log request headers need no special casing
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the underlying handler handles the level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes masked and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			masked[i] = maskAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, maskString(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]string:
			return slog.Any(a.Key, maskHeaderMap(v))
		case http.Header:
			return slog.Any(a.Key, maskHTTPHeader(v))
		}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

func maskString(v string) string {
	for _, p := range sensitivePatterns {
		if p.MatchString(v) {
			return MaskValue
		}
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return maskURLQuery(v)
	}
	return v
}

// maskURLQuery masks the values of sensitive query parameters and keeps
// parameter order, so logged URLs still match what the crawler fetched.
func maskURLQuery(raw string) string {
	base, query, ok := strings.Cut(raw, "?")
	if !ok || query == "" {
		return raw
	}
	query, fragment, hasFragment := strings.Cut(query, "#")

	params := strings.Split(query, "&")
	changed := false
	for i, p := range params {
		name, _, hasValue := strings.Cut(p, "=")
		if hasValue && isSensitiveKey(name) {
			params[i] = name + "=" + MaskValue
			changed = true
		}
	}
	if !changed {
		return raw
	}

	out := base + "?" + strings.Join(params, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func maskHeaderMap(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if isSensitiveKey(k) {
			out[k] = MaskValue
			continue
		}
		out[k] = maskString(v)
	}
	return out
}

func maskHTTPHeader(headers http.Header) http.Header {
	out := make(http.Header, len(headers))
	for k, vs := range headers {
		if isSensitiveKey(k) {
			out[k] = []string{MaskValue}
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Level returns Debug when verbose is set and Warn otherwise.
func Level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger creates a text logger that masks secrets.
// verbose selects Debug instead of Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level(verbose)})))
}

// NewSecureJSONLogger creates a JSON logger that masks secrets.
// It is used when reports go to stdout as JSON and logs need to be machine
// readable as well.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level(verbose)})))
}
