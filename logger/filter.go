package logger

import (
	"net/url"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values when no mask is configured
	DefaultMaskValue = "***"
	// DefaultMaxDepth bounds recursion into nested maps and slices
	DefaultMaxDepth = 8
)

// FilterConfig defines the configuration for sensitive data filtering
type FilterConfig struct {
	// SensitiveFields contains key fragments; a key matching any of them is masked
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns a configuration covering common credential names
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "secret",
			"api_key", "apikey", "token",
			"authorization", "credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values whose keys look like credentials.
// Matching is case-insensitive substring matching on the key.
type SensitiveDataFilter struct {
	fields []string
	mask   string
}

// NewSensitiveDataFilter creates a new filter with the given configuration
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	mask := config.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	fields := make([]string, 0, len(config.SensitiveFields))
	for _, f := range config.SensitiveFields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			fields = append(fields, f)
		}
	}
	return &SensitiveDataFilter{fields: fields, mask: mask}
}

// MaskValue returns the replacement used for sensitive values
func (f *SensitiveDataFilter) MaskValue() string {
	return f.mask
}

// IsSensitive reports whether key names a sensitive field
func (f *SensitiveDataFilter) IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range f.fields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// FilterString masks value when key is sensitive.
// URLs keep their structure with only the userinfo password masked.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if value != "" && f.IsSensitive(key) {
		return f.mask
	}
	if hasURLScheme(value) {
		return f.maskURLPassword(value)
	}
	return value
}

// FilterValue filters sensitive data from any value, descending into maps and slices
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, DefaultMaxDepth)
}

// FilterFields returns a copy of fields with sensitive values masked
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.filterValue(k, v, DefaultMaxDepth)
	}
	return filtered
}

// RedactStrings returns a copy of a string map with sensitive values masked.
// The input map is never modified.
func (f *SensitiveDataFilter) RedactStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if f.IsSensitive(k) {
			out[k] = f.mask
			continue
		}
		out[k] = v
	}
	return out
}

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if f.IsSensitive(key) {
		return f.mask
	}
	if value == nil || depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case string:
		return f.FilterString(key, v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = f.filterValue(k, inner, depth-1)
		}
		return out
	case map[string]string:
		return f.RedactStrings(v)
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = f.filterValue(key, inner, depth-1)
		}
		return out
	default:
		return value
	}
}

func hasURLScheme(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// maskURLPassword masks the password in URL userinfo while preserving structure
func (f *SensitiveDataFilter) maskURLPassword(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	if _, has := parsed.User.Password(); !has {
		return raw
	}
	parsed.User = url.UserPassword(parsed.User.Username(), f.mask)
	// url.String escapes the mask; undo that so the marker stays readable.
	return strings.Replace(parsed.String(), url.QueryEscape(f.mask), f.mask, 1)
}
