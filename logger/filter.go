package logger

import "strings"

// FilterConfig controls which field names are treated as sensitive and what
// replaces their values in log output.
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig returns the default set of masked field names. Matching
// is case-insensitive and by substring, so "authorization" also covers headers
// like "Proxy-Authorization".
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		SensitiveFields: []string{
			"password",
			"token",
			"secret",
			"authorization",
			"api_key",
			"apikey",
			"x-api-key",
			"cookie",
			"credential",
		},
		MaskValue: "[MASKED]",
	}
}

// SensitiveDataFilter masks values whose keys look sensitive. It operates on
// flat values only: strings and one-level string-keyed maps. Nested structures
// pass through untouched.
type SensitiveDataFilter struct {
	sensitiveFields map[string]struct{}
	maskValue       string
}

// NewSensitiveDataFilter builds a filter from the given config.
func NewSensitiveDataFilter(config FilterConfig) *SensitiveDataFilter {
	fields := make(map[string]struct{}, len(config.SensitiveFields))
	for _, f := range config.SensitiveFields {
		fields[strings.ToLower(f)] = struct{}{}
	}
	return &SensitiveDataFilter{
		sensitiveFields: fields,
		maskValue:       config.MaskValue,
	}
}

// IsSensitive reports whether the key names a sensitive field.
func (f *SensitiveDataFilter) IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	if _, ok := f.sensitiveFields[lower]; ok {
		return true
	}
	for field := range f.sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// FilterString returns the mask value when the key is sensitive, otherwise the
// value unchanged.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.IsSensitive(key) {
		return f.maskValue
	}
	return value
}

// FilterValue masks string values under sensitive keys and walks string-keyed
// maps one level deep. Other types are returned as-is.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	switch v := value.(type) {
	case string:
		return f.FilterString(key, v)
	case map[string]string:
		filtered := make(map[string]string, len(v))
		for k, val := range v {
			filtered[k] = f.FilterString(k, val)
		}
		return filtered
	case map[string]any:
		return f.FilterFields(v)
	default:
		if f.IsSensitive(key) {
			return f.maskValue
		}
		return value
	}
}

// FilterFields applies FilterValue to every entry of a field map.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.FilterValue(k, v)
	}
	return filtered
}
