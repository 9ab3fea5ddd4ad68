package errors

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters that carry credentials, such as the
// routing service API key.
var sensitiveParams = []string{"key", "api_key", "token"}

// RedactQuery replaces credential values in a raw query string.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return rawQuery
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[REDACTED]"
	}

	changed := false
	for _, param := range sensitiveParams {
		if _, ok := values[param]; ok {
			values.Set(param, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return rawQuery
	}
	return values.Encode()
}

// RedactURL redacts credential query parameters in a URL string.
func RedactURL(raw string) string {
	idx := strings.IndexByte(raw, '?')
	if idx < 0 {
		return raw
	}
	return raw[:idx+1] + RedactQuery(raw[idx+1:])
}
