package httpclient

import "github.com/gaborage/go-prolific/logger"

// RedactedValue replaces sensitive parameter values in logs.
const RedactedValue = "***REDACTED***"

var sensitiveParamFragments = []string{"token", "password", "api_key", "secret", "authorization"}

func paramRedactionConfig() *logger.FilterConfig {
	return &logger.FilterConfig{
		SensitiveFields: sensitiveParamFragments,
		MaskValue:       RedactedValue,
	}
}

var defaultParamRedactor = logger.NewSensitiveDataFilter(paramRedactionConfig())

// RedactParams returns a copy of params with every value whose key contains
// token, password, api_key, secret or authorization (case-insensitive)
// replaced by RedactedValue.
func RedactParams(params map[string]string) map[string]string {
	return defaultParamRedactor.RedactStrings(params)
}
