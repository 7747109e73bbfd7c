package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var bearerPattern = regexp.MustCompile(`(?i)(bearer|token|password|secret)([=:\s]+)[^\s,"]+`)

// SecurityLogger masks credentials and endpoints before they reach the log.
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger wraps l.
func NewSecurityLogger(l *Logger) *SecurityLogger {
	return &SecurityLogger{Logger: l}
}

// MaskSecret keeps a short fingerprint of a credential so two values can be told apart.
func (sl *SecurityLogger) MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("***#%x", sum[:4])
}

// MaskEndpoint keeps scheme and host of an API endpoint and drops path and query.
func (sl *SecurityLogger) MaskEndpoint(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "endpoint" + sl.MaskSecret(rawURL)
	}
	return u.Scheme + "://" + u.Host
}

// MaskSensitiveData returns a copy of data with credential-like keys masked.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "token"),
			strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "secret"):
			masked[key] = sl.MaskSecret(str)
		case strings.Contains(lowerKey, "endpoint"), strings.Contains(lowerKey, "url"):
			masked[key] = sl.MaskEndpoint(str)
		default:
			masked[key] = value
		}
	}
	return masked
}

// MaskLogMessage hides inline credentials such as "Bearer abc123".
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	return bearerPattern.ReplaceAllString(message, "${1}${2}***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	if fields != nil {
		sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
		return
	}
	sl.Logger.Info(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	maskedFields := sl.MaskSensitiveData(fields)
	maskedFields["error"] = sl.MaskLogMessage(err.Error())
	sl.Logger.WithFields(maskedFields).Error(sl.MaskLogMessage(msg))
}
