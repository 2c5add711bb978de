package utils

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// LogError logs an error with structured data and reports it to Sentry
// when a DSN is configured.
func LogError(err error, message string, fields map[string]interface{}) {
	entry := logrus.WithFields(logrus.Fields(fields))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for k, v := range fields {
				scope.SetExtra(k, v)
			}
			if err != nil {
				hub.CaptureException(err)
			} else {
				hub.CaptureMessage(message)
			}
		})
	}
}

// LogEvent logs a notable event with structured data
func LogEvent(message string, fields map[string]interface{}) {
	logrus.WithFields(logrus.Fields(fields)).Info(message)
}
