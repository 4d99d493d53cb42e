// filepath: internal/audit/logger_auditor.go
package audit

import (
	"context"

	"backuphub/internal/logging"
	"backuphub/internal/services"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var _ services.Auditor = (*LoggerAuditor)(nil)

// LoggerAuditor writes audit events as structured log entries.
type LoggerAuditor struct {
	enabled bool
	logger  *logrus.Logger
}

// NewLoggerAuditor creates a new instance of LoggerAuditor. A nil logger
// uses the application log.
func NewLoggerAuditor(enabled bool, logger *logrus.Logger) *LoggerAuditor {
	return &LoggerAuditor{enabled: enabled, logger: logger}
}

// Log records an event if auditing is enabled.
func (a *LoggerAuditor) Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{}) {
	if !a.enabled {
		return
	}
	logger := a.logger
	if logger == nil {
		logger = logging.Log
	}

	fields := logrus.Fields{
		"audit_id":       ulid.Make().String(),
		"audit_action":   action,
		"audit_actor":    actor,
		"audit_resource": resource,
	}
	for k, v := range details {
		fields["detail."+k] = v
	}

	// Fixed message so audit lines are easy to grep.
	logger.WithContext(ctx).WithFields(fields).Info("AUDIT EVENT")
}
