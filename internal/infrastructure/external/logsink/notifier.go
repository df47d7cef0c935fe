// Package logsink delivers notifications to the application log when no
// messaging backend is configured.
package logsink

import (
	"context"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// Notifier writes each notification as a structured log entry
type Notifier struct {
	logger *zap.Logger
}

// NewNotifier creates a log-backed notifier
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Notify logs the message for the recipient
func (n *Notifier) Notify(ctx context.Context, recipient *entity.User, message string) error {
	n.logger.Info("Notification",
		zap.String("user_id", recipient.ID),
		zap.String("user_name", recipient.Name),
		zap.String("role", recipient.Role),
		zap.String("message", message))
	return nil
}

var _ port.Notifier = (*Notifier)(nil)
