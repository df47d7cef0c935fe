package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// MessageSender is the part of the Lark IM API the messenger needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Messenger implements port.Notifier with Lark text messages addressed by open_id
type Messenger struct {
	sender MessageSender
	logger *zap.Logger
}

// NewMessenger creates a new Lark notifier
func NewMessenger(sender MessageSender, logger *zap.Logger) *Messenger {
	return &Messenger{
		sender: sender,
		logger: logger,
	}
}

// Notify sends a text message to the recipient. Users without a Lark open_id are skipped.
func (m *Messenger) Notify(ctx context.Context, recipient *entity.User, message string) error {
	if recipient == nil {
		return fmt.Errorf("recipient cannot be nil")
	}
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if recipient.LarkOpenID == "" {
		m.logger.Debug("Recipient has no Lark open_id, skipping", zap.String("user_id", recipient.ID))
		return nil
	}

	content, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	messageID, err := m.sender.SendMessage(ctx, "open_id", recipient.LarkOpenID, "text", string(content))
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", recipient.ID, err)
	}

	m.logger.Info("Lark notification sent",
		zap.String("user_id", recipient.ID),
		zap.String("message_id", messageID))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Messenger)(nil)
