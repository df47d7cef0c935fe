package service

import (
	"context"
	"fmt"

	"github.com/garyjia/doc-approval/internal/application/dispatcher"
	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/event"
)

const notificationHandlerName = "notification"

// NotificationService tells users about document transitions that concern them
type NotificationService interface {
	// Register subscribes the service to the workflow events it reacts to
	Register(d dispatcher.Dispatcher)

	// HandleEvent notifies the users concerned by one event
	HandleEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	userRepo port.UserRepository
	notifier port.Notifier
	recorder Recorder
	logger   Logger
}

// NewNotificationService creates a new NotificationService. recorder may be nil.
func NewNotificationService(userRepo port.UserRepository, notifier port.Notifier, recorder Recorder, logger Logger) NotificationService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &notificationServiceImpl{
		userRepo: userRepo,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

// Register subscribes to submission and completion events
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeMany([]event.Type{
		event.TypeDocumentSubmitted,
		event.TypeDocumentApproved,
		event.TypeDocumentRejected,
	}, notificationHandlerName, s.HandleEvent)
}

// HandleEvent notifies approvers on submission and the author on completion.
// Individual delivery failures are logged and do not stop the remaining sends.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}

	recipients, message, err := s.recipients(ctx, evt)
	if err != nil {
		s.logger.Error("Failed to resolve notification recipients", "error", err, "event_type", evt.Type, "document_id", evt.DocumentID)
		return err
	}

	sent := 0
	for _, user := range recipients {
		if err := s.notifier.Notify(ctx, user, message); err != nil {
			s.recorder.RecordNotification(false)
			s.logger.Error("Failed to send notification", "error", err, "user_id", user.ID, "document_id", evt.DocumentID)
			continue
		}
		s.recorder.RecordNotification(true)
		sent++
	}

	s.logger.Info("Notifications sent",
		"event_type", evt.Type,
		"document_id", evt.DocumentID,
		"recipients", len(recipients),
		"sent", sent,
	)
	return nil
}

func (s *notificationServiceImpl) recipients(ctx context.Context, evt *event.Event) ([]*entity.User, string, error) {
	authorID := evt.GetPayloadString(event.PayloadAuthorID)
	title := evt.GetPayloadString(event.PayloadTitle)

	switch evt.Type {
	case event.TypeDocumentSubmitted:
		roles := evt.GetPayloadStrings(event.PayloadRoles)
		if len(roles) == 0 {
			return nil, "", nil
		}
		users, err := s.userRepo.ListByRoles(ctx, roles)
		if err != nil {
			return nil, "", fmt.Errorf("list users by role: %w", err)
		}
		recipients := make([]*entity.User, 0, len(users))
		for _, u := range users {
			if u.ID != authorID {
				recipients = append(recipients, u)
			}
		}
		return recipients, fmt.Sprintf("Dokumen %s \"%s\" menunggu persetujuan Anda.", evt.DocumentNumber, title), nil

	case event.TypeDocumentApproved, event.TypeDocumentRejected:
		author, err := s.userRepo.GetByID(ctx, authorID)
		if err != nil {
			return nil, "", fmt.Errorf("get author: %w", err)
		}
		if author == nil {
			return nil, "", nil
		}
		message := fmt.Sprintf("Dokumen %s \"%s\" telah disetujui.", evt.DocumentNumber, title)
		if evt.Type == event.TypeDocumentRejected {
			message = fmt.Sprintf("Dokumen %s \"%s\" ditolak: %s", evt.DocumentNumber, title, evt.GetPayloadString(event.PayloadComment))
		}
		return []*entity.User{author}, message, nil
	}

	return nil, "", nil
}
