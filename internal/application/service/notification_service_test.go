package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/doc-approval/internal/application/dispatcher"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationUsers() *mockUserRepo {
	return &mockUserRepo{users: map[string]*entity.User{
		"usr-staff":   {ID: "usr-staff", Name: "Staff Member", Role: entity.RoleStaff},
		"usr-manager": {ID: "usr-manager", Name: "Manager", Role: entity.RoleManager},
		"usr-ketua":   {ID: "usr-ketua", Name: "Ketua", Role: entity.RoleKetua},
		"usr-ketua-2": {ID: "usr-ketua-2", Name: "Wakil Ketua", Role: entity.RoleKetua},
	}}
}

func TestNotificationService_HandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		evt       *event.Event
		wantUsers []string
		contains  string
	}{
		{
			name: "submission notifies approver roles",
			evt: event.NewEvent(event.TypeDocumentSubmitted, "doc-1", "DOC/2025/001", "usr-staff", map[string]interface{}{
				event.PayloadAuthorID: "usr-staff",
				event.PayloadTitle:    "Memo",
				event.PayloadRoles:    []string{entity.RoleManager, entity.RoleKetua},
			}),
			wantUsers: []string{"usr-manager", "usr-ketua", "usr-ketua-2"},
			contains:  "menunggu persetujuan",
		},
		{
			name: "submission skips the author",
			evt: event.NewEvent(event.TypeDocumentSubmitted, "doc-1", "DOC/2025/001", "usr-manager", map[string]interface{}{
				event.PayloadAuthorID: "usr-manager",
				event.PayloadRoles:    []string{entity.RoleManager},
			}),
			wantUsers: nil,
		},
		{
			name: "approval notifies the author",
			evt: event.NewEvent(event.TypeDocumentApproved, "doc-1", "DOC/2025/001", "usr-ketua", map[string]interface{}{
				event.PayloadAuthorID: "usr-staff",
				event.PayloadTitle:    "Memo",
			}),
			wantUsers: []string{"usr-staff"},
			contains:  "disetujui",
		},
		{
			name: "rejection carries the comment",
			evt: event.NewEvent(event.TypeDocumentRejected, "doc-1", "DOC/2025/001", "usr-manager", map[string]interface{}{
				event.PayloadAuthorID: "usr-staff",
				event.PayloadComment:  "missing budget",
			}),
			wantUsers: []string{"usr-staff"},
			contains:  "missing budget",
		},
		{
			name:      "unrelated event is ignored",
			evt:       event.NewEvent(event.TypeStepApproved, "doc-1", "DOC/2025/001", "usr-manager", nil),
			wantUsers: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			svc := NewNotificationService(notificationUsers(), notifier, nil, &mockLogger{})

			require.NoError(t, svc.HandleEvent(context.Background(), tt.evt))

			got := make([]string, 0, len(notifier.sent))
			for id, msg := range notifier.sent {
				got = append(got, id)
				assert.Contains(t, msg, tt.evt.DocumentNumber)
				if tt.contains != "" {
					assert.Contains(t, msg, tt.contains)
				}
			}
			assert.ElementsMatch(t, tt.wantUsers, got)
		})
	}
}

func TestNotificationService_DeliveryFailureDoesNotStopOthers(t *testing.T) {
	notifier := &mockNotifier{failFor: map[string]bool{"usr-ketua": true}, failWith: errors.New("lark unavailable")}
	recorder := newCountingRecorder()
	svc := NewNotificationService(notificationUsers(), notifier, recorder, &mockLogger{})

	evt := event.NewEvent(event.TypeDocumentSubmitted, "doc-1", "DOC/2025/001", "usr-staff", map[string]interface{}{
		event.PayloadAuthorID: "usr-staff",
		event.PayloadRoles:    []string{entity.RoleKetua},
	})

	require.NoError(t, svc.HandleEvent(context.Background(), evt))
	assert.Contains(t, notifier.sent, "usr-ketua-2")
	assert.Equal(t, 1, recorder.delivered)
	assert.Equal(t, 1, recorder.failed)
}

func TestNotificationService_DirectoryError(t *testing.T) {
	svc := NewNotificationService(&mockUserRepo{err: errors.New("db closed")}, &mockNotifier{}, nil, &mockLogger{})

	evt := event.NewEvent(event.TypeDocumentApproved, "doc-1", "DOC/2025/001", "usr-ketua", map[string]interface{}{
		event.PayloadAuthorID: "usr-staff",
	})
	assert.Error(t, svc.HandleEvent(context.Background(), evt))
	assert.Error(t, svc.HandleEvent(context.Background(), nil))
}

func TestNotificationService_Register(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	svc := NewNotificationService(notificationUsers(), &mockNotifier{}, nil, &mockLogger{})
	svc.Register(d)

	for _, typ := range []event.Type{event.TypeDocumentSubmitted, event.TypeDocumentApproved, event.TypeDocumentRejected} {
		handlers := d.ListHandlers(typ)
		require.Len(t, handlers, 1, "handlers for %s", typ)
		assert.Equal(t, notificationHandlerName, handlers[0].Name)
	}
	assert.Empty(t, d.ListHandlers(event.TypeStepApproved))
}
