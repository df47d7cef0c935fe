package dispatcher

import (
	"context"

	"github.com/garyjia/doc-approval/internal/domain/event"
)

// Handler processes document events. Handlers must not mutate workflow state.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}
