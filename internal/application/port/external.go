package port

import (
	"context"
	"fmt"

	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
)

// ErrUnreadableTemplate is returned by a Renderer when the template bytes are
// not a file of its format.
var ErrUnreadableTemplate = fmt.Errorf("%w: template is not readable", workflow.ErrInvalidInput)

// Renderer binds document field values into a template and returns the artifact bytes
type Renderer interface {
	Render(ctx context.Context, template []byte, values map[string]string) ([]byte, error)

	// Extension is the file extension of rendered artifacts, including the dot
	Extension() string
}

// Notifier delivers a plain text message to a user
type Notifier interface {
	Notify(ctx context.Context, recipient *entity.User, message string) error
}
