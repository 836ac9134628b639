package detections

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for detection domain operations.
type System interface {
	Handler() *Handler

	// Create runs the upload pipeline and stores the resulting record.
	Create(ctx context.Context, cmd CreateCommand) (*Record, error)
	// Insert appends one row.
	Insert(ctx context.Context, rec Record) error
	// ListAll returns every row, newest timestamp first.
	ListAll(ctx context.Context) ([]Record, error)
	Find(ctx context.Context, id uuid.UUID) (*Record, error)
}
