// Package draft persists song drafts and keeps the placement stores of drafts
// being edited.
package draft

import (
	"context"
	"errors"

	"github.com/jsphweid/chordpad/model"
)

var ErrNotFound = errors.New("draft not found")

// Repository is where drafts are saved when the user (or the autosaver)
// commits them.
type Repository interface {
	Save(ctx context.Context, d model.Draft) error
	Get(ctx context.Context, id string) (model.Draft, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.DraftSummary, error)
}
