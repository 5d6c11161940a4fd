package ledger

import (
	"context"

	"nomination_ledger/internal/domain/model"
)

// Store is the persistence port behind the ledger. Implementations are
// authoritative: InsertNomination must re-check both invariants atomically
// and report violations as ErrDuplicateProject or ErrCategoryFull. Any other
// failure should be wrapped with Transport.
type Store interface {
	GetCategory(ctx context.Context, id int) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	InsertNomination(ctx context.Context, n model.Nomination) error
	// DeleteNomination removes the row only when it belongs to judgeID and
	// returns it; otherwise ErrNotFound.
	DeleteNomination(ctx context.Context, judgeID, nominationID string) (model.Nomination, error)
	DeleteProject(ctx context.Context, judgeID string, categoryID int, projectCode string) (model.Nomination, error)

	CountInCategory(ctx context.Context, judgeID string, categoryID int) (int, error)
	HasNominated(ctx context.Context, judgeID string, categoryID int, projectCode string) (bool, error)
	// ListByJudge returns the judge's nominations, newest first.
	ListByJudge(ctx context.Context, judgeID string) ([]model.NominationDetail, error)
}

// Notifier receives committed writes. Publish failures never undo a write.
type Notifier interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}
