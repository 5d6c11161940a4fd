// Package ledger owns the nomination rules: a judge may nominate at most
// model.MaxNominationsPerCategory distinct projects per category and never the
// same project twice in one category.
//
// The checks done here are advisory and exist to answer quickly with a typed
// error. The Store re-evaluates both rules when it commits, so two concurrent
// calls that both pass the pre-check still cannot push a category past the cap.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"nomination_ledger/internal/domain/model"

	"github.com/google/uuid"
)

type Ledger struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a ledger over store. notifier and logger may be nil.
func New(store Store, notifier Notifier, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Nominate records judge's vote for projectCode in categoryID.
func (l *Ledger) Nominate(ctx context.Context, judge model.Judge, categoryID int, projectCode string) (model.Nomination, error) {
	code := strings.TrimSpace(projectCode)
	if strings.TrimSpace(judge.ID) == "" {
		return model.Nomination{}, validationf("judge is required")
	}
	if code == "" {
		return model.Nomination{}, validationf("project code is required")
	}
	if categoryID <= 0 {
		return model.Nomination{}, validationf("category is required")
	}

	category, err := l.store.GetCategory(ctx, categoryID)
	if err != nil {
		return model.Nomination{}, err
	}

	already, err := l.store.HasNominated(ctx, judge.ID, categoryID, code)
	if err != nil {
		return model.Nomination{}, err
	}
	if already {
		return model.Nomination{}, ErrDuplicateProject
	}
	count, err := l.store.CountInCategory(ctx, judge.ID, categoryID)
	if err != nil {
		return model.Nomination{}, err
	}
	if count >= model.MaxNominationsPerCategory {
		return model.Nomination{}, ErrCategoryFull
	}

	n := model.Nomination{
		ID:          uuid.NewString(),
		JudgeID:     judge.ID,
		CategoryID:  categoryID,
		ProjectCode: code,
		CreatedAt:   l.now().UTC(),
	}
	if err := l.store.InsertNomination(ctx, n); err != nil {
		// Expected under races between tabs: the store caught what the
		// pre-check could not.
		l.logger.Warn("nomination rejected by store",
			"event", "ledger_nominate_rejected",
			"judge_id", judge.ID,
			"category_id", categoryID,
			"project_code", code,
			"kind", KindOf(err).String(),
			"error", err.Error(),
		)
		return model.Nomination{}, err
	}

	l.logger.Info("nomination created",
		"event", "ledger_nomination_created",
		"nomination_id", n.ID,
		"judge_id", judge.ID,
		"category_id", categoryID,
		"project_code", code,
	)
	l.publish(ctx, model.ChangeEvent{
		Type:         model.ChangeInsert,
		Nomination:   n,
		JudgeName:    judge.DisplayName,
		CategoryName: category.Name,
		Grade:        category.Grade,
	})
	return n, nil
}

// Remove deletes one of judgeID's own nominations. A nomination that does not
// exist and one owned by another judge both yield ErrNotFound.
func (l *Ledger) Remove(ctx context.Context, judgeID, nominationID string) error {
	if strings.TrimSpace(judgeID) == "" || strings.TrimSpace(nominationID) == "" {
		return ErrNotFound
	}
	removed, err := l.store.DeleteNomination(ctx, judgeID, strings.TrimSpace(nominationID))
	if err != nil {
		return err
	}
	l.removed(ctx, removed)
	return nil
}

// RemoveProject deletes judgeID's nomination of projectCode in categoryID.
func (l *Ledger) RemoveProject(ctx context.Context, judgeID string, categoryID int, projectCode string) error {
	code := strings.TrimSpace(projectCode)
	if strings.TrimSpace(judgeID) == "" || code == "" || categoryID <= 0 {
		return ErrNotFound
	}
	removed, err := l.store.DeleteProject(ctx, judgeID, categoryID, code)
	if err != nil {
		return err
	}
	l.removed(ctx, removed)
	return nil
}

func (l *Ledger) removed(ctx context.Context, n model.Nomination) {
	l.logger.Info("nomination removed",
		"event", "ledger_nomination_removed",
		"nomination_id", n.ID,
		"judge_id", n.JudgeID,
		"category_id", n.CategoryID,
		"project_code", n.ProjectCode,
	)
	l.publish(ctx, model.ChangeEvent{Type: model.ChangeDelete, Nomination: n})
}

func (l *Ledger) CountInCategory(ctx context.Context, judgeID string, categoryID int) (int, error) {
	return l.store.CountInCategory(ctx, judgeID, categoryID)
}

func (l *Ledger) HasNominated(ctx context.Context, judgeID string, categoryID int, projectCode string) (bool, error) {
	code := strings.TrimSpace(projectCode)
	if code == "" {
		return false, nil
	}
	return l.store.HasNominated(ctx, judgeID, categoryID, code)
}

// Nominations lists judgeID's nominations, newest first.
func (l *Ledger) Nominations(ctx context.Context, judgeID string) ([]model.NominationDetail, error) {
	return l.store.ListByJudge(ctx, judgeID)
}

// Summary returns one entry per category, in category order, with the judge's
// project codes in the order they were nominated.
func (l *Ledger) Summary(ctx context.Context, judgeID string) ([]model.CategorySummary, error) {
	categories, err := l.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := l.store.ListByJudge(ctx, judgeID)
	if err != nil {
		return nil, err
	}

	codes := make(map[int][]string, len(categories))
	for i := len(rows) - 1; i >= 0; i-- {
		codes[rows[i].CategoryID] = append(codes[rows[i].CategoryID], rows[i].ProjectCode)
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	summary := make([]model.CategorySummary, 0, len(categories))
	for _, c := range categories {
		projectCodes := codes[c.ID]
		if projectCodes == nil {
			projectCodes = []string{}
		}
		summary = append(summary, model.CategorySummary{
			CategoryID:       c.ID,
			CategoryName:     c.Name,
			Grade:            c.Grade,
			TotalNominations: len(projectCodes),
			ProjectCodes:     projectCodes,
		})
	}
	return summary, nil
}

// Stats folds Summary into the dashboard counters.
func (l *Ledger) Stats(ctx context.Context, judgeID string) (model.JudgeStats, error) {
	summary, err := l.Summary(ctx, judgeID)
	if err != nil {
		return model.JudgeStats{}, err
	}
	return StatsFromSummary(summary), nil
}

func StatsFromSummary(summary []model.CategorySummary) model.JudgeStats {
	stats := model.JudgeStats{
		TotalCategories: len(summary),
		TotalSlots:      len(summary) * model.MaxNominationsPerCategory,
	}
	for _, s := range summary {
		stats.TotalNominations += s.TotalNominations
		if s.TotalNominations >= model.MaxNominationsPerCategory {
			stats.CategoriesCompleted++
		}
	}
	stats.RemainingSlots = stats.TotalSlots - stats.TotalNominations
	return stats
}

func (l *Ledger) publish(ctx context.Context, ev model.ChangeEvent) {
	if l.notifier == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = l.now().UTC()
	if err := l.notifier.Publish(ctx, ev); err != nil {
		l.logger.Error("change event publish failed",
			"event", "ledger_publish_failed",
			"change_type", string(ev.Type),
			"nomination_id", ev.Nomination.ID,
			"error", err.Error(),
		)
	}
}
