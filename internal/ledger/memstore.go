package ledger

import (
	"context"
	"sort"
	"sync"

	"nomination_ledger/internal/domain/model"
)

// MemoryStore is an in-process Store. A single mutex makes every insert a
// check-then-append critical section, which is what the SQL stores get from
// their constraints and triggers.
type MemoryStore struct {
	mu          sync.RWMutex
	categories  map[int]model.Category
	judges      map[string]model.Judge
	nominations []model.Nomination
}

func NewMemoryStore(categories []model.Category) *MemoryStore {
	s := &MemoryStore{
		categories: make(map[int]model.Category, len(categories)),
		judges:     make(map[string]model.Judge),
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

// PutJudge registers judge details used to fill NominationDetail rows.
func (s *MemoryStore) PutJudge(j model.Judge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judges[j.ID] = j
}

func (s *MemoryStore) GetCategory(_ context.Context, id int) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, ErrUnknownCategory
	}
	return c, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) InsertNomination(_ context.Context, n model.Nomination) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[n.CategoryID]; !ok {
		return ErrUnknownCategory
	}
	count := 0
	for _, existing := range s.nominations {
		if existing.JudgeID != n.JudgeID || existing.CategoryID != n.CategoryID {
			continue
		}
		if existing.ProjectCode == n.ProjectCode {
			return ErrDuplicateProject
		}
		count++
	}
	if count >= model.MaxNominationsPerCategory {
		return ErrCategoryFull
	}
	s.nominations = append(s.nominations, n)
	return nil
}

func (s *MemoryStore) DeleteNomination(_ context.Context, judgeID, nominationID string) (model.Nomination, error) {
	return s.deleteWhere(func(n model.Nomination) bool {
		return n.ID == nominationID && n.JudgeID == judgeID
	})
}

func (s *MemoryStore) DeleteProject(_ context.Context, judgeID string, categoryID int, projectCode string) (model.Nomination, error) {
	return s.deleteWhere(func(n model.Nomination) bool {
		return n.JudgeID == judgeID && n.CategoryID == categoryID && n.ProjectCode == projectCode
	})
}

func (s *MemoryStore) deleteWhere(match func(model.Nomination) bool) (model.Nomination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.nominations {
		if match(n) {
			s.nominations = append(s.nominations[:i], s.nominations[i+1:]...)
			return n, nil
		}
	}
	return model.Nomination{}, ErrNotFound
}

func (s *MemoryStore) CountInCategory(_ context.Context, judgeID string, categoryID int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.nominations {
		if n.JudgeID == judgeID && n.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) HasNominated(_ context.Context, judgeID string, categoryID int, projectCode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nominations {
		if n.JudgeID == judgeID && n.CategoryID == categoryID && n.ProjectCode == projectCode {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListByJudge(_ context.Context, judgeID string) ([]model.NominationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.NominationDetail{}
	// Walk backwards so equal timestamps keep newest-inserted first.
	for i := len(s.nominations) - 1; i >= 0; i-- {
		n := s.nominations[i]
		if n.JudgeID != judgeID {
			continue
		}
		c := s.categories[n.CategoryID]
		j := s.judges[n.JudgeID]
		out = append(out, model.NominationDetail{
			Nomination:    n,
			JudgeUsername: j.Username,
			JudgeName:     j.DisplayName,
			CategoryName:  c.Name,
			Grade:         c.Grade,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
