// Package metrics derives the dashboard aggregates from raw nomination rows.
// Every function is pure, so the same snapshot comes out no matter which
// trigger asked for it.
package metrics

import (
	"math"
	"sort"
	"time"

	"nomination_ledger/internal/domain/model"

	"github.com/dustin/go-humanize"
)

const (
	TopPerCategory       = 3
	DefaultActivityLimit = 20
)

// Global counts judges, votes and distinct project codes across categories.
func Global(totalJudges int, rows []model.NominationDetail) model.GlobalStats {
	projects := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		projects[r.ProjectCode] = struct{}{}
	}
	return model.GlobalStats{
		TotalJudges:   totalJudges,
		TotalVotes:    len(rows),
		TotalProjects: len(projects),
	}
}

// ByCategory returns one entry per category, including empty ones.
func ByCategory(categories []model.Category, rows []model.NominationDetail) []model.CategoryMetrics {
	votes := make(map[int]int, len(categories))
	voters := make(map[int]map[string]struct{}, len(categories))
	for _, r := range rows {
		votes[r.CategoryID]++
		if voters[r.CategoryID] == nil {
			voters[r.CategoryID] = make(map[string]struct{})
		}
		voters[r.CategoryID][r.JudgeID] = struct{}{}
	}

	out := make([]model.CategoryMetrics, 0, len(categories))
	for _, c := range sortedCategories(categories) {
		m := model.CategoryMetrics{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Grade:        c.Grade,
			TotalVotes:   votes[c.ID],
			VotingJudges: len(voters[c.ID]),
		}
		if m.VotingJudges > 0 {
			m.AveragePerJudge = math.Round(float64(m.TotalVotes)/float64(m.VotingJudges)*10) / 10
		}
		out = append(out, m)
	}
	return out
}

// TopProjects ranks projects inside each category by vote count. Ties go to
// the project nominated first, then to the lower project code. Categories
// without votes are left out.
func TopProjects(categories []model.Category, rows []model.NominationDetail, limit int) []model.CategoryTop {
	if limit <= 0 {
		limit = TopPerCategory
	}
	type tally struct {
		code  string
		votes int
		first time.Time
	}
	byCategory := make(map[int]map[string]*tally)
	for _, r := range rows {
		projects := byCategory[r.CategoryID]
		if projects == nil {
			projects = make(map[string]*tally)
			byCategory[r.CategoryID] = projects
		}
		t := projects[r.ProjectCode]
		if t == nil {
			t = &tally{code: r.ProjectCode, first: r.CreatedAt}
			projects[r.ProjectCode] = t
		}
		t.votes++
		if r.CreatedAt.Before(t.first) {
			t.first = r.CreatedAt
		}
	}

	out := []model.CategoryTop{}
	for _, c := range sortedCategories(categories) {
		projects := byCategory[c.ID]
		if len(projects) == 0 {
			continue
		}
		ranked := make([]*tally, 0, len(projects))
		for _, t := range projects {
			ranked = append(ranked, t)
		}
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			if a.votes != b.votes {
				return a.votes > b.votes
			}
			if !a.first.Equal(b.first) {
				return a.first.Before(b.first)
			}
			return a.code < b.code
		})
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}

		top := model.CategoryTop{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Grade:        c.Grade,
			Projects:     make([]model.TopProject, 0, len(ranked)),
		}
		for i, t := range ranked {
			top.Projects = append(top.Projects, model.TopProject{
				Rank:           i + 1,
				ProjectCode:    t.code,
				Votes:          t.votes,
				FirstNominated: t.first,
			})
		}
		out = append(out, top)
	}
	return out
}

// Activity turns rows into feed entries, newest first, at most limit long.
func Activity(rows []model.NominationDetail, limit int, now time.Time) []model.ActivityEntry {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	sorted := append([]model.NominationDetail(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]model.ActivityEntry, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, model.ActivityEntry{
			NominationID:  r.ID,
			ProjectCode:   r.ProjectCode,
			JudgeName:     r.JudgeName,
			JudgeUsername: r.JudgeUsername,
			CategoryName:  r.CategoryName,
			Grade:         r.Grade,
			CreatedAt:     r.CreatedAt,
			Relative:      humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
		})
	}
	return out
}

// Snapshot assembles all views. recent may be the full row set; Activity
// trims and orders it.
func Snapshot(totalJudges int, categories []model.Category, rows, recent []model.NominationDetail, activityLimit int, now time.Time) model.MetricsSnapshot {
	return model.MetricsSnapshot{
		Global:      Global(totalJudges, rows),
		Categories:  ByCategory(categories, rows),
		TopProjects: TopProjects(categories, rows, TopPerCategory),
		Activity:    Activity(recent, activityLimit, now),
		GeneratedAt: now.UTC(),
	}
}

func sortedCategories(categories []model.Category) []model.Category {
	out := append([]model.Category(nil), categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
