package metrics

import (
	"reflect"
	"testing"
	"time"

	"nomination_ledger/internal/domain/model"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func row(judgeID string, categoryID int, code string, offset time.Duration) model.NominationDetail {
	return model.NominationDetail{
		Nomination: model.Nomination{
			ID:          judgeID + "-" + code,
			JudgeID:     judgeID,
			CategoryID:  categoryID,
			ProjectCode: code,
			CreatedAt:   base.Add(offset),
		},
		JudgeName:    "Judge " + judgeID,
		CategoryName: "Cat",
		Grade:        "5th",
	}
}

func TestGlobal(t *testing.T) {
	rows := []model.NominationDetail{
		row("a", 1, "P1", 0),
		row("b", 1, "P1", time.Second),
		row("a", 2, "P1", 2*time.Second),
		row("a", 2, "P2", 3*time.Second),
	}
	got := Global(5, rows)
	want := model.GlobalStats{TotalJudges: 5, TotalVotes: 4, TotalProjects: 2}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestByCategory(t *testing.T) {
	categories := model.DefaultCategories()
	rows := []model.NominationDetail{
		row("a", 1, "P1", 0),
		row("a", 1, "P2", 0),
		row("a", 1, "P3", 0),
		row("b", 1, "P1", 0),
		row("b", 3, "T1", 0),
	}
	got := ByCategory(categories, rows)
	if len(got) != len(categories) {
		t.Fatalf("expected %d entries, got %d", len(categories), len(got))
	}
	if got[0].TotalVotes != 4 || got[0].VotingJudges != 2 || got[0].AveragePerJudge != 2 {
		t.Fatalf("unexpected first category %+v", got[0])
	}
	if got[1].TotalVotes != 0 || got[1].VotingJudges != 0 || got[1].AveragePerJudge != 0 {
		t.Fatalf("expected empty second category, got %+v", got[1])
	}
	if got[2].TotalVotes != 1 || got[2].VotingJudges != 1 {
		t.Fatalf("unexpected third category %+v", got[2])
	}
}

func TestTopProjectsTieBreak(t *testing.T) {
	categories := model.DefaultCategories()
	rows := []model.NominationDetail{
		// Three votes: clear winner.
		row("a", 2, "WIN", 10*time.Second),
		row("b", 2, "WIN", 11*time.Second),
		row("c", 2, "WIN", 12*time.Second),
		// Two votes each; LATE was first nominated after EARLY.
		row("a", 2, "LATE", 5*time.Second),
		row("b", 2, "LATE", 6*time.Second),
		row("c", 2, "EARLY", 2*time.Second),
		row("d", 2, "EARLY", 20*time.Second),
		// One vote each at the same instant: code order decides.
		row("d", 2, "ZED", time.Second),
		row("e", 2, "ALPHA", time.Second),
	}

	top := TopProjects(categories, rows, 3)
	if len(top) != 1 || top[0].CategoryID != 2 {
		t.Fatalf("expected only category 2, got %+v", top)
	}
	var codes []string
	for i, p := range top[0].Projects {
		if p.Rank != i+1 {
			t.Fatalf("rank %d at position %d", p.Rank, i)
		}
		codes = append(codes, p.ProjectCode)
	}
	if want := []string{"WIN", "EARLY", "LATE"}; !reflect.DeepEqual(codes, want) {
		t.Fatalf("got %v, want %v", codes, want)
	}
	if !top[0].Projects[1].FirstNominated.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("unexpected first nominated %s", top[0].Projects[1].FirstNominated)
	}

	single := TopProjects(categories, rows[7:], 3)
	if got := []string{single[0].Projects[0].ProjectCode, single[0].Projects[1].ProjectCode}; !reflect.DeepEqual(got, []string{"ALPHA", "ZED"}) {
		t.Fatalf("expected code order on full tie, got %v", got)
	}
}

func TestTopProjectsIsDeterministic(t *testing.T) {
	categories := model.DefaultCategories()
	rows := []model.NominationDetail{
		row("a", 4, "B", 0),
		row("b", 4, "A", 0),
		row("c", 4, "C", 0),
		row("d", 4, "D", 0),
	}
	first := TopProjects(categories, rows, 3)
	for i := 0; i < 20; i++ {
		if got := TopProjects(categories, rows, 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	if len(first[0].Projects) != 3 {
		t.Fatalf("expected top 3, got %d", len(first[0].Projects))
	}
}

func TestActivity(t *testing.T) {
	rows := []model.NominationDetail{
		row("a", 1, "OLD", 0),
		row("a", 1, "NEW", 10*time.Minute),
		row("b", 2, "MID", 5*time.Minute),
	}
	now := base.Add(15 * time.Minute)

	got := Activity(rows, 2, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ProjectCode != "NEW" || got[1].ProjectCode != "MID" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[0].Relative != "5 minutes ago" {
		t.Fatalf("unexpected relative time %q", got[0].Relative)
	}
	if got[0].JudgeName != "Judge a" {
		t.Fatalf("missing judge name: %+v", got[0])
	}

	if all := Activity(rows, 0, now); len(all) != 3 {
		t.Fatalf("default limit should include all 3 rows, got %d", len(all))
	}
}

func TestSnapshot(t *testing.T) {
	rows := []model.NominationDetail{row("a", 1, "P1", 0)}
	now := base.Add(time.Hour)
	snap := Snapshot(1, model.DefaultCategories(), rows, rows, 15, now)

	if snap.Global.TotalVotes != 1 || len(snap.Categories) != 6 || len(snap.TopProjects) != 1 || len(snap.Activity) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.GeneratedAt.Equal(now) {
		t.Fatalf("generated at %s, want %s", snap.GeneratedAt, now)
	}
}
