package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/common/security"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
	"nomination_ledger/internal/ledger"
	"nomination_ledger/internal/platform/database"
	"nomination_ledger/internal/session"
)

type fixture struct {
	judges      repository.JudgeRepository
	categories  repository.CategoryRepository
	nominations *repository.NominationRepository
	sessions    *session.MemoryStore
	auth        *AuthService
	metrics     *MetricsService
	ledger      *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.SQLite, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db, database.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	security.InitJWT([]byte("test-secret"))

	f := &fixture{
		judges:      repository.NewJudgeRepository(db),
		categories:  repository.NewCategoryRepository(db),
		nominations: repository.NewNominationRepository(db, database.SQLite),
		sessions:    session.NewMemoryStore(),
	}
	if err := f.categories.Seed(ctx, model.DefaultCategories()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.auth = NewAuthService(f.judges, f.sessions, time.Hour, nil)
	f.metrics = NewMetricsService(f.judges, f.categories, f.nominations, 15, nil)
	f.ledger = ledger.New(f.nominations, nil, nil)
	return f
}

func TestLoginTwiceKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Login(ctx, LoginRequest{Username: "mrivera", DisplayName: "Marta"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := f.auth.Login(ctx, LoginRequest{Username: "mrivera", DisplayName: "Marta Rivera"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if first.Judge.ID != second.Judge.ID {
		t.Fatalf("expected same judge, got %s and %s", first.Judge.ID, second.Judge.ID)
	}
	if second.Judge.DisplayName != "Marta Rivera" {
		t.Fatalf("display name not updated: %q", second.Judge.DisplayName)
	}
	if first.Token == "" || first.Token == second.Token {
		t.Fatal("each login should issue its own token")
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, LoginRequest{Username: "ana", DisplayName: "Ana"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	decoded, err := security.TokenAuth.Decode(resp.Token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := decoded.AsMap(ctx)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	sid, err := security.GetSessionIDFromClaims(claims)
	if err != nil {
		t.Fatalf("sid: %v", err)
	}

	sess, err := f.auth.Session(ctx, sid)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.Judge.ID != resp.Judge.ID {
		t.Fatalf("session judge %s, want %s", sess.Judge.ID, resp.Judge.ID)
	}

	if err := f.auth.Logout(ctx, sid); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.auth.Session(ctx, sid); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestLoginRequiresUsername(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), LoginRequest{DisplayName: "No Name"})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMetricsRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana, _ := f.judges.LoginOrCreate(ctx, "ana", "Ana")
	ben, _ := f.judges.LoginOrCreate(ctx, "ben", "Ben")
	for _, n := range []struct {
		judge *model.Judge
		cat   int
		code  string
	}{
		{ana, 1, "P1"}, {ben, 1, "P1"}, {ana, 1, "P2"}, {ben, 3, "T1"},
	} {
		if _, err := f.ledger.Nominate(ctx, *n.judge, n.cat, n.code); err != nil {
			t.Fatalf("nominate: %v", err)
		}
	}

	snap, err := f.metrics.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap.Global != (model.GlobalStats{TotalJudges: 2, TotalVotes: 4, TotalProjects: 3}) {
		t.Fatalf("unexpected global stats %+v", snap.Global)
	}
	if len(snap.Categories) != 6 || snap.Categories[0].VotingJudges != 2 {
		t.Fatalf("unexpected category metrics %+v", snap.Categories)
	}
	if len(snap.TopProjects) != 2 || snap.TopProjects[0].Projects[0].ProjectCode != "P1" || snap.TopProjects[0].Projects[0].Votes != 2 {
		t.Fatalf("unexpected top projects %+v", snap.TopProjects)
	}
	if len(snap.Activity) != 4 || snap.Activity[0].ProjectCode != "T1" {
		t.Fatalf("unexpected activity %+v", snap.Activity)
	}

	current, err := f.metrics.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if !current.GeneratedAt.Equal(snap.GeneratedAt) {
		t.Fatal("current should return the cached snapshot")
	}

	activity, err := f.metrics.Activity(ctx, 2)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("expected 2 activity rows, got %d", len(activity))
	}
}

func TestMetricsRefreshLatestWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.metrics.now = func() time.Time { return clock }

	newer, err := f.metrics.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// A refresh that started earlier must not replace the newer snapshot.
	clock = clock.Add(-time.Minute)
	older, err := f.metrics.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !older.GeneratedAt.Equal(newer.GeneratedAt) {
		t.Fatalf("stale refresh replaced snapshot: %s", older.GeneratedAt)
	}
}
