package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/game"
	"jeopardy-service/internal/infra/memory"
)

func TestRegistrationGatedByStatus(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	if err := session.Register(ctx, "10.0.0.1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	session.SetStatus(1)
	if err := session.Register(ctx, "10.0.0.2", "Bob"); !errors.Is(err, domain.ErrGameNotJoinable) {
		t.Fatalf("expected game not joinable, got %v", err)
	}

	session.SetStatus(0)
	if err := session.Register(ctx, "10.0.0.2", "Bob"); err != nil {
		t.Fatalf("register after reopening: %v", err)
	}

	players := session.AdminSnapshot().Players
	if len(players) != 2 || players[0].Line != "Alice: 0" || players[1].Line != "Bob: 0" {
		t.Fatalf("unexpected registry: %v", players)
	}
}

func TestClosedGameWinsOverInvalidName(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()
	session.SetStatus(1)

	// Once the buzzer round is on, a bad name still reads as "game has
	// already started", not as a name complaint.
	if err := session.Register(ctx, "10.0.0.1", "two words"); !errors.Is(err, domain.ErrGameNotJoinable) {
		t.Fatalf("expected game not joinable, got %v", err)
	}
	if err := session.Register(ctx, "", "Alice"); !errors.Is(err, domain.ErrGameNotJoinable) {
		t.Fatalf("expected game not joinable with missing address, got %v", err)
	}
}

func TestRegisterRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	for _, name := range []string{"", "two words", "späß", "semi;colon"} {
		if err := session.Register(ctx, "10.0.0.1", name); !errors.Is(err, domain.ErrInvalidName) {
			t.Fatalf("name %q: expected invalid name, got %v", name, err)
		}
	}
	if err := session.Register(ctx, "", "Alice"); !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected identity unavailable, got %v", err)
	}
}

func TestReRegistrationAppendsSecondPlayer(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	if err := session.Register(ctx, "10.0.0.1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := session.Register(ctx, "10.0.0.1", "Alice2"); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	players := session.AdminSnapshot().Players
	if len(players) != 2 {
		t.Fatalf("expected two registry entries, got %v", players)
	}

	// Only the identity mapping was overwritten.
	name, err := session.Buzz(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("buzz: %v", err)
	}
	if name != "Alice2" {
		t.Fatalf("expected latest name to buzz, got %q", name)
	}
}

// gameStartingStore flips the session into the buzzer round right after the
// identity mapping is written, so the locked re-check in Register fails.
type gameStartingStore struct {
	game.IdentityStore
	session *game.Session
}

func (s *gameStartingStore) Remember(ctx context.Context, addr, name string) error {
	if err := s.IdentityStore.Remember(ctx, addr, name); err != nil {
		return err
	}
	if s.session != nil {
		s.session.SetStatus(1)
	}
	return nil
}

func TestRegisterUndoesIdentityWhenGameStartsMidway(t *testing.T) {
	ctx := context.Background()
	store := &gameStartingStore{IdentityStore: memory.NewIdentityStore(time.Hour)}
	session := game.NewSessionWithClock(testBoard(), store, time.Now)
	store.session = session

	if err := session.Register(ctx, "10.0.0.1", "Carol"); !errors.Is(err, domain.ErrGameNotJoinable) {
		t.Fatalf("expected game not joinable, got %v", err)
	}
	if players := session.AdminSnapshot().Players; len(players) != 0 {
		t.Fatalf("expected empty registry, got %v", players)
	}
	// The rejected contestant must not keep a working buzzer.
	if _, err := session.Buzz(ctx, "10.0.0.1"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}
}

func TestPlayersGetDistinctIDs(t *testing.T) {
	session := newTestSession()
	mustRegister(t, session, "10.0.0.1", "Alice")
	mustRegister(t, session, "10.0.0.2", "Bob")

	players := session.AdminSnapshot().Players
	if len(players) != 2 {
		t.Fatalf("expected two registry entries, got %v", players)
	}
	if players[0].ID == "" || players[1].ID == "" {
		t.Fatalf("expected assigned IDs, got %+v", players)
	}
	if players[0].ID == players[1].ID {
		t.Fatalf("expected distinct IDs, got %+v", players)
	}
}

func TestBuzzRequiresRegistration(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	if _, err := session.Buzz(ctx, "10.0.0.9"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected not registered, got %v", err)
	}

	// Status does not matter for the buzz lookup.
	session.SetStatus(1)
	if _, err := session.Buzz(ctx, "10.0.0.9"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected not registered while buzzer active, got %v", err)
	}
}

func TestBuzzOrderIsRecorded(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	mustRegister(t, session, "10.0.0.1", "Alice")
	mustRegister(t, session, "10.0.0.2", "Bob")
	session.SetStatus(1)

	if _, err := session.Buzz(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("buzz: %v", err)
	}
	if _, err := session.Buzz(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("buzz: %v", err)
	}

	buzzes := session.AdminSnapshot().Buzzes
	if len(buzzes) != 2 {
		t.Fatalf("expected two buzzes, got %v", buzzes)
	}
	if buzzes[0][:3] != "Bob" {
		t.Fatalf("expected Bob first, got %v", buzzes)
	}

	// Reopening the buzzer round starts a fresh order.
	session.SetStatus(0)
	session.SetStatus(1)
	if buzzes := session.AdminSnapshot().Buzzes; len(buzzes) != 0 {
		t.Fatalf("expected buzz order cleared, got %v", buzzes)
	}
}

func TestGradingScenario(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	mustRegister(t, session, "10.0.0.1", "Alice")
	session.SetStatus(1)
	if err := session.Register(ctx, "10.0.0.2", "Bob"); !errors.Is(err, domain.ErrGameNotJoinable) {
		t.Fatalf("expected game not joinable, got %v", err)
	}

	session.SelectPlayer(0)
	if err := session.Grade(0, 0, domain.RatingPositive); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if players := session.AdminSnapshot().Players; players[0].Line != "Alice: 200" {
		t.Fatalf("expected Alice: 200, got %v", players)
	}

	// Grading is additive, never idempotent.
	if err := session.Grade(0, 0, domain.RatingNegative); err != nil {
		t.Fatalf("grade again: %v", err)
	}
	snapshot := session.AdminSnapshot()
	if snapshot.Players[0].Line != "Alice: 0" {
		t.Fatalf("expected Alice: 0, got %v", snapshot.Players)
	}
	cell := snapshot.Categories[0].Cells[0]
	if len(cell) != 2 {
		t.Fatalf("expected two try lines, got %v", cell)
	}
	if cell[0] != "+ Alice (200)" || cell[1] != "- Alice (200)" {
		t.Fatalf("unexpected try lines: %v", cell)
	}
}

func TestGradeNeutralLeavesScoreUnchanged(t *testing.T) {
	session := newTestSession()
	mustRegister(t, session, "10.0.0.1", "Alice")
	session.SelectPlayer(0)

	if err := session.Grade(0, 1, domain.RatingNeutral); err != nil {
		t.Fatalf("grade: %v", err)
	}
	snapshot := session.AdminSnapshot()
	if snapshot.Players[0].Line != "Alice: 0" {
		t.Fatalf("expected unchanged score, got %v", snapshot.Players)
	}
	if cell := snapshot.Categories[0].Cells[1]; len(cell) != 1 || cell[0] != "0 Alice" {
		t.Fatalf("unexpected neutral try line: %v", cell)
	}
}

func TestGradeWithOutOfRangeActivePlayer(t *testing.T) {
	session := newTestSession()
	mustRegister(t, session, "10.0.0.1", "Alice")

	session.SelectPlayer(5)
	if err := session.Grade(0, 0, domain.RatingPositive); err != nil {
		t.Fatalf("grade: %v", err)
	}

	snapshot := session.AdminSnapshot()
	if snapshot.Players[0].Line != "Alice: 0" {
		t.Fatalf("expected no score change, got %v", snapshot.Players)
	}
	if cell := snapshot.Categories[0].Cells[0]; len(cell) != 1 || cell[0] != "+ UNKNOWN No.6 (200)" {
		t.Fatalf("expected placeholder try, got %v", cell)
	}
}

func TestSetAnswerValueAffectsGrading(t *testing.T) {
	session := newTestSession()
	mustRegister(t, session, "10.0.0.1", "Alice")
	session.SelectPlayer(0)

	if err := session.SetAnswerValue(0, 0, 1000); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := session.Grade(0, 0, domain.RatingPositive); err != nil {
		t.Fatalf("grade: %v", err)
	}

	snapshot := session.AdminSnapshot()
	if snapshot.Players[0].Line != "Alice: 1000" {
		t.Fatalf("expected the overridden value, got %v", snapshot.Players)
	}
	if cell := snapshot.Categories[0].Cells[0]; cell[0] != "+ Alice (1000)" {
		t.Fatalf("expected try recorded at overridden value, got %v", cell)
	}
}

func TestIndexValidation(t *testing.T) {
	session := newTestSession()

	if _, err := session.Reveal(7, 0); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
	if _, err := session.Reveal(0, 7); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
	if err := session.Grade(-1, 0, domain.RatingPositive); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
	if err := session.SetAnswerValue(0, -1, 500); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestRevealHasNoSideEffect(t *testing.T) {
	session := newTestSession()

	view, err := session.Reveal(1, 0)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if view.Category != "Movies" || view.Task.Kind != domain.TaskPicture || view.Points != 300 || !view.Double {
		t.Fatalf("unexpected view: %+v", view)
	}

	snapshot := session.AdminSnapshot()
	for _, category := range snapshot.Categories {
		for _, cell := range category.Cells {
			if len(cell) != 1 {
				t.Fatalf("expected no tries recorded by reveal, got %v", cell)
			}
		}
	}
}

func TestSnapshotCountsMatchGradings(t *testing.T) {
	session := newTestSession()
	mustRegister(t, session, "10.0.0.1", "Alice")
	session.SelectPlayer(0)

	for i := 0; i < 3; i++ {
		if err := session.Grade(0, 0, domain.RatingPositive); err != nil {
			t.Fatalf("grade %d: %v", i, err)
		}
	}

	snapshot := session.AdminSnapshot()
	if got := len(snapshot.Categories[0].Cells[0]); got != 3 {
		t.Fatalf("expected 3 try lines, got %d", got)
	}
	// Ungraded answers still show their point value.
	if cell := snapshot.Categories[0].Cells[1]; len(cell) != 1 || cell[0] != "400" {
		t.Fatalf("expected untouched cell, got %v", cell)
	}
}

func TestResetRestoresEverything(t *testing.T) {
	ctx := context.Background()
	session := newTestSession()

	mustRegister(t, session, "10.0.0.1", "Alice")
	session.SetStatus(1)
	session.SelectPlayer(0)
	if err := session.SetAnswerValue(0, 0, 999); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := session.Grade(0, 0, domain.RatingPositive); err != nil {
		t.Fatalf("grade: %v", err)
	}

	if err := session.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snapshot := session.AdminSnapshot()
	if len(snapshot.Players) != 0 {
		t.Fatalf("expected empty registry, got %v", snapshot.Players)
	}
	if snapshot.Status != 0 || snapshot.ActivePlayer != 0 {
		t.Fatalf("expected registration status and default pointer, got %+v", snapshot)
	}
	if cell := snapshot.Categories[0].Cells[0]; len(cell) != 1 || cell[0] != "200" {
		t.Fatalf("expected catalog value restored, got %v", cell)
	}

	// Identities are forgotten too.
	if _, err := session.Buzz(ctx, "10.0.0.1"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected not registered after reset, got %v", err)
	}
}

func mustRegister(t *testing.T, session *game.Session, addr, name string) {
	t.Helper()
	if err := session.Register(context.Background(), addr, name); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
}

func newTestSession() *game.Session {
	return game.NewSessionWithClock(testBoard(), memory.NewIdentityStore(time.Hour), time.Now)
}

func testBoard() domain.Board {
	return domain.Board{
		Categories: []domain.Category{
			{
				Name: "History",
				Answers: []domain.Answer{
					{Task: domain.Task{Kind: domain.TaskText, Content: "This wall fell in 1989"}, Points: 200},
					{Task: domain.Task{Kind: domain.TaskText, Content: "This year the moon landing happened"}, Points: 400},
				},
			},
			{
				Name: "Movies",
				Answers: []domain.Answer{
					{Task: domain.Task{Kind: domain.TaskPicture, Content: "/static/poster.jpg"}, Points: 300, Double: true},
					{Task: domain.Task{Kind: domain.TaskText, Content: "This droid carries the Death Star plans"}, Points: 500},
				},
			},
		},
	}
}
