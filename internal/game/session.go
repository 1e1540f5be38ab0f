package game

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"jeopardy-service/internal/domain"

	"github.com/google/uuid"
)

// IdentityStore answers "who is this connection" by network address.
// Implementations are safe for concurrent use. Entries have a bounded
// lifetime, so a lookup miss after a successful Remember is a legitimate
// outcome and must be reported as a miss, never as an error.
type IdentityStore interface {
	Remember(ctx context.Context, addr, name string) error
	Lookup(ctx context.Context, addr string) (string, bool, error)
	Forget(ctx context.Context, addr string) error
	Clear(ctx context.Context) error
}

// BoardLoader supplies the initial question board (file, Postgres, ...).
type BoardLoader interface {
	LoadBoard(ctx context.Context) (domain.Board, error)
}

var validName = regexp.MustCompile(`^[0-9a-zA-Z_-]+$`)

// Session is the process-wide game: board content, player registry, active
// player pointer, status and buzz order, all guarded by one RWMutex. It is
// created once at startup from a loaded board and shared by every request
// handler.
type Session struct {
	identities IdentityStore
	now        func() time.Time

	mu      sync.RWMutex
	catalog domain.Board // pristine copy, used by Reset
	board   domain.Board
	players []*domain.Player
	active  int
	status  domain.Status
	buzzes  []domain.BuzzEvent
}

func NewSession(board domain.Board, identities IdentityStore) *Session {
	return NewSessionWithClock(board, identities, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(board domain.Board, identities IdentityStore, now func() time.Time) *Session {
	return &Session{
		identities: identities,
		now:        now,
		catalog:    board.Clone(),
		board:      board.Clone(),
	}
}

// Register signs a contestant up while the game is open for registration.
// Re-registering from the same address under a new name remaps the identity
// cache but appends a second registry entry; the registry is append-only.
func (s *Session) Register(ctx context.Context, addr, name string) error {
	// The closed-game error takes precedence over everything else, and the
	// pre-check keeps that common path away from the identity store.
	s.mu.RLock()
	open := s.status == domain.StatusRegistration
	s.mu.RUnlock()
	if !open {
		return domain.ErrGameNotJoinable
	}
	if !validName.MatchString(name) {
		return domain.ErrInvalidName
	}
	if addr == "" {
		return domain.ErrIdentityUnavailable
	}

	// Identity store writes may hit the network, so they stay outside the
	// session lock.
	if err := s.identities.Remember(ctx, addr, name); err != nil {
		return fmt.Errorf("remember identity: %w", err)
	}

	player := &domain.Player{ID: uuid.NewString(), Name: name}
	s.mu.Lock()
	if s.status != domain.StatusRegistration {
		s.mu.Unlock()
		// The game started while the mapping was being written. Undo it,
		// otherwise the rejected contestant could still buzz.
		if err := s.identities.Forget(ctx, addr); err != nil {
			return fmt.Errorf("forget identity: %w", err)
		}
		return domain.ErrGameNotJoinable
	}
	s.players = append(s.players, player)
	s.mu.Unlock()

	log.Printf("%s registered using name %q as player %s", addr, name, player.ID)
	return nil
}

// Buzz resolves the caller's identity and records the buzz in arrival
// order. The admin resolves contention by looking at the recorded order.
func (s *Session) Buzz(ctx context.Context, addr string) (string, error) {
	if addr == "" {
		return "", domain.ErrIdentityUnavailable
	}
	name, ok, err := s.identities.Lookup(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("lookup identity: %w", err)
	}
	if !ok {
		return "", domain.ErrNotRegistered
	}

	s.mu.Lock()
	s.buzzes = append(s.buzzes, domain.BuzzEvent{Player: name, At: s.now()})
	s.mu.Unlock()

	log.Printf("%s buzzed", name)
	return name, nil
}

// Reveal returns the display projection of an answer. It has no side
// effect beyond the read.
func (s *Session) Reveal(cat, ans int) (domain.AnswerView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answer, err := s.answerAt(cat, ans)
	if err != nil {
		return domain.AnswerView{}, err
	}
	return domain.AnswerView{
		Category:      s.board.Categories[cat].Name,
		CategoryIndex: cat,
		AnswerIndex:   ans,
		Task:          answer.Task,
		Points:        answer.Points,
		Double:        answer.Double,
	}, nil
}

// Grade applies a rating to the active player for the given answer: the
// score delta and the try record are written in one exclusive section,
// using the point value as it stands right now. Grading is never
// idempotent; a second call scores and records a second time.
//
// An out-of-range active pointer is tolerated: no score changes, and the
// try is recorded under a synthesized placeholder name.
func (s *Session) Grade(cat, ans int, rating domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.answerAt(cat, ans)
	if err != nil {
		return err
	}

	points := answer.Points
	var name string
	if s.active >= 0 && s.active < len(s.players) {
		player := s.players[s.active]
		switch rating {
		case domain.RatingPositive:
			player.Score += points
		case domain.RatingNegative:
			player.Score -= points
		}
		name = player.Name
	} else {
		name = fmt.Sprintf("UNKNOWN No.%d", s.active+1)
	}

	answer.Tries = append(answer.Tries, domain.Try{Player: name, Result: outcomeFor(rating, points)})
	return nil
}

func outcomeFor(rating domain.Rating, points int) domain.Outcome {
	switch rating {
	case domain.RatingPositive:
		return domain.Outcome{Kind: domain.OutcomeCorrect, Points: points}
	case domain.RatingNegative:
		return domain.Outcome{Kind: domain.OutcomeIncorrect, Points: points}
	}
	return domain.Outcome{Kind: domain.OutcomeNeutral}
}

// SetAnswerValue overwrites the stored point value for future reveals and
// gradings, e.g. for wager-style double answers.
func (s *Session) SetAnswerValue(cat, ans, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.answerAt(cat, ans)
	if err != nil {
		return err
	}
	answer.Points = points
	return nil
}

// SetStatus maps the admin's integer code to a status. Repeating the same
// code is a no-op; switching into the buzzer round starts a fresh buzz
// order.
func (s *Session) SetStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.StatusFromCode(code)
	if next == s.status {
		return
	}
	s.status = next
	if next == domain.StatusBuzzerActive {
		s.buzzes = nil
	}
}

// Status returns the current session status.
func (s *Session) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SelectPlayer unconditionally points grading at a registry index. An
// out-of-range index is tolerated; Grade handles it defensively.
func (s *Session) SelectPlayer(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = idx
}

// ClearBuzzes drops the recorded buzz order.
func (s *Session) ClearBuzzes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buzzes = nil
}

// Reset restores the board to the original catalog, kicks all players,
// forgets all identities and reopens registration.
func (s *Session) Reset(ctx context.Context) error {
	// Identity store I/O stays outside the session lock.
	if err := s.identities.Clear(ctx); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = s.catalog.Clone()
	s.players = nil
	s.buzzes = nil
	s.active = 0
	s.status = domain.StatusRegistration
	return nil
}

// AdminSnapshot projects the whole session for the admin page: per-answer
// cells (point value, or try lines once graded), player score lines, the
// status code, the active index and the buzz order.
func (s *Session) AdminSnapshot() domain.AdminView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := domain.AdminView{
		Status:       s.status.Code(),
		ActivePlayer: s.active,
	}
	for _, category := range s.board.Categories {
		cv := domain.CategoryView{Name: category.Name}
		for _, answer := range category.Answers {
			if len(answer.Tries) == 0 {
				cv.Cells = append(cv.Cells, []string{domain.PointsCell(answer.Points)})
				continue
			}
			lines := make([]string, 0, len(answer.Tries))
			for _, try := range answer.Tries {
				lines = append(lines, try.Line())
			}
			cv.Cells = append(cv.Cells, lines)
		}
		view.Categories = append(view.Categories, cv)
	}
	for _, player := range s.players {
		view.Players = append(view.Players, domain.PlayerView{
			ID:   player.ID,
			Line: fmt.Sprintf("%s: %d", player.Name, player.Score),
		})
	}
	for _, buzz := range s.buzzes {
		view.Buzzes = append(view.Buzzes, fmt.Sprintf("%s at %s", buzz.Player, buzz.At.Format("15:04:05.000")))
	}
	return view
}

// answerAt validates indices against current bounds. Callers hold s.mu.
func (s *Session) answerAt(cat, ans int) (*domain.Answer, error) {
	if cat < 0 || cat >= len(s.board.Categories) {
		return nil, domain.ErrIndexOutOfRange
	}
	category := &s.board.Categories[cat]
	if ans < 0 || ans >= len(category.Answers) {
		return nil, domain.ErrIndexOutOfRange
	}
	return &category.Answers[ans], nil
}
