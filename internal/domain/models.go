package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TaskKind discriminates the two clue payload variants.
type TaskKind string

const (
	TaskText    TaskKind = "text"
	TaskPicture TaskKind = "picture"
)

// Task is the clue shown when an answer is revealed: either plain text or
// a picture URL. In JSON it is written as {"text": "..."} or
// {"picture": "..."} with exactly one key present.
type Task struct {
	Kind    TaskKind
	Content string
}

func (t Task) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TaskText:
		return json.Marshal(map[string]string{"text": t.Content})
	case TaskPicture:
		return json.Marshal(map[string]string{"picture": t.Content})
	}
	return nil, fmt.Errorf("unknown task kind %q", t.Kind)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	text, hasText := raw["text"]
	picture, hasPicture := raw["picture"]
	switch {
	case hasText && hasPicture:
		return errors.New("task must have either a text or a picture, not both")
	case hasText:
		*t = Task{Kind: TaskText, Content: text}
	case hasPicture:
		*t = Task{Kind: TaskPicture, Content: picture}
	default:
		return errors.New("task must have a text or a picture")
	}
	return nil
}

// OutcomeKind mirrors the rating a try was graded with.
type OutcomeKind string

const (
	OutcomeCorrect   OutcomeKind = "correct"
	OutcomeIncorrect OutcomeKind = "incorrect"
	OutcomeNeutral   OutcomeKind = "neutral"
)

// Outcome records how a try went and how many points were at stake when it
// was graded. Points is meaningless for neutral outcomes.
type Outcome struct {
	Kind   OutcomeKind
	Points int
}

// Try is one recorded grading event against an answer. Player is a name
// snapshot, not a live reference, so history survives later changes to the
// registry.
type Try struct {
	Player string
	Result Outcome
}

// Line renders a try the way the admin board shows it:
// "+ name (points)", "- name (points)" or "0 name".
func (t Try) Line() string {
	switch t.Result.Kind {
	case OutcomeCorrect:
		return fmt.Sprintf("+ %s (%d)", t.Player, t.Result.Points)
	case OutcomeIncorrect:
		return fmt.Sprintf("- %s (%d)", t.Player, t.Result.Points)
	}
	return "0 " + t.Player
}

// Answer is one cell of the board. Points is mutable so the admin can
// override the catalog value for wager-style answers; Tries starts empty
// and is append-only.
type Answer struct {
	Task   Task  `json:"task"`
	Points int   `json:"points"`
	Double bool  `json:"double"`
	Tries  []Try `json:"-"`
}

// Category is a named column of answers.
type Category struct {
	Name    string   `json:"name"`
	Answers []Answer `json:"answers"`
}

// Board is the category/answer catalog for one game.
type Board struct {
	Categories []Category `json:"categories"`
}

// Clone deep-copies the board, including recorded tries.
func (b Board) Clone() Board {
	clone := Board{Categories: make([]Category, len(b.Categories))}
	for i, category := range b.Categories {
		answers := make([]Answer, len(category.Answers))
		for j, answer := range category.Answers {
			copied := answer
			copied.Tries = append([]Try(nil), answer.Tries...)
			answers[j] = copied
		}
		clone.Categories[i] = Category{Name: category.Name, Answers: answers}
	}
	return clone
}

// Validate checks the invariants a freshly loaded board must satisfy.
func (b Board) Validate() error {
	if len(b.Categories) == 0 {
		return errors.New("board has no categories")
	}
	for i, category := range b.Categories {
		if category.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if len(category.Answers) == 0 {
			return fmt.Errorf("category %q has no answers", category.Name)
		}
		for j, answer := range category.Answers {
			if answer.Task.Kind != TaskText && answer.Task.Kind != TaskPicture {
				return fmt.Errorf("category %q answer %d has no task", category.Name, j)
			}
			if answer.Points < 0 {
				return fmt.Errorf("category %q answer %d has negative points", category.Name, j)
			}
		}
	}
	return nil
}

// Player is a registered contestant. ID is an opaque identifier assigned at
// registration; Name is immutable afterwards; Score may go negative.
type Player struct {
	ID    string
	Name  string
	Score int
}

// Rating is the admin's verdict on the active player's answer.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
	RatingNeutral  Rating = "neutral"
)

// ParseRating maps the query-string form of a rating to the enum.
func ParseRating(raw string) (Rating, bool) {
	switch Rating(raw) {
	case RatingPositive, RatingNegative, RatingNeutral:
		return Rating(raw), true
	}
	return "", false
}

// Status gates which contestant actions are legal at a given moment.
type Status int

const (
	// StatusRegistration accepts contestant signups; buzzing is not meaningful.
	StatusRegistration Status = iota
	// StatusBuzzerActive rejects signups; buzzing is the primary action.
	StatusBuzzerActive
)

// StatusFromCode maps the admin's integer code to a status: 0 means
// registration, anything else means the buzzer round is active.
func StatusFromCode(code int) Status {
	if code == 0 {
		return StatusRegistration
	}
	return StatusBuzzerActive
}

// Code returns the integer form used on the admin surface.
func (s Status) Code() int {
	return int(s)
}

// BuzzEvent is one contestant buzz, in arrival order.
type BuzzEvent struct {
	Player string
	At     time.Time
}

// AnswerView is the read-only projection of a revealed answer handed to the
// rendering layer.
type AnswerView struct {
	Category      string
	CategoryIndex int
	AnswerIndex   int
	Task          Task
	Points        int
	Double        bool
}

// CategoryView is one board column as the admin page shows it. Each cell is
// a list of display lines: the point value while the answer is ungraded,
// the recorded try lines afterwards.
type CategoryView struct {
	Name  string
	Cells [][]string
}

// PlayerView is one registry entry as the admin page shows it: the opaque
// player ID alongside the "name: score" display line.
type PlayerView struct {
	ID   string
	Line string
}

// AdminView is the full read-only projection of the session for the admin
// page.
type AdminView struct {
	Categories   []CategoryView
	Players      []PlayerView
	Status       int
	ActivePlayer int
	Buzzes       []string
}

// PointsCell formats an ungraded answer's cell content.
func PointsCell(points int) string {
	return strconv.Itoa(points)
}
