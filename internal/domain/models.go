package domain

import "time"

// Difficulty is informational only; it never gates engine logic beyond filtering.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the catalog difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is an immutable catalog entry.
type Question struct {
	ID               string     `json:"id" yaml:"id"`
	Scenario         string     `json:"scenario" yaml:"scenario"`
	Prompt           string     `json:"prompt" yaml:"prompt"`
	Explanation      string     `json:"explanation" yaml:"explanation"`
	Options          []string   `json:"options" yaml:"options"`
	CorrectIndex     int        `json:"correctIndex" yaml:"correct_index"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds" yaml:"time_limit_seconds"`
	RelatedConcepts  []string   `json:"relatedConcepts,omitempty" yaml:"related_concepts"`
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	return q.Options[q.CorrectIndex]
}

// Catalog is the static question bank.
type Catalog struct {
	ID        string     `json:"id" yaml:"id"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Filter returns the catalog-order questions with the given difficulty, or every question for DifficultyAny.
func (c Catalog) Filter(d Difficulty) []Question {
	out := make([]Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		if d == DifficultyAny || q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out
}

// Get looks up a question by id.
func (c Catalog) Get(id string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// ShuffledQuestion is a per-session presentation of a catalog question.
// Options[CorrectIndex] always equals the original correct option text.
type ShuffledQuestion struct {
	ID               string     `json:"id"`
	Scenario         string     `json:"scenario"`
	Prompt           string     `json:"prompt"`
	Explanation      string     `json:"explanation"`
	Options          []string   `json:"options"`
	CorrectIndex     int        `json:"-"`
	OriginalIndex    []int      `json:"-"` // OriginalIndex[i] is the catalog position of Options[i]
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	RelatedConcepts  []string   `json:"relatedConcepts,omitempty"`
}

// SessionState is the controller state machine position.
type SessionState string

const (
	StateReady           SessionState = "ready"
	StateAwaitingAnswer  SessionState = "awaiting_answer"
	StateShowingFeedback SessionState = "showing_feedback"
	StateComplete        SessionState = "complete"
)

// AnsweredState describes the current question's resolution.
type AnsweredState string

const (
	Unanswered        AnsweredState = "unanswered"
	AnsweredCorrect   AnsweredState = "answered_correct"
	AnsweredIncorrect AnsweredState = "answered_incorrect"
	TimedOut          AnsweredState = "timed_out"
)

// NoSelection is the option index recorded when the countdown expires.
const NoSelection = -1

// QuestionView is what the renderer may show for the current question.
// CorrectIndex and Explanation are only populated once the question is resolved.
type QuestionView struct {
	ID               string     `json:"id"`
	Scenario         string     `json:"scenario"`
	Prompt           string     `json:"prompt"`
	Options          []string   `json:"options"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	RelatedConcepts  []string   `json:"relatedConcepts,omitempty"`
	CorrectIndex     *int       `json:"correctIndex,omitempty"`
	Explanation      string     `json:"explanation,omitempty"`
}

// Snapshot is the read-only session view handed to the renderer.
type Snapshot struct {
	State         SessionState  `json:"state"`
	Question      *QuestionView `json:"question,omitempty"`
	CurrentIndex  int           `json:"currentIndex"`
	Total         int           `json:"total"`
	Score         int           `json:"score"`
	Points        int           `json:"points"`
	Bonus         int           `json:"bonus"`
	TimeRemaining int           `json:"timeRemaining"`
	AnsweredState AnsweredState `json:"answeredState"`
	SelectedIndex *int          `json:"selectedIndex,omitempty"`
	LastAwarded   int           `json:"lastAwarded"`
	Report        *Report       `json:"report,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
}

// Report is emitted exactly once when a session completes.
type Report struct {
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	Bonus          int    `json:"bonus"`
	Points         int    `json:"points"`
	Variant        string `json:"variant"`
	Rank           string `json:"rank"`
	Ending         string `json:"ending"`
}
