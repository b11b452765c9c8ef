package session

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/vocabmaster/quiz-service/internal/models"
)

var (
	ErrEmptyQuestionSet    = errors.New("question set is empty")
	ErrAlreadySubmitted    = errors.New("answer already submitted for current question")
	ErrLifelineAlreadyUsed = errors.New("lifeline already used for current question")
	ErrNotSubmitted        = errors.New("current question not yet submitted")
	ErrSessionComplete     = errors.New("session is on its last question")
	ErrSessionNotComplete  = errors.New("session still has questions remaining")
	ErrSessionFinished     = errors.New("session already finished")
)

type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusSummary    Status = "Summary"
)

// AttemptSink receives one record per answered question. Calls are
// fire-and-forget from the engine's point of view: the sink cannot fail the
// session.
type AttemptSink interface {
	RecordAttempt(category models.QuizCategory, targetWord string, isCorrect bool)
}

// Scoring policy constants. A correct answer is worth
// basePoints + floor(timeRemainingPercent/10) + streakMultiplier*streak,
// with streak counted before its increment. Lifelines cost a flat deduction,
// applied immediately and floored so the total score never goes negative.
const (
	basePoints       = 10
	lifelineCost     = 2
	streakMultiplier = 2
)

// CancelFunc stops a scheduled countdown task.
type CancelFunc func()

// Scheduler runs fn after d and returns a handle that cancels the task.
type Scheduler func(d time.Duration, fn func()) CancelFunc

func realScheduler(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Engine drives one bounded quiz run: question sequencing, answer
// submission, timer-driven auto-submit, scoring and lifelines. It owns its
// state exclusively for the lifetime of the run and is safe for the single
// expected race: the countdown task firing concurrently with a manual
// answer, where the first to reach the submitted state wins.
type Engine struct {
	mu sync.Mutex

	questions []models.Question
	budget    time.Duration
	sink      AttemptSink

	status     Status
	currentIdx int
	selected   string
	submitted  bool
	score      int
	streak     int
	correct    int
	hidden     map[string]struct{}
	hintUsed   bool
	fiftyUsed  bool

	deadline        time.Time
	remainingFrozen float64
	cancelCountdown CancelFunc

	now      func() time.Time
	rng      *rand.Rand
	schedule Scheduler
}

type Option func(*Engine)

// WithClock replaces the wall clock, used by tests to control the speed bonus.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand replaces the randomness source used by the 50-50 lifeline.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithScheduler replaces the countdown task factory. Tests install a no-op
// scheduler and drive TimeExpire directly.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.schedule = s }
}

// New validates the question set and builds an engine for one run.
// Call Start to begin the first countdown.
func New(questions []models.Question, difficulty models.Difficulty, sink AttemptSink, opts ...Option) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}

	e := &Engine{
		questions: questions,
		budget:    difficulty.TimeBudget(),
		sink:      sink,
		status:    StatusInProgress,
		hidden:    make(map[string]struct{}),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		schedule:  realScheduler,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start resets all session counters and starts the countdown for the first
// question.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = StatusInProgress
	e.currentIdx = 0
	e.score = 0
	e.streak = 0
	e.correct = 0
	e.resetQuestionStateLocked()
	e.startCountdownLocked()
}

// SelectAnswer submits option for the current question, stops the countdown
// and applies the scoring policy. It reports whether the answer was correct.
func (e *Engine) SelectAnswer(option string) (bool, error) {
	e.mu.Lock()
	if e.status != StatusInProgress {
		e.mu.Unlock()
		return false, ErrSessionFinished
	}
	if e.submitted {
		e.mu.Unlock()
		return false, ErrAlreadySubmitted
	}

	e.stopCountdownLocked()
	remaining := e.timeRemainingLocked()
	e.remainingFrozen = remaining
	e.selected = option
	e.submitted = true

	q := e.questions[e.currentIdx]
	isCorrect := option == q.CorrectAnswer
	if isCorrect {
		e.score += basePoints + int(remaining)/10 + streakMultiplier*e.streak
		e.streak++
		e.correct++
	} else {
		e.streak = 0
	}
	e.mu.Unlock()

	e.emitAttempt(q, isCorrect)
	return isCorrect, nil
}

// TimeExpire is invoked by the countdown task when the budget runs out. It
// behaves as an automatic "no answer" submission. If the question was
// already answered the call is a no-op: whichever of SelectAnswer and
// TimeExpire reaches the submitted state first wins.
func (e *Engine) TimeExpire() {
	e.mu.Lock()
	if e.status != StatusInProgress || e.submitted {
		e.mu.Unlock()
		return
	}

	e.stopCountdownLocked()
	e.remainingFrozen = 0
	e.selected = ""
	e.submitted = true
	e.streak = 0

	q := e.questions[e.currentIdx]
	e.mu.Unlock()

	e.emitAttempt(q, false)
}

// ApplyFiftyFifty hides two wrong options for the current question, chosen at
// random without replacement, and deducts the lifeline cost. One use per
// question, and only before submission.
func (e *Engine) ApplyFiftyFifty() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusInProgress {
		return nil, ErrSessionFinished
	}
	if e.fiftyUsed || e.submitted {
		return nil, ErrLifelineAlreadyUsed
	}

	wrong := e.questions[e.currentIdx].WrongOptions()
	e.rng.Shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	if len(wrong) > 2 {
		wrong = wrong[:2]
	}
	for _, opt := range wrong {
		e.hidden[opt] = struct{}{}
	}

	e.fiftyUsed = true
	e.deductLocked(lifelineCost)
	return wrong, nil
}

// ApplyHint marks the hint as used, deducts the lifeline cost and returns the
// hint text for display.
func (e *Engine) ApplyHint() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusInProgress {
		return "", ErrSessionFinished
	}
	if e.hintUsed || e.submitted {
		return "", ErrLifelineAlreadyUsed
	}

	e.hintUsed = true
	e.deductLocked(lifelineCost)
	return e.questions[e.currentIdx].Hint, nil
}

// Advance moves to the next question, clearing per-question transient state
// and restarting the countdown. On the last question it fails with
// ErrSessionComplete; callers should Finish instead.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusInProgress {
		return ErrSessionFinished
	}
	if !e.submitted {
		return ErrNotSubmitted
	}
	if e.currentIdx == len(e.questions)-1 {
		return ErrSessionComplete
	}

	e.currentIdx++
	e.resetQuestionStateLocked()
	e.startCountdownLocked()
	return nil
}

// Finish freezes the score and transitions to the summary state. Valid only
// when the last question has been submitted.
func (e *Engine) Finish() (models.SessionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusSummary {
		return e.summaryLocked(), nil
	}
	if !e.submitted {
		return models.SessionSummary{}, ErrNotSubmitted
	}
	if e.currentIdx != len(e.questions)-1 {
		return models.SessionSummary{}, ErrSessionNotComplete
	}

	e.stopCountdownLocked()
	e.status = StatusSummary
	return e.summaryLocked(), nil
}

// Close cancels any live countdown. Used on registry teardown so a stale
// timer can never fire against a future question.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCountdownLocked()
}

// Snapshot is a point-in-time view of the engine for transport to clients.
type Snapshot struct {
	Status         Status          `json:"status"`
	CurrentIndex   int             `json:"current_index"`
	TotalQuestions int             `json:"total_questions"`
	Question       models.Question `json:"question"`
	Submitted      bool            `json:"submitted"`
	SelectedOption string          `json:"selected_option,omitempty"`
	Score          int             `json:"score"`
	Streak         int             `json:"streak"`
	TimeRemaining  float64         `json:"time_remaining"`
	HiddenOptions  []string        `json:"hidden_options,omitempty"`
	HintUsed       bool            `json:"hint_used"`
	FiftyFiftyUsed bool            `json:"fifty_fifty_used"`
}

func (e *Engine) View() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	hidden := make([]string, 0, len(e.hidden))
	for opt := range e.hidden {
		hidden = append(hidden, opt)
	}

	remaining := e.remainingFrozen
	if !e.submitted && e.status == StatusInProgress {
		remaining = e.timeRemainingLocked()
	}

	return Snapshot{
		Status:         e.status,
		CurrentIndex:   e.currentIdx,
		TotalQuestions: len(e.questions),
		Question:       e.questions[e.currentIdx],
		Submitted:      e.submitted,
		SelectedOption: e.selected,
		Score:          e.score,
		Streak:         e.streak,
		TimeRemaining:  remaining,
		HiddenOptions:  hidden,
		HintUsed:       e.hintUsed,
		FiftyFiftyUsed: e.fiftyUsed,
	}
}

// TimeRemaining returns the countdown position as a percentage in [0, 100].
func (e *Engine) TimeRemaining() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted || e.status != StatusInProgress {
		return e.remainingFrozen
	}
	return e.timeRemainingLocked()
}

// ===== internal helpers (callers hold e.mu) =====

func (e *Engine) resetQuestionStateLocked() {
	e.selected = ""
	e.submitted = false
	e.hidden = make(map[string]struct{})
	e.hintUsed = false
	e.fiftyUsed = false
	e.remainingFrozen = 0
}

// startCountdownLocked arms the auto-submit task for the current question.
// Any previous task is cancelled first: the engine owns at most one live
// countdown at a time.
func (e *Engine) startCountdownLocked() {
	e.stopCountdownLocked()
	e.deadline = e.now().Add(e.budget)
	e.cancelCountdown = e.schedule(e.budget, e.TimeExpire)
}

func (e *Engine) stopCountdownLocked() {
	if e.cancelCountdown != nil {
		e.cancelCountdown()
		e.cancelCountdown = nil
	}
}

func (e *Engine) timeRemainingLocked() float64 {
	remaining := e.deadline.Sub(e.now())
	if remaining <= 0 {
		return 0
	}
	pct := float64(remaining) / float64(e.budget) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (e *Engine) deductLocked(points int) {
	e.score -= points
	if e.score < 0 {
		e.score = 0
	}
}

func (e *Engine) summaryLocked() models.SessionSummary {
	return models.SessionSummary{
		Score:            e.score,
		TotalQuestions:   len(e.questions),
		QuestionsCorrect: e.correct,
	}
}

func (e *Engine) emitAttempt(q models.Question, isCorrect bool) {
	if e.sink == nil {
		return
	}
	e.sink.RecordAttempt(q.Type, q.TargetWord, isCorrect)
}
