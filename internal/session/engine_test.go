package session

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocabmaster/quiz-service/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}

// noopScheduler disables real countdown timers; tests call TimeExpire directly.
func noopScheduler(time.Duration, func()) CancelFunc {
	return func() {}
}

type recordedAttempt struct {
	category   models.QuizCategory
	targetWord string
	isCorrect  bool
}

type recordingSink struct {
	mu       sync.Mutex
	attempts []recordedAttempt
}

func (s *recordingSink) RecordAttempt(category models.QuizCategory, targetWord string, isCorrect bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, recordedAttempt{category, targetWord, isCorrect})
}

func (s *recordingSink) all() []recordedAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedAttempt(nil), s.attempts...)
}

func testQuestions(n int) []models.Question {
	questions := make([]models.Question, n)
	words := []string{"ephemeral", "garrulous", "laconic", "obdurate", "quixotic", "truculent", "venal"}
	for i := range questions {
		questions[i] = models.Question{
			ID:            words[i%len(words)],
			Type:          models.CategorySynonyms,
			TargetWord:    words[i%len(words)],
			QuestionText:  "Choose the word closest in meaning to the highlighted word.",
			Options:       []string{"right", "wrong-a", "wrong-b", "wrong-c"},
			CorrectAnswer: "right",
			Explanation:   "Because it is.",
			Hint:          "Think of something short-lived.",
		}
	}
	return questions
}

func newTestEngine(t *testing.T, n int, difficulty models.Difficulty, sink AttemptSink) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	engine, err := New(testQuestions(n), difficulty, sink,
		WithClock(clock.Now),
		WithScheduler(noopScheduler),
		WithRand(rand.New(rand.NewSource(1))),
	)
	require.NoError(t, err)
	engine.Start()
	return engine, clock
}

func TestNew_EmptyQuestionSet(t *testing.T) {
	_, err := New(nil, models.DifficultyMedium, nil)
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
}

func TestSelectAnswer_Scoring(t *testing.T) {
	t.Run("speed and streak bonuses", func(t *testing.T) {
		// Medium budget is 30s. Answering after 9s leaves 70% of the
		// budget, so with a streak of 2 the award is 10 + 7 + 4 = 21.
		sink := &recordingSink{}
		engine, clock := newTestEngine(t, 5, models.DifficultyMedium, sink)

		for i := 0; i < 2; i++ {
			correct, err := engine.SelectAnswer("right")
			require.NoError(t, err)
			require.True(t, correct)
			require.NoError(t, engine.Advance())
		}
		scoreBefore := engine.View().Score
		require.Equal(t, 2, engine.View().Streak)

		clock.Advance(9 * time.Second)
		correct, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.True(t, correct)

		view := engine.View()
		assert.Equal(t, scoreBefore+21, view.Score)
		assert.Equal(t, 3, view.Streak)
	})

	t.Run("wrong answer resets streak and awards nothing", func(t *testing.T) {
		engine, _ := newTestEngine(t, 2, models.DifficultyMedium, nil)

		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.Equal(t, 1, engine.View().Streak)
		require.NoError(t, engine.Advance())

		scoreBefore := engine.View().Score
		correct, err := engine.SelectAnswer("wrong-a")
		require.NoError(t, err)
		assert.False(t, correct)

		view := engine.View()
		assert.Equal(t, scoreBefore, view.Score)
		assert.Equal(t, 0, view.Streak)
	})

	t.Run("speed bonus floors the percentage", func(t *testing.T) {
		engine, clock := newTestEngine(t, 1, models.DifficultyMedium, nil)

		// 10.5s elapsed leaves 65%, so the bonus is floor(65/10) = 6.
		clock.Advance(10500 * time.Millisecond)
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		assert.Equal(t, 10+6, engine.View().Score)
	})

	t.Run("second submission rejected", func(t *testing.T) {
		engine, _ := newTestEngine(t, 1, models.DifficultyEasy, nil)

		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		_, err = engine.SelectAnswer("wrong-a")
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})
}

func TestTimeExpire(t *testing.T) {
	t.Run("auto-submits as incorrect", func(t *testing.T) {
		sink := &recordingSink{}
		engine, _ := newTestEngine(t, 2, models.DifficultyHard, sink)

		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.NoError(t, engine.Advance())

		engine.TimeExpire()

		view := engine.View()
		assert.True(t, view.Submitted)
		assert.Empty(t, view.SelectedOption)
		assert.Equal(t, 0, view.Streak)
		assert.Zero(t, view.TimeRemaining)

		attempts := sink.all()
		require.Len(t, attempts, 2)
		assert.False(t, attempts[1].isCorrect)
	})

	t.Run("no-op after manual answer", func(t *testing.T) {
		sink := &recordingSink{}
		engine, _ := newTestEngine(t, 1, models.DifficultyMedium, sink)

		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		engine.TimeExpire()

		view := engine.View()
		assert.Equal(t, "right", view.SelectedOption)
		assert.Equal(t, 1, view.Streak)
		assert.Len(t, sink.all(), 1)
	})

	t.Run("last question timeout makes Finish callable", func(t *testing.T) {
		sink := &recordingSink{}
		engine, _ := newTestEngine(t, 5, models.DifficultyMedium, sink)

		for i := 0; i < 4; i++ {
			_, err := engine.SelectAnswer("right")
			require.NoError(t, err)
			require.NoError(t, engine.Advance())
		}
		engine.TimeExpire()

		summary, err := engine.Finish()
		require.NoError(t, err)
		assert.Equal(t, 5, summary.TotalQuestions)
		assert.Equal(t, 4, summary.QuestionsCorrect)

		attempts := sink.all()
		require.Len(t, attempts, 5)
		assert.False(t, attempts[4].isCorrect)
	})
}

func TestLifelines(t *testing.T) {
	t.Run("fifty-fifty hides two wrong options", func(t *testing.T) {
		engine, _ := newTestEngine(t, 1, models.DifficultyMedium, nil)

		hidden, err := engine.ApplyFiftyFifty()
		require.NoError(t, err)
		assert.Len(t, hidden, 2)
		assert.NotContains(t, hidden, "right")

		view := engine.View()
		assert.True(t, view.FiftyFiftyUsed)
		assert.Len(t, view.HiddenOptions, 2)
	})

	t.Run("deductions floor at zero", func(t *testing.T) {
		engine, _ := newTestEngine(t, 1, models.DifficultyMedium, nil)

		// Score starts at 0, so both lifelines together cannot push it
		// below zero even though the nominal deduction is 4.
		_, err := engine.ApplyFiftyFifty()
		require.NoError(t, err)
		hint, err := engine.ApplyHint()
		require.NoError(t, err)
		assert.NotEmpty(t, hint)
		assert.Equal(t, 0, engine.View().Score)
	})

	t.Run("deductions reduce an existing score", func(t *testing.T) {
		engine, clock := newTestEngine(t, 2, models.DifficultyMedium, nil)

		clock.Advance(30 * time.Second) // no speed bonus
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.Equal(t, 10, engine.View().Score)
		require.NoError(t, engine.Advance())

		_, err = engine.ApplyFiftyFifty()
		require.NoError(t, err)
		_, err = engine.ApplyHint()
		require.NoError(t, err)
		assert.Equal(t, 6, engine.View().Score)
	})

	t.Run("single use per question", func(t *testing.T) {
		engine, _ := newTestEngine(t, 2, models.DifficultyMedium, nil)

		_, err := engine.ApplyFiftyFifty()
		require.NoError(t, err)
		_, err = engine.ApplyFiftyFifty()
		assert.ErrorIs(t, err, ErrLifelineAlreadyUsed)

		_, err = engine.ApplyHint()
		require.NoError(t, err)
		_, err = engine.ApplyHint()
		assert.ErrorIs(t, err, ErrLifelineAlreadyUsed)

		// Cleared on advance.
		_, err = engine.SelectAnswer("right")
		require.NoError(t, err)
		require.NoError(t, engine.Advance())
		_, err = engine.ApplyFiftyFifty()
		assert.NoError(t, err)
	})

	t.Run("rejected after submission", func(t *testing.T) {
		engine, _ := newTestEngine(t, 1, models.DifficultyMedium, nil)

		_, err := engine.SelectAnswer("wrong-a")
		require.NoError(t, err)
		_, err = engine.ApplyFiftyFifty()
		assert.ErrorIs(t, err, ErrLifelineAlreadyUsed)
		_, err = engine.ApplyHint()
		assert.ErrorIs(t, err, ErrLifelineAlreadyUsed)
	})
}

func TestAdvanceAndFinish(t *testing.T) {
	t.Run("advance requires submission", func(t *testing.T) {
		engine, _ := newTestEngine(t, 2, models.DifficultyMedium, nil)
		assert.ErrorIs(t, engine.Advance(), ErrNotSubmitted)
	})

	t.Run("advance past last question rejected", func(t *testing.T) {
		engine, _ := newTestEngine(t, 1, models.DifficultyMedium, nil)
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		assert.ErrorIs(t, engine.Advance(), ErrSessionComplete)
	})

	t.Run("advance clears transient state and restarts countdown", func(t *testing.T) {
		engine, clock := newTestEngine(t, 2, models.DifficultyMedium, nil)

		clock.Advance(15 * time.Second)
		_, err := engine.ApplyHint()
		require.NoError(t, err)
		_, err = engine.SelectAnswer("right")
		require.NoError(t, err)
		require.NoError(t, engine.Advance())

		view := engine.View()
		assert.Equal(t, 1, view.CurrentIndex)
		assert.False(t, view.Submitted)
		assert.Empty(t, view.SelectedOption)
		assert.Empty(t, view.HiddenOptions)
		assert.False(t, view.HintUsed)
		assert.False(t, view.FiftyFiftyUsed)
		assert.InDelta(t, 100, view.TimeRemaining, 0.01)
	})

	t.Run("finish before last question rejected", func(t *testing.T) {
		engine, _ := newTestEngine(t, 2, models.DifficultyMedium, nil)
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		_, err = engine.Finish()
		assert.ErrorIs(t, err, ErrSessionNotComplete)
	})

	t.Run("finish freezes the summary", func(t *testing.T) {
		engine, clock := newTestEngine(t, 2, models.DifficultyMedium, nil)

		clock.Advance(30 * time.Second)
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.NoError(t, engine.Advance())
		clock.Advance(30 * time.Second)
		_, err = engine.SelectAnswer("wrong-b")
		require.NoError(t, err)

		summary, err := engine.Finish()
		require.NoError(t, err)
		assert.Equal(t, models.SessionSummary{Score: 10, TotalQuestions: 2, QuestionsCorrect: 1}, summary)

		_, err = engine.SelectAnswer("right")
		assert.ErrorIs(t, err, ErrSessionFinished)
	})
}

func TestScoreNeverNegative(t *testing.T) {
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, 5, models.DifficultyHard, sink)

	for i := 0; i < 5; i++ {
		_, err := engine.ApplyFiftyFifty()
		require.NoError(t, err)
		_, err = engine.ApplyHint()
		require.NoError(t, err)
		require.GreaterOrEqual(t, engine.View().Score, 0)

		_, err = engine.SelectAnswer("wrong-c")
		require.NoError(t, err)
		require.GreaterOrEqual(t, engine.View().Score, 0)

		if i < 4 {
			require.NoError(t, engine.Advance())
		}
	}

	summary, err := engine.Finish()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Score)
	assert.Len(t, sink.all(), 5)
}

func TestCountdownOwnership(t *testing.T) {
	// Every countdown start must cancel the previous handle first, so at most
	// one task is ever live.
	var live int
	var starts int
	counting := func(d time.Duration, fn func()) CancelFunc {
		live++
		starts++
		require.Equal(t, 1, live, "two countdown tasks live at once")
		return func() { live-- }
	}

	clock := newFakeClock()
	engine, err := New(testQuestions(3), models.DifficultyMedium, nil,
		WithClock(clock.Now), WithScheduler(counting))
	require.NoError(t, err)
	engine.Start()

	for i := 0; i < 2; i++ {
		_, err := engine.SelectAnswer("right")
		require.NoError(t, err)
		require.NoError(t, engine.Advance())
	}
	_, err = engine.SelectAnswer("right")
	require.NoError(t, err)
	_, err = engine.Finish()
	require.NoError(t, err)

	assert.Equal(t, 3, starts)
	assert.Zero(t, live, "countdown left running after finish")
}
