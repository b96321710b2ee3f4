// Package trainingflow drives one learner through a single assignment:
// content, then quiz, then signature. A Flow is discarded after completion
// or Close; reopening an assignment means calling New again.
package trainingflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"vetlms_backend/internal/quiz"
	"vetlms_backend/internal/signature"
)

// Stage is the step of the flow the learner is on.
type Stage int

const (
	StageContent Stage = iota
	StageQuiz
	StageSignature
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageContent:
		return "content"
	case StageQuiz:
		return "quiz"
	case StageSignature:
		return "signature"
	case StageDone:
		return "done"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

const (
	DefaultMaxViewing   = 5 * time.Minute
	DefaultTickInterval = time.Second
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current stage")
	ErrFlowClosed        = errors.New("training flow is closed")
	ErrContentNotViewed  = fmt.Errorf("%w: content has not been viewed long enough", ErrInvalidTransition)
	ErrQuizNotPassed     = fmt.Errorf("%w: quiz score is below the pass percentage", ErrInvalidTransition)
	ErrInvalidAnswer     = errors.New("answer index out of range")
)

// Assignment is what the flow needs to know about the enrollment it runs.
type Assignment struct {
	EnrollmentID    uint
	CourseID        uint
	DurationMinutes int
	PassPercentage  int
	Questions       []quiz.Question
}

// ViewGate is the server side of the content gate. StartViewing is called
// when the flow opens; ConfirmViewing returns a token proving the content
// was open long enough.
type ViewGate interface {
	StartViewing(ctx context.Context, enrollmentID uint) error
	ConfirmViewing(ctx context.Context, enrollmentID uint) (string, error)
}

// Signature is either a typed name or freehand strokes.
type Signature struct {
	Typed   string
	Strokes []signature.Stroke
}

type Option func(*Flow)

// WithClock replaces time.Now for progress and timing.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func WithViewGate(g ViewGate) Option {
	return func(f *Flow) { f.gate = g }
}

func WithTickInterval(d time.Duration) Option {
	return func(f *Flow) { f.tick = d }
}

// WithMaxViewing changes the cap on the simulated viewing time.
func WithMaxViewing(d time.Duration) Option {
	return func(f *Flow) { f.maxViewing = d }
}

// WithCanvas sets the size drawn signatures are rendered at.
func WithCanvas(width, height int) Option {
	return func(f *Flow) { f.canvasW, f.canvasH = width, height }
}

type Flow struct {
	mu sync.Mutex

	assignment Assignment
	now        func() time.Time
	gate       ViewGate
	tick       time.Duration
	maxViewing time.Duration
	canvasW    int
	canvasH    int

	stage         Stage
	openedAt      time.Time
	quizStartedAt time.Time
	answers       []int
	result        *quiz.Result
	scored        []int
	timeTaken     time.Duration
	viewToken     string

	closed      bool
	done        chan struct{}
	contentDone chan struct{}
}

// New opens a flow in the content stage. When a ViewGate is configured the
// server is told that viewing started.
func New(ctx context.Context, a Assignment, opts ...Option) (*Flow, error) {
	if len(a.Questions) == 0 {
		return nil, quiz.ErrNoQuestions
	}

	f := &Flow{
		assignment:  a,
		now:         time.Now,
		tick:        DefaultTickInterval,
		maxViewing:  DefaultMaxViewing,
		canvasW:     400,
		canvasH:     150,
		stage:       StageContent,
		done:        make(chan struct{}),
		contentDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.answers = make([]int, len(a.Questions))
	for i := range f.answers {
		f.answers[i] = quiz.Unanswered
	}

	if f.gate != nil {
		if err := f.gate.StartViewing(ctx, a.EnrollmentID); err != nil {
			return nil, fmt.Errorf("start viewing: %w", err)
		}
	}
	f.openedAt = f.now()
	return f, nil
}

// RequiredViewing is min(assignment duration, viewing cap).
func (f *Flow) RequiredViewing() time.Duration {
	d := time.Duration(f.assignment.DurationMinutes) * time.Minute
	if d < 0 {
		d = 0
	}
	if d > f.maxViewing {
		return f.maxViewing
	}
	return d
}

// Progress reports content progress from 0 to 100.
func (f *Flow) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progressLocked()
}

func (f *Flow) progressLocked() int {
	if f.stage != StageContent {
		return 100
	}
	required := f.RequiredViewing()
	if required <= 0 {
		return 100
	}
	p := int(100 * f.now().Sub(f.openedAt) / required)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Watch streams content progress once per tick. The channel is closed after
// 100 is sent, when the flow leaves the content stage, or on Close.
func (f *Flow) Watch() <-chan int {
	ch := make(chan int, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(f.tick)
		defer ticker.Stop()
		for {
			select {
			case <-f.done:
				return
			case <-f.contentDone:
				return
			case <-ticker.C:
			}

			p := f.Progress()
			select {
			case ch <- p:
			case <-f.done:
				return
			case <-f.contentDone:
				return
			}
			if p >= 100 {
				return
			}
		}
	}()
	return ch
}

// guard is called with mu held.
func (f *Flow) guard(want Stage) error {
	if f.closed {
		return ErrFlowClosed
	}
	if f.stage != want {
		return fmt.Errorf("%w: %s while in %s", ErrInvalidTransition, want, f.stage)
	}
	return nil
}

// StartQuiz leaves the content stage once progress is complete and, with a
// ViewGate, the server confirmed the viewing. The lock is not held while the
// gate is asked.
func (f *Flow) StartQuiz(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guard(StageContent); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.progressLocked() < 100 {
		f.mu.Unlock()
		return ErrContentNotViewed
	}
	gate := f.gate
	f.mu.Unlock()

	var token string
	if gate != nil {
		var err error
		token, err = gate.ConfirmViewing(ctx, f.assignment.EnrollmentID)
		if err != nil {
			return fmt.Errorf("confirm viewing: %w", err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Close or a concurrent StartQuiz may have won while the gate was asked.
	if err := f.guard(StageContent); err != nil {
		return err
	}
	f.viewToken = token
	f.stage = StageQuiz
	f.quizStartedAt = f.now()
	close(f.contentDone)
	return nil
}

// SelectAnswer records the choice for one question; quiz.Unanswered clears it.
// A changed answer drops the last score, so the quiz must be submitted again.
func (f *Flow) SelectAnswer(question, answer int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(StageQuiz); err != nil {
		return err
	}
	if question < 0 || question >= len(f.answers) {
		return ErrInvalidAnswer
	}
	if answer != quiz.Unanswered && (answer < 0 || answer >= len(f.assignment.Questions[question].Answers)) {
		return ErrInvalidAnswer
	}
	if f.answers[question] != answer {
		f.answers[question] = answer
		f.result = nil
		f.scored = nil
	}
	return nil
}

func (f *Flow) Answers() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.answers...)
}

// SubmitQuiz scores the current answers. It may be called again to
// recalculate; the latest result wins. With an unanswered question nothing
// changes and quiz.ErrUnanswered is returned.
func (f *Flow) SubmitQuiz() (quiz.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(StageQuiz); err != nil {
		return quiz.Result{}, err
	}
	res, err := quiz.Evaluate(f.answers, f.assignment.Questions, f.assignment.PassPercentage)
	if err != nil {
		return quiz.Result{}, err
	}
	f.result = &res
	f.scored = append([]int(nil), f.answers...)
	f.timeTaken = f.now().Sub(f.quizStartedAt)
	return res, nil
}

func (f *Flow) StartSignature() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(StageQuiz); err != nil {
		return err
	}
	if f.result == nil || !f.result.Passed {
		return ErrQuizNotPassed
	}
	f.stage = StageSignature
	return nil
}

func (f *Flow) encodeSignature(sig Signature) (string, error) {
	if len(sig.Strokes) > 0 {
		return signature.Render(sig.Strokes, f.canvasW, f.canvasH)
	}
	typed := strings.TrimSpace(sig.Typed)
	if err := signature.Validate(typed); err != nil {
		return "", err
	}
	return typed, nil
}

// SubmitSignature finishes the flow and returns the completion event. The
// flow is closed afterwards.
func (f *Flow) SubmitSignature(sig Signature) (*Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(StageSignature); err != nil {
		return nil, err
	}
	encoded, err := f.encodeSignature(sig)
	if err != nil {
		return nil, err
	}

	c := &Completion{
		EnrollmentID:    f.assignment.EnrollmentID,
		CourseID:        f.assignment.CourseID,
		QuizScore:       f.result.Percentage,
		PassPercentage:  f.assignment.PassPercentage,
		DurationMinutes: f.assignment.DurationMinutes,
		Answers:         append([]int(nil), f.scored...),
		Signature:       encoded,
		ViewToken:       f.viewToken,
		TimeTaken:       f.timeTaken,
	}
	f.stage = StageDone
	f.closeLocked()
	return c, nil
}

// Close discards the flow. Safe to call more than once.
func (f *Flow) Close() {
	f.mu.Lock()
	f.closeLocked()
	f.mu.Unlock()
}

func (f *Flow) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
}
