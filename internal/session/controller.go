package session

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quiztians/internal/domain"
)

// State is the controller's lifecycle position.
type State string

const (
	StateLoading          State = "loading"
	StateActive           State = "active"
	StateSubmitting       State = "submitting"
	StateSubmitted        State = "submitted"
	StateAlreadyAttempted State = "already_attempted"
	StateLoadError        State = "load_error"
)

// Params is the opaque bundle a session is started with.
type Params struct {
	Participant  domain.Participant
	ChapterID    string
	Duration     time.Duration
	AdvanceDelay time.Duration
	// TickInterval is how much wall-clock time one countdown second takes.
	// Zero means time.Second; tests compress it.
	TickInterval time.Duration
	Preview      bool
	// Seed fixes the question shuffle; zero picks a time-based seed.
	Seed int64
}

// Controller runs one quiz session as an explicit event loop: timer ticks,
// answers, and navigation interceptions are discrete, serialized steps, so
// session state has a single writer. All submit triggers funnel through one
// idempotency gate, giving at most one dispatched result write per session.
type Controller struct {
	id      string
	params  Params
	bank    QuestionBank
	results ResultStore
	guard   *AttemptGuard
	stage   *RecoveryStage
	clock   func() time.Time

	questions []domain.Question
	order     []int
	idx       int
	score     int
	locked    bool
	startedAt time.Time

	timer *Timer
	nav   NavigationGuard

	mu    sync.Mutex
	state State

	submitGate atomic.Bool
	events     chan Event
	updates    chan Update
	done       chan struct{}
	doneOnce   sync.Once
	writeDone  chan struct{}
}

func NewController(bank QuestionBank, results ResultStore, guard *AttemptGuard, stage *RecoveryStage, params Params) *Controller {
	return &Controller{
		id:        uuid.NewString(),
		params:    params,
		bank:      bank,
		results:   results,
		guard:     guard,
		stage:     stage,
		clock:     time.Now,
		state:     StateLoading,
		events:    make(chan Event, 16),
		updates:   make(chan Update, 16),
		done:      make(chan struct{}),
		writeDone: make(chan struct{}),
	}
}

// ID identifies the session instance.
func (c *Controller) ID() string { return c.id }

// Start bootstraps the session: replay any staged result from a previous
// crash, gate entry through the attempt guard, load and shuffle questions,
// then run the event loop. Errors here happen before Active and are
// surfaced to the caller; after Active the engine absorbs failures and
// reconciles out of band.
func (c *Controller) Start(ctx context.Context) error {
	phone := c.params.Participant.Phone
	chapter := c.params.ChapterID

	if !c.params.Preview {
		if err := c.stage.Replay(ctx, phone, chapter); err != nil {
			log.Printf("session %s: replay staged result: %v", c.id, err)
		}
		verdict, err := c.guard.Evaluate(ctx, phone, chapter)
		if err != nil {
			log.Printf("session %s: attempt check: %v", c.id, err)
		}
		if verdict == Deny {
			c.setState(StateAlreadyAttempted)
			c.shutdown()
			return domain.ErrDuplicateAttempt
		}
	}

	questions, err := c.bank.FetchByChapter(ctx, chapter)
	if err != nil {
		c.setState(StateLoadError)
		c.shutdown()
		return err
	}
	if len(questions) == 0 {
		c.setState(StateLoadError)
		c.shutdown()
		return domain.ErrEmptyQuestionSet
	}
	c.questions = questions

	seed := c.params.Seed
	if seed == 0 {
		seed = c.clock().UnixNano()
	}
	// One seeded shuffle at session creation; the order is session state,
	// so replays and tests are reproducible.
	c.order = rand.New(rand.NewSource(seed)).Perm(len(questions))

	c.startedAt = c.clock()
	c.setState(StateActive)

	if !c.params.Preview {
		c.timer = NewTimer(c.params.Duration, c.params.TickInterval)
		go c.timer.Run(c.post)
	}
	go c.run()
	return nil
}

// Answer records the participant's selection for the current question.
func (c *Controller) Answer(option string) {
	c.post(Event{Kind: EventAnswer, Option: option})
}

// Submit is the manual submit action exposed on the last question.
func (c *Controller) Submit() {
	c.post(Event{Kind: EventSubmit})
}

// Navigate reports an intercepted navigation event from the client.
func (c *Controller) Navigate(kind NavKind) {
	c.post(Event{Kind: EventNavigate, Nav: kind})
}

// Updates delivers session progress to the transport; closed on terminal
// transitions.
func (c *Controller) Updates() <-chan Update { return c.updates }

// Done is closed when the session reaches a terminal state or is abandoned.
func (c *Controller) Done() <-chan struct{} { return c.done }

// WriteSettled is closed once the result write (or the decision to leave it
// staged for replay) has settled. Only submitting sessions close it.
func (c *Controller) WriteSettled() <-chan struct{} { return c.writeDone }

// State returns the current lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Score returns the running score.
func (c *Controller) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

// Close abandons the session without submitting, e.g. when the transport
// connection drops before any submit trigger fired. Nothing is persisted,
// so the participant may re-enter.
func (c *Controller) Close() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.shutdown()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) post(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) emit(u Update) {
	select {
	case c.updates <- u:
	case <-time.After(time.Second):
		// A stalled consumer must not wedge the loop.
	}
}

func (c *Controller) run() {
	defer close(c.updates)

	c.emit(c.questionUpdate())
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			switch ev.Kind {
			case EventTick:
				c.emit(Update{Kind: UpdateTick, Remaining: c.timer.Remaining(), Fraction: c.timer.Fraction()})
			case EventAnswer:
				c.handleAnswer(ev.Option)
			case EventAdvance:
				c.handleAdvance()
			case EventNavigate:
				if c.params.Preview {
					continue
				}
				if c.nav.Decide(ev.Nav) == NavForceSubmit {
					c.finish()
					return
				}
				c.emit(Update{Kind: UpdateWarning, Message: "leaving now will submit your quiz"})
			case EventExpire, EventSubmit:
				c.finish()
				return
			}
		}
	}
}

func (c *Controller) handleAnswer(option string) {
	if c.State() != StateActive || c.locked {
		return
	}
	question := c.questions[c.order[c.idx]]
	if question.IsCorrect(option, c.params.Participant.Language) {
		c.mu.Lock()
		c.score++
		c.mu.Unlock()
	}
	// Selection is permanent; the question stays locked until advance.
	c.locked = true
	c.emit(c.questionUpdate())

	if c.idx < len(c.order)-1 {
		time.AfterFunc(c.params.AdvanceDelay, func() {
			c.post(Event{Kind: EventAdvance})
		})
	}
}

func (c *Controller) handleAdvance() {
	if c.State() != StateActive || !c.locked || c.idx >= len(c.order)-1 {
		return
	}
	c.idx++
	c.locked = false
	c.emit(c.questionUpdate())
}

// finish is the single funnel for manual submit, timer expiry, and
// navigation escalation. The atomic gate makes concurrent triggers
// harmless: only the first dispatches a write.
func (c *Controller) finish() {
	if !c.submitGate.CompareAndSwap(false, true) {
		return
	}
	c.setState(StateSubmitting)
	if c.timer != nil {
		c.timer.Stop()
	}

	elapsed := int(c.clock().Sub(c.startedAt) / time.Second)
	result := domain.Result{
		Phone:     c.params.Participant.Phone,
		Name:      c.params.Participant.Name,
		Place:     c.params.Participant.Place,
		ChapterID: c.params.ChapterID,
		Score:     c.score,
		Total:     len(c.questions),
		TimeTaken: &elapsed,
		CreatedAt: c.clock(),
	}
	outcome := &domain.Outcome{
		Participant: c.params.Participant,
		ChapterID:   c.params.ChapterID,
		Score:       c.score,
		Total:       len(c.questions),
		TimeTaken:   &elapsed,
		State:       string(StateSubmitted),
	}

	if c.params.Preview {
		// Dry runs never persist and never touch the recovery stage.
		c.setState(StateSubmitted)
		c.emit(Update{Kind: UpdateFinished, Outcome: outcome})
		close(c.writeDone)
		c.shutdown()
		return
	}

	ctx := context.Background()
	if err := c.stage.Stage(ctx, result); err != nil {
		log.Printf("session %s: stage result: %v", c.id, err)
	}
	if err := c.guard.MarkSubmitted(ctx, result.Phone, result.ChapterID); err != nil {
		log.Printf("session %s: mark attempt: %v", c.id, err)
	}

	// Terminate immediately regardless of write acknowledgment; a failed
	// write stays staged and replays on the next bootstrap.
	c.setState(StateSubmitted)
	c.emit(Update{Kind: UpdateFinished, Outcome: outcome})
	c.shutdown()

	go func() {
		defer close(c.writeDone)
		if err := c.results.Insert(context.Background(), result); err != nil {
			if errors.Is(err, domain.ErrDuplicateAttempt) {
				_ = c.stage.Clear(context.Background(), result.Phone, result.ChapterID)
				return
			}
			log.Printf("session %s: result write failed, staged for replay: %v", c.id, err)
			return
		}
		_ = c.stage.Clear(context.Background(), result.Phone, result.ChapterID)
	}()
}

func (c *Controller) questionUpdate() Update {
	question := c.questions[c.order[c.idx]]
	lang := c.params.Participant.Language
	options := make([]string, 0, len(question.Options))
	for _, opt := range question.Options {
		options = append(options, opt.In(lang))
	}
	return Update{
		Kind: UpdateQuestion,
		Question: &QuestionView{
			Index:   c.idx,
			Total:   len(c.order),
			Prompt:  question.Prompt.In(lang),
			Options: options,
			Locked:  c.locked,
			Last:    c.idx == len(c.order)-1,
		},
	}
}
