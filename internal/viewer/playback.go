package viewer

import (
	"time"

	"go.uber.org/zap"
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules with time.AfterFunc.
var SystemScheduler Scheduler = systemScheduler{}

// StepRequest holds the two loads issued for one step.
type StepRequest struct {
	Index      int
	Mandibular *LoadRequest
	Maxillary  *LoadRequest
}

// Load returns the request for slot.
func (r *StepRequest) Load(slot Slot) *LoadRequest {
	if slot == Maxillary {
		return r.Maxillary
	}
	return r.Mandibular
}

// Run is one play-all traversal. Its fields are owned by the frame loop.
type Run struct {
	id        uint64
	next      int
	timer     Timer
	visited   []int
	requests  []*StepRequest
	done      chan struct{}
	cancelled bool
}

// ID identifies the run within its sequencer.
func (r *Run) ID() uint64 { return r.id }

// Done is closed when the run completes or is cancelled.
func (r *Run) Done() <-chan struct{} { return r.done }

// Visited returns the step indices dispatched so far, in order.
func (r *Run) Visited() []int { return append([]int(nil), r.visited...) }

// Requests returns the step requests dispatched so far.
func (r *Run) Requests() []*StepRequest { return append([]*StepRequest(nil), r.requests...) }

// Cancelled reports whether the run stopped before dispatching every step.
func (r *Run) Cancelled() bool { return r.cancelled }

// Sequencer selects steps and drives play-all runs.
//
// A run dispatches step 0 immediately, then schedules each following step one
// delay after the previous one was dispatched. At most one run is active.
type Sequencer struct {
	seq      *Sequence
	slots    *SlotManager
	dispatch *Dispatcher
	sched    Scheduler
	delay    time.Duration
	log      *zap.Logger

	current int
	run     *Run
	runs    uint64
	closed  bool
}

// NewSequencer creates an idle sequencer with no step selected.
func NewSequencer(seq *Sequence, slots *SlotManager, dispatch *Dispatcher, sched Scheduler, delay time.Duration, log *zap.Logger) *Sequencer {
	return &Sequencer{
		seq:      seq,
		slots:    slots,
		dispatch: dispatch,
		sched:    sched,
		delay:    delay,
		log:      log,
		current:  -1,
	}
}

// SelectStep binds step i to both slots. It stops an active run; use this
// for user selections.
func (s *Sequencer) SelectStep(i int) (*StepRequest, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if _, err := s.seq.Step(i); err != nil {
		return nil, err
	}
	if s.run != nil {
		s.log.Info("playback interrupted by step selection", zap.Int("step", i))
		s.stop()
	}
	return s.selectStep(i)
}

func (s *Sequencer) selectStep(i int) (*StepRequest, error) {
	step, err := s.seq.Step(i)
	if err != nil {
		return nil, err
	}
	lower, err := s.slots.BindAsset(Mandibular, step.Mandibular)
	if err != nil {
		return nil, err
	}
	upper, err := s.slots.BindAsset(Maxillary, step.Maxillary)
	if err != nil {
		return nil, err
	}
	s.current = i
	return &StepRequest{Index: i, Mandibular: lower, Maxillary: upper}, nil
}

// PlayAll starts a run over every step. While a run is active it returns that
// run unchanged.
func (s *Sequencer) PlayAll() (*Run, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.run != nil {
		return s.run, nil
	}

	s.runs++
	r := &Run{id: s.runs, done: make(chan struct{})}
	s.run = r
	s.log.Info("playback started",
		zap.Uint64("run", r.id),
		zap.Int("steps", s.seq.Len()),
		zap.Duration("delay", s.delay))
	s.advance(r)
	return r, nil
}

// advance dispatches the run's next step and schedules the one after. Runs on the frame loop.
func (s *Sequencer) advance(r *Run) {
	if s.closed || s.run != r {
		return
	}
	r.timer = nil

	i := r.next
	req, err := s.selectStep(i)
	if err != nil {
		s.log.Warn("playback step failed", zap.Uint64("run", r.id), zap.Int("step", i), zap.Error(err))
		s.finish(r, true)
		return
	}
	r.visited = append(r.visited, i)
	r.requests = append(r.requests, req)
	r.next++
	s.log.Debug("playback step", zap.Uint64("run", r.id), zap.Int("step", i))

	if r.next >= s.seq.Len() {
		s.finish(r, false)
		return
	}
	r.timer = s.sched.AfterFunc(s.delay, func() {
		s.dispatch.Post(func() { s.advance(r) })
	})
}

func (s *Sequencer) finish(r *Run, cancelled bool) {
	r.cancelled = cancelled
	s.run = nil
	close(r.done)
	s.log.Info("playback finished",
		zap.Uint64("run", r.id),
		zap.Ints("visited", r.visited),
		zap.Bool("cancelled", cancelled))
}

// Stop cancels the active run, if any.
func (s *Sequencer) Stop() {
	if s.run != nil {
		s.stop()
	}
}

func (s *Sequencer) stop() {
	r := s.run
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	s.finish(r, true)
}

// Current returns the last selected step, or -1.
func (s *Sequencer) Current() int {
	return s.current
}

// Running reports whether a run is active.
func (s *Sequencer) Running() bool {
	return s.run != nil
}

// Sequence returns the step list.
func (s *Sequencer) Sequence() *Sequence {
	return s.seq
}

// Close stops the active run and rejects further calls.
func (s *Sequencer) Close() {
	s.Stop()
	s.closed = true
}
