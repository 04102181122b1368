package viewer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/archview/internal/engine/model"
)

const settleTimeout = 2 * time.Second

type loadResult struct {
	mesh *model.Mesh
	err  error
}

// fakeLoader blocks each Load until the test releases it with resolve.
type fakeLoader struct {
	mu      sync.Mutex
	calls   []string
	pending map[string][]chan loadResult
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{pending: make(map[string][]chan loadResult)}
}

func (f *fakeLoader) Load(ctx context.Context, path string) (*model.Mesh, error) {
	ch := make(chan loadResult, 1)
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.pending[path] = append(f.pending[path], ch)
	f.mu.Unlock()

	select {
	case r := <-ch:
		return r.mesh, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve releases the oldest outstanding Load for path.
func (f *fakeLoader) resolve(t *testing.T, path string, mesh *model.Mesh, err error) {
	t.Helper()
	deadline := time.Now().Add(settleTimeout)
	for {
		f.mu.Lock()
		if q := f.pending[path]; len(q) > 0 {
			ch := q[0]
			f.pending[path] = q[1:]
			f.mu.Unlock()
			ch <- loadResult{mesh: mesh, err: err}
			return
		}
		f.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("no outstanding load for %s", path)
		}
		time.Sleep(time.Millisecond)
	}
}

// instantLoader returns a mesh per path immediately, or a configured error.
type instantLoader struct {
	mu     sync.Mutex
	meshes map[string]*model.Mesh
	fail   map[string]error
	calls  []string
}

func newInstantLoader() *instantLoader {
	return &instantLoader{
		meshes: make(map[string]*model.Mesh),
		fail:   make(map[string]error),
	}
}

func (l *instantLoader) Load(_ context.Context, path string) (*model.Mesh, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, path)
	if err, ok := l.fail[path]; ok {
		return nil, err
	}
	return l.meshLocked(path), nil
}

func (l *instantLoader) mesh(path string) *model.Mesh {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meshLocked(path)
}

func (l *instantLoader) meshLocked(path string) *model.Mesh {
	m, ok := l.meshes[path]
	if !ok {
		m = &model.Mesh{Source: path}
		l.meshes[path] = m
	}
	return m
}

func (l *instantLoader) failPath(path string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail[path] = err
}

// manualScheduler records timers; the test fires them explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	delay   time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fireNext runs the oldest armed timer. It returns false if none is armed.
func (s *manualScheduler) fireNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

func (s *manualScheduler) armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (s *manualScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.timers))
	for i, t := range s.timers {
		out[i] = t.delay
	}
	return out
}

// last returns the most recently scheduled timer.
func (s *manualScheduler) last() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// newTestViewer creates a viewer with no initial step and a manual scheduler.
func newTestViewer(t *testing.T, loader Loader, mutate ...func(*Options)) (*Viewer, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	opts := Options{
		Loader:      loader,
		InitialStep: NoInitialStep,
		Scheduler:   sched,
		Logger:      zaptest.NewLogger(t),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	v, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)
	return v, sched
}

// settle pumps v until every request has an outcome.
func settle(t *testing.T, v *Viewer, reqs ...*LoadRequest) {
	t.Helper()
	timeout := time.After(settleTimeout)
	for _, r := range reqs {
		for {
			v.Pump()
			if r.Outcome() != OutcomePending {
				break
			}
			select {
			case <-v.Ready():
			case <-timeout:
				t.Fatalf("request %s/%s (generation %d) did not settle", r.Slot, r.Path, r.Generation)
			}
		}
	}
}

// settleStep settles both loads of a step.
func settleStep(t *testing.T, v *Viewer, req *StepRequest) {
	t.Helper()
	settle(t, v, req.Mandibular, req.Maxillary)
}

func stepPaths(i int) (string, string) {
	if i == 0 {
		return "Models/Mandibular.ply", "Models/Maxillary.ply"
	}
	return fmt.Sprintf("Models/Mandibular%d.ply", i+1), fmt.Sprintf("Models/Maxillary%d.ply", i+1)
}
