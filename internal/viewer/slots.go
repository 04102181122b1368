// Package viewer implements the arch viewer core: slot bindings with ordered
// async loads, visibility toggles, camera presets and step playback.
//
// All state is owned by the frame loop. Loader goroutines and playback timers
// never touch it directly; they post to a Dispatcher that the frame loop pumps.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/engine/model"
	"github.com/Faultbox/archview/internal/engine/scene"
)

// Slot is one of the two anatomical display positions.
type Slot = scene.Slot

// Slots.
const (
	Mandibular = scene.Mandibular
	Maxillary  = scene.Maxillary
)

// MeshBinding is the mesh currently occupying a slot.
type MeshBinding struct {
	Slot       Slot
	Path       string
	Generation uint64
	Mesh       *model.Mesh
	Scale      float32

	node *scene.Node
}

// Visible reports whether the binding is drawn.
func (b *MeshBinding) Visible() bool {
	return b.node.Visible
}

type slotState struct {
	generation uint64
	binding    *MeshBinding
	visible    bool
	failure    *LoadError
}

// SlotManager owns one optional binding per slot and is the only writer of
// slot nodes in the scene graph.
//
// A completion is committed only if it belongs to the most recent BindAsset
// call for its slot; older completions are discarded as stale.
type SlotManager struct {
	ctx    context.Context
	cancel context.CancelFunc

	loader   Loader
	graph    *scene.Graph
	dispatch *Dispatcher
	scale    float32
	log      *zap.Logger

	slots    [scene.SlotCount]slotState
	inflight map[*LoadRequest]struct{}
	closed   bool
}

// NewSlotManager creates a manager with both slots empty and visible.
func NewSlotManager(graph *scene.Graph, loader Loader, dispatch *Dispatcher, scale float32, log *zap.Logger) *SlotManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &SlotManager{
		ctx:      ctx,
		cancel:   cancel,
		loader:   loader,
		graph:    graph,
		dispatch: dispatch,
		scale:    scale,
		log:      log,
		inflight: make(map[*LoadRequest]struct{}),
	}
	for i := range m.slots {
		m.slots[i].visible = true
	}
	return m
}

// BindAsset starts an asynchronous load of path into slot and returns immediately.
// The returned request settles on the frame loop.
func (m *SlotManager) BindAsset(slot Slot, path string) (*LoadRequest, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, int(slot))
	}

	st := &m.slots[slot]
	st.generation++
	req := newLoadRequest(slot, path, st.generation)
	m.inflight[req] = struct{}{}

	m.log.Debug("load issued",
		zap.Stringer("slot", slot),
		zap.String("path", path),
		zap.Uint64("generation", req.Generation))

	ctx := m.ctx
	go func() {
		mesh, err := m.loader.Load(ctx, path)
		if !m.dispatch.Post(func() { m.complete(req, mesh, err) }) {
			req.resolve(OutcomeCancelled, ErrClosed)
		}
	}()
	return req, nil
}

// complete runs on the frame loop.
func (m *SlotManager) complete(req *LoadRequest, mesh *model.Mesh, err error) {
	delete(m.inflight, req)
	if m.closed {
		req.resolve(OutcomeCancelled, ErrClosed)
		return
	}

	st := &m.slots[req.Slot]
	if req.Generation != st.generation {
		m.log.Debug("stale load discarded",
			zap.Stringer("slot", req.Slot),
			zap.String("path", req.Path),
			zap.Uint64("generation", req.Generation),
			zap.Uint64("current", st.generation))
		req.resolve(OutcomeStale, nil)
		return
	}

	if err == nil && mesh == nil {
		err = errors.New("loader returned no mesh")
	}
	if err != nil {
		lerr := &LoadError{Slot: req.Slot, Path: req.Path, Generation: req.Generation, Err: err}
		st.failure = lerr
		m.log.Warn("load failed",
			zap.Stringer("slot", req.Slot),
			zap.String("path", req.Path),
			zap.Error(err))
		req.resolve(OutcomeFailed, lerr)
		return
	}

	node := &scene.Node{
		Mesh:    mesh,
		Source:  req.Path,
		Scale:   m.scale,
		Visible: st.visible,
	}
	m.graph.Replace(req.Slot, node)
	st.binding = &MeshBinding{
		Slot:       req.Slot,
		Path:       req.Path,
		Generation: req.Generation,
		Mesh:       mesh,
		Scale:      m.scale,
		node:       node,
	}
	st.failure = nil

	m.log.Info("mesh bound",
		zap.Stringer("slot", req.Slot),
		zap.String("path", req.Path),
		zap.Uint64("generation", req.Generation))
	req.resolve(OutcomeCommitted, nil)
}

// CurrentBinding returns the slot's binding, or nil if nothing is loaded.
func (m *SlotManager) CurrentBinding(slot Slot) *MeshBinding {
	if !slot.Valid() {
		return nil
	}
	return m.slots[slot].binding
}

// Generation returns the number of BindAsset calls issued for slot.
func (m *SlotManager) Generation(slot Slot) uint64 {
	if !slot.Valid() {
		return 0
	}
	return m.slots[slot].generation
}

// LastFailure returns the most recent load failure for slot, cleared by the next commit.
func (m *SlotManager) LastFailure(slot Slot) error {
	if !slot.Valid() || m.slots[slot].failure == nil {
		return nil
	}
	return m.slots[slot].failure
}

// Visible returns the slot's visibility setting. It applies to the current
// binding and is inherited by future ones.
func (m *SlotManager) Visible(slot Slot) bool {
	if !slot.Valid() {
		return false
	}
	return m.slots[slot].visible
}

// SetVisible updates the slot's visibility and its node in the scene graph.
func (m *SlotManager) SetVisible(slot Slot, visible bool) {
	if !slot.Valid() {
		return
	}
	st := &m.slots[slot]
	st.visible = visible
	if st.binding != nil {
		st.binding.node.Visible = visible
	}
}

// Close cancels the loader context and settles every outstanding request as cancelled.
func (m *SlotManager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.cancel()
	for req := range m.inflight {
		req.resolve(OutcomeCancelled, ErrClosed)
	}
	m.inflight = nil
}
