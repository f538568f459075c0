// package gate decides what a caller may see based on the session store
package gate

import (
	"context"
	"sync"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/store"
)

// State of the auth gate.
type State int

const (
	Pending State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "pending"
	}
}

// Resolve maps session fields onto a gate state. Loading wins regardless of user.
func Resolve(loading bool, user *models.User) State {
	switch {
	case loading:
		return Pending
	case user != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Source is the part of [store.SessionStore] the gate observes.
type Source interface {
	Snapshot() store.SessionState
	Subscribe(fn func(store.SessionState)) func()
}

// Transition records a state change.
type Transition struct {
	From State
	To   State
}

// Gate tracks the resolved state of a [Source] and wakes waiters when it leaves Pending.
type Gate struct {
	mu          sync.Mutex
	state       State
	user        *models.User
	version     uint64
	settled     chan struct{}
	transitions []Transition
	listeners   map[int]func(Transition)
	nextID      int
	unsubscribe func()
}

// New creates a gate following src until Close.
func New(src Source) *Gate {
	g := &Gate{
		state:     Pending,
		settled:   make(chan struct{}),
		listeners: make(map[int]func(Transition)),
	}
	g.unsubscribe = src.Subscribe(g.observe)
	g.observe(src.Snapshot())
	return g
}

func (g *Gate) observe(st store.SessionState) {
	next := Resolve(st.IsLoading, st.User)

	g.mu.Lock()
	if st.Version < g.version {
		g.mu.Unlock()
		return
	}
	g.version = st.Version
	g.user = st.User
	prev := g.state
	if next == prev {
		g.mu.Unlock()
		return
	}
	g.state = next
	t := Transition{From: prev, To: next}
	g.transitions = append(g.transitions, t)
	if next != Pending {
		select {
		case <-g.settled:
		default:
			close(g.settled)
		}
	}
	fns := make([]func(Transition), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// User returns the user seen with the latest state, or nil.
func (g *Gate) User() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return nil
	}
	u := g.user.Clone()
	return &u
}

// Transitions returns every state change observed so far.
func (g *Gate) Transitions() []Transition {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Transition(nil), g.transitions...)
}

// OnChange registers fn for every transition.
func (g *Gate) OnChange(fn func(Transition)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// Wait blocks until the gate first leaves Pending or ctx is done.
func (g *Gate) Wait(ctx context.Context) (State, error) {
	select {
	case <-g.settled:
		return g.State(), nil
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
}

// Close stops observing the source.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}
