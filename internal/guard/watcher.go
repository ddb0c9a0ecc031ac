package guard

import (
	"sync"

	"github.com/nkiryanov/sims/internal/models"
)

// Session source the guard observes. Implemented by tokenstore.Store
type SessionSource interface {
	Session() models.Session
	Subscribe(fn func(models.Session)) (unsubscribe func())
}

// Guard keeps the decision of one view current while the session changes
type Guard struct {
	view View

	mu          sync.Mutex
	decision    Decision
	unsubscribe func()
	nextSub     int
	subs        map[int]func(Decision)
}

// New guard in unknown state. Bind it once the session is loaded
func New(view View) *Guard {
	return &Guard{
		view:     view,
		decision: Evaluate(models.Session{}, false, view.Allowed, view.Path),
		subs:     make(map[int]func(Decision)),
	}
}

// Bind resolves the guard against src and follows every later session change
func (g *Guard) Bind(src SessionSource) {
	unsubscribe := src.Subscribe(g.update)

	g.mu.Lock()
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	g.update(src.Session())
}

func (g *Guard) View() View {
	return g.view
}

func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Subscribe fn to decision changes
func (g *Guard) Subscribe(fn func(Decision)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

// Stop following the session
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	clear(g.subs)
}

func (g *Guard) update(s models.Session) {
	d := Evaluate(s, true, g.view.Allowed, g.view.Path)

	g.mu.Lock()
	if d == g.decision {
		g.mu.Unlock()
		return
	}
	g.decision = d
	fns := make([]func(Decision), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(d)
	}
}
