package game

import "sync"

// Reveal names an animation the presentation layer plays on request.
type Reveal string

const (
	RevealPhoto Reveal = "photo"
	RevealScore Reveal = "score"
)

func (r Reveal) Valid() bool { return r == RevealPhoto || r == RevealScore }

type readyKey struct {
	reveal Reveal
	slot   Slot
}

// Readiness tracks which reveal animations have a listener. Each signal is a
// channel closed exactly once, when the listener first attaches, so waiting
// turns never poll.
type Readiness struct {
	mu      sync.Mutex
	signals map[readyKey]chan struct{}
}

func NewReadiness() *Readiness {
	return &Readiness{signals: make(map[readyKey]chan struct{})}
}

func (r *Readiness) signal(k readyKey) chan struct{} {
	ch, ok := r.signals[k]
	if !ok {
		ch = make(chan struct{})
		r.signals[k] = ch
	}
	return ch
}

// Ready returns a channel closed once reveal for slot has a listener.
func (r *Readiness) Ready(reveal Reveal, slot Slot) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signal(readyKey{reveal, slot})
}

// MarkSubscribed records a listener. It reports false if one was already known.
func (r *Readiness) MarkSubscribed(reveal Reveal, slot Slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.signal(readyKey{reveal, slot})
	select {
	case <-ch:
		return false
	default:
		close(ch)
		return true
	}
}

// Subscribed reports whether reveal for slot has a listener.
func (r *Readiness) Subscribed(reveal Reveal, slot Slot) bool {
	select {
	case <-r.Ready(reveal, slot):
		return true
	default:
		return false
	}
}

// Clear forgets every listener that has attached. Turns already waiting keep
// their signal and are released by the next subscription.
func (r *Readiness) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, ch := range r.signals {
		select {
		case <-ch:
			delete(r.signals, k)
		default:
		}
	}
}
