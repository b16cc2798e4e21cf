package game

import (
	"context"
	"sync"
)

// consentGate is a single-resolution future for one yes/no prompt.
type consentGate struct {
	mu        sync.Mutex
	done      chan struct{}
	accepted  bool
	resolved  bool
	discarded bool
}

func newConsentGate() *consentGate {
	return &consentGate{done: make(chan struct{})}
}

// resolve fulfils the gate. Only the first decision counts.
func (g *consentGate) resolve(accepted bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.discarded {
		return ErrNoPendingConsent
	}
	if g.resolved {
		return ErrDecisionAlreadySubmitted
	}
	g.resolved = true
	g.accepted = accepted
	close(g.done)
	return nil
}

// discard abandons the gate; later decisions are rejected.
func (g *consentGate) discard() {
	g.mu.Lock()
	g.discarded = true
	g.mu.Unlock()
}

func (g *consentGate) wait(ctx context.Context) (bool, error) {
	select {
	case <-g.done:
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.accepted, nil
	case <-ctx.Done():
		g.discard()
		return false, ctx.Err()
	}
}
