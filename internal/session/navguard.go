package session

// NavKind identifies which navigation event the client intercepted.
type NavKind string

const (
	NavUnload  NavKind = "unload"
	NavBack    NavKind = "back"
	NavHidden  NavKind = "hidden"
	NavRefresh NavKind = "refresh"
)

// NavDecision is the guard's verdict for one intercepted event.
type NavDecision int

const (
	// NavWarn tells the client to cancel the navigation, repush history
	// state, and show a warning.
	NavWarn NavDecision = iota
	// NavForceSubmit escalates the event into a forced submission.
	NavForceSubmit
)

// NavigationGuard tracks escalation across intercepted navigation events.
// The first interception of any kind warns and arms the escalated flag;
// every interception after that forces a submit. It is driven from the
// controller's event loop, so no locking is needed.
type NavigationGuard struct {
	escalated bool
}

// Decide classifies one intercepted event.
func (g *NavigationGuard) Decide(kind NavKind) NavDecision {
	if g.escalated {
		return NavForceSubmit
	}
	g.escalated = true
	return NavWarn
}

// Escalated reports whether the next event will force a submission.
func (g *NavigationGuard) Escalated() bool {
	return g.escalated
}
