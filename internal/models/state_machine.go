package models

// SessionState is the closed enumeration of lifecycle states a Session can
// occupy. The zero value represents "no session yet" and is only a valid
// `current` argument to Advance alongside EventCreated.
type SessionState string

const (
	// StateInitialized is the state immediately after creation.
	StateInitialized SessionState = "initialized"
	// StateInProgress is the state after a successful step advance.
	StateInProgress SessionState = "in_progress"
	// StateModified is the state after a partial-parameter PATCH.
	StateModified SessionState = "modified"
	// StateReinitialized is the state after a full-parameter PUT.
	StateReinitialized SessionState = "reinitialized"
	// StateCompleted is the terminal state once current_step == total_steps.
	StateCompleted SessionState = "completed"
	// StateError is the terminal state forced by a runtime invariant violation
	// or by a fatal path-build failure (numeric underflow, insufficient history).
	StateError SessionState = "error"
)

// Event is one of the five lifecycle triggers the state machine reacts to.
type Event string

const (
	// EventCreated fires once, on session creation.
	EventCreated Event = "created"
	// EventRead fires on every GET (step advance).
	EventRead Event = "read"
	// EventPatched fires on PATCH (partial parameter change).
	EventPatched Event = "patched"
	// EventReplaced fires on PUT (full reinitialization).
	EventReplaced Event = "replaced"
	// EventTerminated fires on DELETE; it never produces a next state — the
	// session record is removed by the caller instead (see Advance doc).
	EventTerminated Event = "terminated"
)

// patchReplaceSources lists every state from which Patched/Replaced are
// legal — per spec §4.3 that is every state, including Completed and Error.
var patchReplaceSources = map[SessionState]bool{
	StateInitialized:    true,
	StateInProgress:     true,
	StateModified:       true,
	StateReinitialized:  true,
	StateCompleted:      true,
	StateError:          true,
}

// readableSources lists the states from which Read attempts a step advance
// rather than failing outright.
var readableSources = map[SessionState]bool{
	StateInitialized:   true,
	StateInProgress:    true,
	StateModified:      true,
	StateReinitialized: true,
}

// Advance is the pure transition function specified in spec §4.3: given the
// current state, the triggering event, and the session's cursor/total-steps,
// it returns the next state or a *SessionError describing why the
// transition is rejected. It performs no I/O and mutates nothing.
//
// Only EventRead looks at nextStep and totalSteps: the caller passes the
// tentative cursor after the advance (currentStep+1) as nextStep, and
// Advance returns StateCompleted once it reaches totalSteps, otherwise
// StateInProgress.
func Advance(current SessionState, event Event, nextStep, totalSteps int) (SessionState, error) {
	switch event {
	case EventCreated:
		if current != "" {
			return "", NewInvalidTransition(current, event)
		}
		return StateInitialized, nil

	case EventRead:
		if current == StateCompleted {
			return "", &SessionError{Kind: KindAlreadyCompleted, Message: "session already completed"}
		}
		if current == StateError {
			return "", &SessionError{Kind: KindInErrorState, Message: "session is in error state"}
		}
		if !readableSources[current] {
			return "", NewInvalidTransition(current, event)
		}
		if nextStep >= totalSteps {
			return StateCompleted, nil
		}
		return StateInProgress, nil

	case EventPatched:
		if !patchReplaceSources[current] {
			return "", NewInvalidTransition(current, event)
		}
		return StateModified, nil

	case EventReplaced:
		if !patchReplaceSources[current] {
			return "", NewInvalidTransition(current, event)
		}
		return StateReinitialized, nil

	case EventTerminated:
		if current == "" {
			return "", NewInvalidTransition(current, event)
		}
		// No next state: the caller removes the record entirely.
		return "", nil

	default:
		return "", NewInvalidTransition(current, event)
	}
}
