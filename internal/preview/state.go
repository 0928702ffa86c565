package preview

// ResultKind tags the committed outcome of a preview request.
type ResultKind string

// Result kinds.
const (
	// ResultSynchronous carries element data, produced by the fast path or
	// by a complete push message on the escalated path.
	ResultSynchronous ResultKind = "synchronous"
	// ResultEscalated reports that an asynchronous task was accepted; the
	// terminal outcome will follow over the push channel.
	ResultEscalated ResultKind = "escalated"
	// ResultFailed reports a terminal failure.
	ResultFailed ResultKind = "failed"
)

// Result is the single outcome committed for a preview request.
type Result struct {
	Kind     ResultKind `json:"kind"`
	Elements []Element  `json:"elements,omitempty"`
	TierInfo *TierInfo  `json:"tier_info,omitempty"`
	TaskID   string     `json:"task_id,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// Phase is the orchestration state machine position.
type Phase string

// Allowed phases. Transitions follow idle -> syncAttempt -> (terminal |
// pendingAsync -> terminal); anything else is rejected by Reduce.
const (
	PhaseIdle         Phase = "idle"
	PhaseSyncAttempt  Phase = "syncAttempt"
	PhasePendingAsync Phase = "pendingAsync"
	PhaseTerminal     Phase = "terminal"
)

// State is the orchestrator's small shared-state record. It is owned
// exclusively by one orchestrator instance; copies of it are handed to
// watchers as immutable snapshots.
type State struct {
	Phase Phase `json:"phase"`
	// TaskID is the currently tracked async task, set only while pending.
	TaskID string `json:"task_id,omitempty"`
	// StatusText is a human-readable progress note, updated by progress
	// messages while pending. It never changes the committed result.
	StatusText string `json:"status_text,omitempty"`
	// Result is set exactly once, when the state machine reaches terminal.
	Result *Result `json:"result,omitempty"`
}

// Terminal reports whether a result has been committed.
func (s State) Terminal() bool {
	return s.Phase == PhaseTerminal
}
