package preview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pendingState(taskID string) State {
	return State{Phase: PhasePendingAsync, TaskID: taskID}
}

// TestReduceCommitOnce feeds a terminal message followed by stragglers and
// verifies the first terminal message wins and is never overwritten.
func TestReduceCommitOnce(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{Type: MessageProgress, TaskID: "T1", Status: "queued"},
		{Type: MessageComplete, TaskID: "T1", Data: &TaskResult{
			Elements: []Element{{Selector: ".price"}},
			TierInfo: &TierInfo{TierUsed: 2, TierName: "Browser Render", CostPerPage: 0.02},
		}},
		{Type: MessageProgress, TaskID: "T1", Status: "late"},
		{Type: MessageError, TaskID: "T1", Error: "late failure"},
	}

	s := pendingState("T1")
	for _, msg := range msgs {
		next, err := Reduce(s, msg)
		require.NoError(t, err)
		s = next
	}

	require.Equal(t, PhaseTerminal, s.Phase)
	require.NotNil(t, s.Result)
	require.Equal(t, ResultSynchronous, s.Result.Kind)
	require.Len(t, s.Result.Elements, 1)
	require.Equal(t, "Browser Render", s.Result.TierInfo.TierName)
}

// TestReduceErrorFirstWins mirrors the tie-break rule in the other order.
func TestReduceErrorFirstWins(t *testing.T) {
	t.Parallel()

	s := pendingState("T1")
	s, err := Reduce(s, Message{Type: MessageError, TaskID: "T1", Error: "render crashed"})
	require.NoError(t, err)
	require.Equal(t, ResultFailed, s.Result.Kind)
	require.Equal(t, "render crashed", s.Result.Reason)

	s, err = Reduce(s, Message{Type: MessageComplete, TaskID: "T1", Data: &TaskResult{}})
	require.NoError(t, err)
	require.Equal(t, ResultFailed, s.Result.Kind, "terminal result must not be overwritten")
}

// TestReduceCrossTaskIsolation verifies messages for a different task never
// alter state, regardless of type.
func TestReduceCrossTaskIsolation(t *testing.T) {
	t.Parallel()

	before := pendingState("T1")
	for _, typ := range []MessageType{MessageProgress, MessageComplete, MessageError} {
		after, err := Reduce(before, Message{Type: typ, TaskID: "T2"})
		require.NoError(t, err)
		require.Equal(t, before, after, "message type %s must be a no-op", typ)
	}
}

func TestReduceProgressUpdatesStatusOnly(t *testing.T) {
	t.Parallel()

	s := pendingState("T1")
	s, err := Reduce(s, Message{Type: MessageProgress, TaskID: "T1", Status: "escalated", Tier: 2, TierName: "Browser Render"})
	require.NoError(t, err)
	require.Equal(t, PhasePendingAsync, s.Phase)
	require.Nil(t, s.Result)
	require.Equal(t, "escalated to tier 2 (Browser Render)", s.StatusText)
}

// TestReduceUnexpectedPhase asserts a terminal message outside pendingAsync
// is flagged as a programming error rather than silently dropped.
func TestReduceUnexpectedPhase(t *testing.T) {
	t.Parallel()

	for _, phase := range []Phase{PhaseIdle, PhaseSyncAttempt} {
		_, err := Reduce(State{Phase: phase}, Message{Type: MessageComplete, TaskID: "T1"})
		require.ErrorIs(t, err, ErrUnexpectedMessage, "phase %s", phase)
	}
}

func TestReduceUnknownMessageType(t *testing.T) {
	t.Parallel()

	_, err := Reduce(pendingState("T1"), Message{Type: "heartbeat", TaskID: "T1"})
	require.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestReduceErrorWithoutReasonGetsDefault(t *testing.T) {
	t.Parallel()

	s, err := Reduce(pendingState("T1"), Message{Type: MessageError, TaskID: "T1"})
	require.NoError(t, err)
	require.Equal(t, "scrape task failed", s.Result.Reason)
}
