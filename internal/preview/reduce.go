package preview

import "fmt"

// Reduce applies one push message to a state snapshot and returns the next
// state. It is a pure function so the commit-once and cross-task-isolation
// rules can be tested without a live transport.
//
// Rules:
//   - While pending, a message for a different task is discarded without
//     side effect (the returned state equals the input).
//   - The first terminal message wins; once terminal, every later message
//     for the same request is a no-op and never overwrites the result.
//   - A message while idle or mid sync attempt is a programming error and
//     is reported via ErrUnexpectedMessage.
func Reduce(s State, msg Message) (State, error) {
	switch s.Phase {
	case PhaseTerminal:
		return s, nil
	case PhasePendingAsync:
		// fall through below
	default:
		return s, fmt.Errorf("%w: phase %q, message %q", ErrUnexpectedMessage, s.Phase, msg.Type)
	}

	if msg.TaskID != s.TaskID {
		return s, nil
	}

	switch msg.Type {
	case MessageProgress:
		s.StatusText = progressText(msg)
		return s, nil
	case MessageComplete:
		result := Result{Kind: ResultSynchronous, TaskID: msg.TaskID}
		if msg.Data != nil {
			result.Elements = msg.Data.Elements
			result.TierInfo = msg.Data.TierInfo
		}
		s.Phase = PhaseTerminal
		s.TaskID = ""
		s.Result = &result
		return s, nil
	case MessageError:
		reason := msg.Error
		if reason == "" {
			reason = "scrape task failed"
		}
		s.Phase = PhaseTerminal
		s.TaskID = ""
		s.Result = &Result{Kind: ResultFailed, TaskID: msg.TaskID, Reason: reason}
		return s, nil
	default:
		return s, fmt.Errorf("%w: unknown message type %q", ErrUnexpectedMessage, msg.Type)
	}
}

func progressText(msg Message) string {
	switch {
	case msg.Tier > 0 && msg.TierName != "":
		return fmt.Sprintf("escalated to tier %d (%s)", msg.Tier, msg.TierName)
	case msg.Tier > 0:
		return fmt.Sprintf("escalated to tier %d", msg.Tier)
	case msg.Status != "":
		return msg.Status
	default:
		return "working"
	}
}
