package preview

import "fmt"

// SuccessNotice renders the user-facing message for a successful preview.
// Tier 1 is the default strategy and carries no cost surprise, so the
// message stays plain. Any higher tier names the strategy and its per-page
// cost, since that has direct billing implications the user should see
// every time it occurs.
func SuccessNotice(elements []Element, info *TierInfo) string {
	base := fmt.Sprintf("Preview ready: %d elements detected", len(elements))
	if info == nil || info.TierUsed <= 1 {
		return base
	}
	return fmt.Sprintf("%s via %s (tier %d, $%.4f/page)",
		base, info.TierName, info.TierUsed, info.CostPerPage)
}

// EscalationNotice is shown once when the fast path gives up and an async
// task has been accepted.
func EscalationNotice(taskID string) string {
	return fmt.Sprintf("This is taking longer than usual; scraping continues in the background (task %s). Live updates will follow.", taskID)
}

// FailureNotice renders the user-facing message for a terminal failure.
func FailureNotice(reason string) string {
	if reason == "" {
		reason = "unknown error"
	}
	return "Preview failed: " + reason
}
