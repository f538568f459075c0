package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CollectLinks Phase = iota
	ProbeLinks
)

func (p Phase) String() string {
	switch p {
	case CollectLinks:
		return "collect_links"
	case ProbeLinks:
		return "probe_links"
	default:
		return ""
	}
}

// sendProgress never blocks; updates are dropped when nobody is reading.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

func collectedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectLinks,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d links to check...", total),
	}
}

func linkOKUpdate(step, total int, res LinkResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.Title, res.Kind),
		Data:    res,
	}
}

func linkBrokenUpdate(step, total int, res LinkResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (%s): %s", step, total, res.Title, res.Kind, res.Error),
		Data:    res,
	}
}
