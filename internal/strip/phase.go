package strip

// Phase tracks capture progress for one session.
type Phase int

const (
	// PhaseIdle: no photos captured yet.
	PhaseIdle Phase = iota
	// PhaseAwaitingCapture: 1 or 2 photos captured.
	PhaseAwaitingCapture
	// PhaseReady: all three photos captured; submission allowed.
	PhaseReady
	// PhaseSubmitting: a submission owns the surface; captures are rejected
	// structurally, not via a side flag.
	PhaseSubmitting
	// PhaseDone: submitted; auto-resets to Idle after the grace delay.
	PhaseDone
	// PhaseFailed: submission aborted on a structural error that a retry
	// cannot fix; reset required.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingCapture:
		return "awaiting_capture"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}
