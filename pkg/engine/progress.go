package engine

// Step names one stage of an asset's pipeline. An asset moves
// Idle → Quoting → Building → Signing → Submitting → Confirming and ends in
// Succeeded or Failed; Idle is re-entered on a retryable failure while
// attempts remain.
type Step string

const (
	StepIdle       Step = "idle"
	StepQuoting    Step = "quoting"
	StepBuilding   Step = "building"
	StepSigning    Step = "signing"
	StepSubmitting Step = "submitting"
	StepConfirming Step = "confirming"
	StepSucceeded  Step = "succeeded"
	StepFailed     Step = "failed"
	StepSkipped    Step = "skipped"
)

// ProgressEvent is published after every state transition so the caller can
// keep a live status line. Attempt is 1-based.
type ProgressEvent struct {
	Symbol  string
	Step    Step
	Attempt int
	Message string
}

func (e *Engine) publish(symbol string, step Step, attempt int, message string) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{
			Symbol:  symbol,
			Step:    step,
			Attempt: attempt,
			Message: message,
		})
	}
}
