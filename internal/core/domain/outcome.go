package domain

// OutcomeStatus classifies a best-effort side call.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is the result of a call whose failure must not stop the critical path
// (reputation proofs, image generation). Err is set only for OutcomeFailed.
type Outcome struct {
	Status OutcomeStatus
	Detail string
	Err    error
}

func Succeeded(detail string) Outcome {
	return Outcome{Status: OutcomeSucceeded, Detail: detail}
}

func Failed(err error) Outcome {
	return Outcome{Status: OutcomeFailed, Err: err}
}

func Skipped(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Detail: reason}
}
