// Package feed implements the list-fetching state contract used by dashboard
// feeds: a closed set of lifecycle states generic over the payload, and a
// controller that coalesces rapid query changes before fetching.
package feed

// Phase is the lifecycle of an asynchronous list fetch. The set is closed;
// there is no terminal phase, every phase can be re-entered.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// State is one point in the fetch lifecycle. Data is meaningful only in
// PhaseSuccess, Err only in PhaseError. Refreshing distinguishes an explicit
// refresh from a first load so consumers can render a different indicator.
type State[T any] struct {
	Phase      Phase  `json:"phase"`
	Data       T      `json:"data,omitempty"`
	Err        string `json:"error,omitempty"`
	Refreshing bool   `json:"refreshing,omitempty"`
}

func Idle[T any]() State[T] {
	return State[T]{Phase: PhaseIdle}
}

func Loading[T any](refreshing bool) State[T] {
	return State[T]{Phase: PhaseLoading, Refreshing: refreshing}
}

func Success[T any](data T) State[T] {
	return State[T]{Phase: PhaseSuccess, Data: data}
}

func Failure[T any](message string) State[T] {
	return State[T]{Phase: PhaseError, Err: message}
}
