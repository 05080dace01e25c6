package session

// Outcome is the settled result of a remote wallet call.
type Outcome[T any] struct {
	Value T
	Err   error
}

func settle[T any](value T, err error) Outcome[T] {
	return Outcome[T]{Value: value, Err: err}
}

func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}
