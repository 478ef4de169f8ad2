package datasource

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Value returns the wrapped value and error.
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

// Err returns the wrapped error, nil on success.
func (r Result[T]) Err() error { return r.err }

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.err == nil }

// OrElse returns r unchanged on success; otherwise it returns the result of
// recover applied to the error.
func (r Result[T]) OrElse(recover func(error) Result[T]) Result[T] {
	if r.err == nil || recover == nil {
		return r
	}
	return recover(r.err)
}

// Map applies fn to a successful value.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return Ok(fn(r.value))
}
