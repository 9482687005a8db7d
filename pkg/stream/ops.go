package stream

import "context"

// Map transforms every value of in. While out is not being read, newer inputs replace
// the pending output, so the observer always catches up to the latest value.
func Map[A, B any](ctx context.Context, in <-chan A, fn func(A) B) <-chan B {
	out := make(chan B)
	go func() {
		defer close(out)
		var (
			pending    B
			hasPending bool
		)
		for {
			var send chan<- B
			if hasPending {
				send = out
			}
			select {
			case <-ctx.Done():
				return
			case a, ok := <-in:
				if !ok {
					flush(ctx, out, pending, hasPending)
					return
				}
				pending, hasPending = fn(a), true
			case send <- pending:
				var zero B
				pending, hasPending = zero, false
			}
		}
	}()
	return out
}

// Distinct drops values equal to the last value delivered.
func Distinct[T any](ctx context.Context, in <-chan T, equal func(a, b T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var (
			last       T
			hasLast    bool
			pending    T
			hasPending bool
		)
		for {
			var send chan<- T
			if hasPending {
				send = out
			}
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					flush(ctx, out, pending, hasPending)
					return
				}
				if hasLast && equal(last, v) {
					var zero T
					pending, hasPending = zero, false
					continue
				}
				pending, hasPending = v, true
			case send <- pending:
				last, hasLast = pending, true
				var zero T
				pending, hasPending = zero, false
			}
		}
	}()
	return out
}

// CombineLatest emits fn(a, b) once both inputs have produced a value and again
// whenever either changes. It stops when either input closes.
func CombineLatest[A, B, R any](ctx context.Context, as <-chan A, bs <-chan B, fn func(A, B) R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		var (
			a          A
			b          B
			hasA, hasB bool
			pending    R
			hasPending bool
		)
		for {
			var send chan<- R
			if hasPending {
				send = out
			}
			select {
			case <-ctx.Done():
				return
			case v, ok := <-as:
				if !ok {
					flush(ctx, out, pending, hasPending)
					return
				}
				a, hasA = v, true
			case v, ok := <-bs:
				if !ok {
					flush(ctx, out, pending, hasPending)
					return
				}
				b, hasB = v, true
			case send <- pending:
				var zero R
				pending, hasPending = zero, false
				continue
			}
			if hasA && hasB {
				pending, hasPending = fn(a, b), true
			}
		}
	}()
	return out
}

// First returns the first value of in, or ctx's error.
func First[T any](ctx context.Context, in <-chan T) (T, error) {
	select {
	case v, ok := <-in:
		if !ok {
			var zero T
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func flush[T any](ctx context.Context, out chan<- T, v T, ok bool) {
	if !ok {
		return
	}
	select {
	case out <- v:
	case <-ctx.Done():
	}
}
