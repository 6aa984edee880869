// Package event provides typed observer registration.
//
// A [Listeners] value holds callbacks for one payload type. Registration
// returns a function that removes the callback, so components expose
// methods such as OnUpdated(fn) (off func()) instead of string-keyed
// emitters.
package event

// Listeners is a list of callbacks for payloads of type T. The zero value is
// ready to use. It is not safe for concurrent use; owners confine it to
// their execution context.
type Listeners[T any] struct {
	next  int
	funcs []entry[T]
}

type entry[T any] struct {
	id int
	fn func(T)
}

// Add registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (l *Listeners[T]) Add(fn func(T)) (off func()) {
	l.next++
	id := l.next
	l.funcs = append(l.funcs, entry[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

func (l *Listeners[T]) remove(id int) {
	for i, e := range l.funcs {
		if e.id == id {
			l.funcs = append(l.funcs[:i:i], l.funcs[i+1:]...)
			return
		}
	}
}

// Emit calls every registered callback in registration order. Callbacks
// added or removed during Emit take effect on the next call.
func (l *Listeners[T]) Emit(v T) {
	if len(l.funcs) == 0 {
		return
	}
	funcs := append([]entry[T](nil), l.funcs...)
	for _, e := range funcs {
		e.fn(v)
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners[T]) Len() int { return len(l.funcs) }

// Clear removes every callback.
func (l *Listeners[T]) Clear() { l.funcs = nil }
