// Package list implements an intrusive doubly-linked list: the link fields
// live inside the payload type T rather than in a node allocated by the
// container, so List never allocates or frees and can be used before a
// general-purpose allocator is available.
package list

// Hook holds the prev/next pointers for a single list. A payload type
// embeds one Hook per list it can simultaneously belong to.
type Hook[T any] struct {
	prev, next *T
}

// HookOf is implemented by payload types so that List can reach their
// embedded Hook without reflection or a fixed field name.
type HookOf[T any] interface {
	ListHook() *Hook[T]
}

// List is an intrusive FIFO/deque of *T, ordered first..last.
type List[T HookOf[T]] struct {
	first, last *T
	len         int
}

// Len returns the number of elements currently linked into the list.
func (l *List[T]) Len() int { return l.len }

// IsEmpty returns true if the list has no elements.
func (l *List[T]) IsEmpty() bool { return l.len == 0 }

// First returns the head of the list, or nil if empty.
func (l *List[T]) First() *T { return l.first }

// Last returns the tail of the list, or nil if empty.
func (l *List[T]) Last() *T { return l.last }

// Next returns the element following v, or nil if v is the last element.
func (l *List[T]) Next(v *T) *T { return (*v).ListHook().next }

// Prev returns the element preceding v, or nil if v is the first element.
func (l *List[T]) Prev(v *T) *T { return (*v).ListHook().prev }

// Append inserts v at the tail of the list. O(1).
func (l *List[T]) Append(v *T) {
	h := (*v).ListHook()
	h.next = nil
	h.prev = l.last

	if l.last != nil {
		(*l.last).ListHook().next = v
	} else {
		l.first = v
	}

	l.last = v
	l.len++
}

// Prepend inserts v at the head of the list. O(1).
func (l *List[T]) Prepend(v *T) {
	h := (*v).ListHook()
	h.prev = nil
	h.next = l.first

	if l.first != nil {
		(*l.first).ListHook().prev = v
	} else {
		l.last = v
	}

	l.first = v
	l.len++
}

// InsertBefore links v immediately before mark, which must already be in the
// list. O(1).
func (l *List[T]) InsertBefore(v, mark *T) {
	if mark == nil {
		l.Append(v)
		return
	}

	markHook := (*mark).ListHook()
	h := (*v).ListHook()
	h.next = mark
	h.prev = markHook.prev

	if markHook.prev != nil {
		(*markHook.prev).ListHook().next = v
	} else {
		l.first = v
	}

	markHook.prev = v
	l.len++
}

// InsertAfter links v immediately after mark, which must already be in the
// list. O(1).
func (l *List[T]) InsertAfter(v, mark *T) {
	if mark == nil {
		l.Prepend(v)
		return
	}

	markHook := (*mark).ListHook()
	h := (*v).ListHook()
	h.prev = mark
	h.next = markHook.next

	if markHook.next != nil {
		(*markHook.next).ListHook().prev = v
	} else {
		l.last = v
	}

	markHook.next = v
	l.len++
}

// Remove unlinks v from the list. v must currently be an element of the
// list; removing an element not in the list corrupts list state. O(1).
func (l *List[T]) Remove(v *T) {
	h := (*v).ListHook()

	if h.prev != nil {
		(*h.prev).ListHook().next = h.next
	} else {
		l.first = h.next
	}

	if h.next != nil {
		(*h.next).ListHook().prev = h.prev
	} else {
		l.last = h.prev
	}

	h.prev, h.next = nil, nil
	l.len--
}

// PopFirst removes and returns the head of the list, or nil if empty.
func (l *List[T]) PopFirst() *T {
	v := l.first
	if v != nil {
		l.Remove(v)
	}
	return v
}

// Pop removes and returns the tail of the list, or nil if empty.
func (l *List[T]) Pop() *T {
	v := l.last
	if v != nil {
		l.Remove(v)
	}
	return v
}
