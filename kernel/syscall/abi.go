package syscall

import "norn/kernel"

// RawArgs holds the six integer argument slots the SYSCALL ABI passes in
// rdi, rsi, rdx, r10, r8, r9, in that order.
type RawArgs [6]uint64

// Handler is the uniform shape every dispatch table entry reduces to: six
// raw register values in, one raw return value and an optional *kernel.Error
// out. Concrete handlers are written with typed signatures (see handlers.go)
// and lifted to this shape by the Wrap* functions below.
type Handler func(args RawArgs) (uint64, *kernel.Error)

// word is satisfied by every primitive type a handler's typed signature may
// use for an argument or return value: plain integers for scalar syscall
// arguments, uintptr for a pointer passed as an integer, matching the "integer
// width, pointer from integer" conversions the dispatch layer is responsible
// for.
type word interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uintptr
}

func wordFromRaw[T word](v uint64) T { return T(v) }
func rawFromWord[T word](v T) uint64 { return uint64(v) }

// Wrap0 lifts a zero-argument handler into the table's uniform Handler shape.
func Wrap0[R word](fn func() (R, *kernel.Error)) Handler {
	return func(RawArgs) (uint64, *kernel.Error) {
		r, err := fn()
		return rawFromWord(r), err
	}
}

// Wrap1 lifts a one-argument handler.
func Wrap1[A1, R word](fn func(A1) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(wordFromRaw[A1](a[0]))
		return rawFromWord(r), err
	}
}

// Wrap2 lifts a two-argument handler.
func Wrap2[A1, A2, R word](fn func(A1, A2) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(wordFromRaw[A1](a[0]), wordFromRaw[A2](a[1]))
		return rawFromWord(r), err
	}
}

// Wrap3 lifts a three-argument handler.
func Wrap3[A1, A2, A3, R word](fn func(A1, A2, A3) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(wordFromRaw[A1](a[0]), wordFromRaw[A2](a[1]), wordFromRaw[A3](a[2]))
		return rawFromWord(r), err
	}
}

// Wrap4 lifts a four-argument handler.
func Wrap4[A1, A2, A3, A4, R word](fn func(A1, A2, A3, A4) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(wordFromRaw[A1](a[0]), wordFromRaw[A2](a[1]), wordFromRaw[A3](a[2]), wordFromRaw[A4](a[3]))
		return rawFromWord(r), err
	}
}

// Wrap5 lifts a five-argument handler.
func Wrap5[A1, A2, A3, A4, A5, R word](fn func(A1, A2, A3, A4, A5) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(wordFromRaw[A1](a[0]), wordFromRaw[A2](a[1]), wordFromRaw[A3](a[2]), wordFromRaw[A4](a[3]), wordFromRaw[A5](a[4]))
		return rawFromWord(r), err
	}
}

// Wrap6 lifts a six-argument handler.
func Wrap6[A1, A2, A3, A4, A5, A6, R word](fn func(A1, A2, A3, A4, A5, A6) (R, *kernel.Error)) Handler {
	return func(a RawArgs) (uint64, *kernel.Error) {
		r, err := fn(
			wordFromRaw[A1](a[0]), wordFromRaw[A2](a[1]), wordFromRaw[A3](a[2]),
			wordFromRaw[A4](a[3]), wordFromRaw[A5](a[4]), wordFromRaw[A6](a[5]),
		)
		return rawFromWord(r), err
	}
}
