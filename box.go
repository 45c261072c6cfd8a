package arena

// Box owns a value in an arena together with the cleanup it needs. The
// arena never runs cleanup on its own; Box is for the few values that hold
// something outside the arena, such as a file or a lock.
type Box[T any] struct {
	v       *T
	cleanup func(*T)
}

// NewBox copies v into a and remembers cleanup for Drop.
func NewBox[T any](a *Arena, v T, cleanup func(*T)) Box[T] {
	return Box[T]{v: Alloc(a, v), cleanup: cleanup}
}

// Value returns the boxed value, or nil after Drop.
func (b *Box[T]) Value() *T {
	return b.v
}

// Drop runs the cleanup once. The memory itself stays in the arena until
// Reset or Release.
func (b *Box[T]) Drop() {
	if b.v == nil {
		return
	}
	if b.cleanup != nil {
		b.cleanup(b.v)
	}
	b.v = nil
}
