package vkframe

// Destroyer is implemented by anything a Scope can own.
type Destroyer interface {
	Destroy()
}

// Handle owns exactly one native object and the function that destroys it.
// A Handle is move-only: Take transfers ownership and leaves the source
// inert, and Destroy on an inert handle does nothing.
type Handle[T comparable] struct {
	v       T
	destroy func(T)
}

// NewHandle wraps v so that destroy runs at most once.
func NewHandle[T comparable](v T, destroy func(T)) *Handle[T] {
	return &Handle[T]{v: v, destroy: destroy}
}

// Get returns the owned object, or the zero value when the handle is null.
func (h *Handle[T]) Get() T {
	return h.v
}

// Valid reports whether the handle still owns an object.
func (h *Handle[T]) Valid() bool {
	var zero T
	return h != nil && h.v != zero
}

// Take moves ownership into a new handle, nulling h.
func (h *Handle[T]) Take() *Handle[T] {
	var zero T
	n := &Handle[T]{v: h.v, destroy: h.destroy}
	h.v = zero
	h.destroy = nil
	return n
}

// Destroy releases the owned object. It is safe to call more than once.
func (h *Handle[T]) Destroy() {
	if !h.Valid() {
		return
	}
	var zero T
	v, destroy := h.v, h.destroy
	h.v = zero
	h.destroy = nil
	if destroy != nil {
		destroy(v)
	}
}

// DestroyFunc adapts a plain function to a Destroyer.
type DestroyFunc func()

// Destroy calls f.
func (f DestroyFunc) Destroy() {
	f()
}

// Scope is a node in the ownership tree. Children are released in the
// reverse of the order they were adopted, so an object adopted after its
// dependencies is always destroyed before them. Scopes can be adopted by
// other scopes.
type Scope struct {
	name     string
	children []Destroyer
}

// NewScope returns an empty scope. The name only appears in logs.
func NewScope(name string) *Scope {
	return &Scope{name: name}
}

// Adopt hands ownership of d to the scope and returns it for chaining.
func (s *Scope) Adopt(d Destroyer) Destroyer {
	s.children = append(s.children, d)
	return d
}

// Len is the number of children that have not been released yet.
func (s *Scope) Len() int {
	return len(s.children)
}

// Release destroys every child, last adopted first. The scope can be reused
// afterwards.
func (s *Scope) Release() {
	if len(s.children) > 0 {
		Logger().Debug("releasing scope", "scope", s.name, "children", len(s.children))
	}
	for i := len(s.children) - 1; i >= 0; i-- {
		s.children[i].Destroy()
		s.children[i] = nil
	}
	s.children = s.children[:0]
}

// Destroy lets a scope be owned by a parent scope.
func (s *Scope) Destroy() {
	s.Release()
}

// adopt is a helper for the common create-then-own pattern.
func adopt[T comparable](s *Scope, v T, destroy func(T)) T {
	s.Adopt(NewHandle(v, destroy))
	return v
}
