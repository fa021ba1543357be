package archive

// proxyAttr stores a value locally until a delegate is available, at which
// point reads and writes forward to the delegate's get/set functions
// instead. This is the Go equivalent of python-xz's descriptor-based
// AttrProxy: Archive.preset/filters behave this way, proxying to the last
// Stream once one exists and falling back to local storage before that.
type proxyAttr[T any] struct {
	local    T
	delegate func() (get func() T, set func(T), ok bool)
}

func newProxyAttr[T any](delegate func() (get func() T, set func(T), ok bool)) *proxyAttr[T] {
	return &proxyAttr[T]{delegate: delegate}
}

// Get returns the delegate's current value if one exists, else the locally
// stored value.
func (p *proxyAttr[T]) Get() T {
	if get, _, ok := p.delegate(); ok {
		return get()
	}
	return p.local
}

// Set stores value on the delegate if one exists, else locally.
func (p *proxyAttr[T]) Set(value T) {
	if _, set, ok := p.delegate(); ok {
		set(value)
		return
	}
	p.local = value
}
