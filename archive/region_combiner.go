package archive

// CombinerRegion concatenates a sequence of child Regions into one
// contiguous Region, keyed by each child's starting offset in a floorMap
// for O(log n) lookup. It backs both Stream (children are Blocks) and
// Archive (children are Streams).
//
// Writes always target the last child. When there is no last child, or
// the last child refuses the write (Writable() is false, e.g. a Stream
// whose compressor already flushed), makeTail is called to produce a new
// one, which is appended at the combiner's current length and then
// receives the write.
type CombinerRegion[C Region] struct {
	cursor
	children *floorMap[C]
	makeTail func() (C, error)
	finalize func() error
}

// NewCombinerRegion builds an empty combiner. Append children with Add
// before use, or rely on makeTail to create them lazily on write.
func NewCombinerRegion[C Region](makeTail func() (C, error), finalize func() error) *CombinerRegion[C] {
	return &CombinerRegion[C]{
		children: newFloorMap[C](),
		makeTail: makeTail,
		finalize: finalize,
	}
}

// Add appends an already-constructed child at the combiner's current end.
// Used while parsing an existing file, where children are discovered
// rather than created fresh.
func (r *CombinerRegion[C]) Add(child C) {
	r.children.Set(r.length, child)
	r.length += child.Len()
}

// Children returns the child regions in ascending offset order.
func (r *CombinerRegion[C]) Children() []C { return r.children.Values() }

// ChildOffsets returns the starting offset of each child, ascending.
func (r *CombinerRegion[C]) ChildOffsets() []int64 { return r.children.Keys() }

// NumChildren returns the number of children currently present.
func (r *CombinerRegion[C]) NumChildren() int { return r.children.Len() }

// LastChild returns the most recently appended child. ok is false if the
// combiner has no children.
func (r *CombinerRegion[C]) LastChild() (child C, ok bool) {
	return r.children.LastValue()
}

func (r *CombinerRegion[C]) read1(size int) ([]byte, error) {
	start, child, ok := r.children.Floor(r.pos)
	if !ok {
		return nil, newErr(ReasonInvalidSeek)
	}
	childPos := r.pos - start
	if _, err := child.Seek(childPos, 0); err != nil {
		return nil, err
	}
	max := child.Len() - childPos
	if int64(size) > max {
		size = int(max)
	}
	buf := make([]byte, size)
	n, err := child.Read(buf)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

func (r *CombinerRegion[C]) Read(p []byte) (int, error) {
	return readBounded(&r.cursor, p, r.read1)
}

func (r *CombinerRegion[C]) write1(pos int64, data []byte) (int, error) {
	start, child, ok := r.children.LastKeyValue()
	if !ok || !child.Writable() || pos < start {
		newChild, err := r.makeTail()
		if err != nil {
			return 0, err
		}
		child = newChild
		start = r.length
		r.children.Set(start, child)
	}
	if _, err := child.Seek(pos-start, 0); err != nil {
		return 0, err
	}
	return child.Write(data)
}

func (r *CombinerRegion[C]) Write(p []byte) (int, error) {
	return writeGuarded(&r.cursor, p, r.write1)
}

func (r *CombinerRegion[C]) Seek(offset int64, whence int) (int64, error) {
	return r.cursor.seek(offset, whence)
}

// Truncate drops every child past the one containing size and truncates
// that child in place.
func (r *CombinerRegion[C]) Truncate(size int64) error {
	if size < 0 {
		return newErr(ReasonInvalidSeek)
	}
	if size == 0 {
		for _, child := range r.children.Values() {
			if err := child.Truncate(0); err != nil {
				return err
			}
		}
		r.children.DropFrom(0)
		r.length = 0
		return nil
	}
	start, child, ok := r.children.Floor(size - 1)
	if !ok {
		return newErr(ReasonInvalidSeek)
	}
	if err := child.Truncate(size - start); err != nil {
		return err
	}
	r.children.DropFrom(start + 1)
	r.length = size
	return nil
}

func (r *CombinerRegion[C]) Readable() bool { return true }

// Writable reports whether this combiner still accepts appended bytes: it
// must support creating new children at all, and must not itself have been
// closed already (ChangeTail closes the current tail without removing it,
// specifically so that the next write1 sees Writable() go false here and
// calls makeTail instead of reopening a finalized child).
func (r *CombinerRegion[C]) Writable() bool { return r.makeTail != nil && !r.closed }
func (r *CombinerRegion[C]) Seekable() bool { return true }

func (r *CombinerRegion[C]) Fileno() (uintptr, error) {
	return 0, newErr(ReasonUnsupported)
}

// Close closes every child in order, dropping a trailing child that ended
// up empty (an appended-but-never-written tail is discarded rather than
// persisted), then runs the combiner's own finalize hook.
func (r *CombinerRegion[C]) Close() error {
	if r.closed {
		return nil
	}
	for _, child := range r.children.Values() {
		if err := child.Close(); err != nil {
			return err
		}
	}
	if lastKey, last, ok := r.children.LastKeyValue(); ok && last.Len() == 0 {
		r.children.Delete(lastKey)
		r.length = lastKey
	}
	return closeRegion(&r.cursor, r.finalize)
}

// ChangeTail closes the current last child (if any) without removing it,
// so that the next write creates a fresh tail via makeTail instead of
// continuing to append to it. Used to implement explicit block/stream
// boundaries requested by a caller.
func (r *CombinerRegion[C]) ChangeTail() error {
	_, last, ok := r.children.LastKeyValue()
	if !ok {
		return nil
	}
	return last.Close()
}
