package archive

import "io"

// Region is a length-delimited, seekable, possibly-writable byte view.
// It is the uniform abstraction used to represent a file, a stream within
// it, and a block within a stream.
//
// Reads never return more than Len()-Tell() bytes (empty at or after the
// end). Writes are permitted only when the cursor is at or past Len(); a
// gap between Len() and the cursor is zero-filled first. Truncate sets
// Len(), zero-extending on growth. Close is idempotent and, on its first
// call, runs whatever write-finalization the region's concrete kind needs.
type Region interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	Len() int64
	Tell() int64
	Truncate(size int64) error

	Readable() bool
	Writable() bool
	Seekable() bool

	// Fileno returns the OS file descriptor backing this region, if any.
	Fileno() (uintptr, error)
}

// rawFile is the minimal surface a Region needs from whatever it wraps:
// either the real underlying file handle, or another Region (so Proxy can
// stack on top of a Combiner transparently).
type rawFile interface {
	io.Reader
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

// filer is implemented by *os.File; used to satisfy Fileno().
type filer interface {
	Fd() uintptr
}

// cursor holds the bookkeeping shared by every Region variant: position,
// current length, and the write-lifecycle "modified" bit from spec §4.2.
type cursor struct {
	pos      int64
	length   int64
	modified bool
	closed   bool
}

func (c *cursor) Len() int64  { return c.length }
func (c *cursor) Tell() int64 { return c.pos }

func (c *cursor) seek(pos int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		// pos is already absolute
	case io.SeekCurrent:
		pos += c.pos
	case io.SeekEnd:
		pos += c.length
	default:
		return 0, newErr(ReasonInvalidSeek)
	}
	if pos < 0 {
		return 0, newErr(ReasonInvalidSeek)
	}
	c.pos = pos
	return c.pos, nil
}

// readBounded implements the generic "read at most n bytes, never past Len"
// loop from spec §4.2, delegating each chunk to read1.
func readBounded(c *cursor, p []byte, read1 func(size int) ([]byte, error)) (int, error) {
	remaining := int64(len(p))
	if avail := c.length - c.pos; remaining > avail {
		remaining = avail
	}
	if remaining <= 0 {
		return 0, nil
	}
	total := 0
	for remaining > 0 {
		chunk, err := read1(int(remaining))
		if err != nil {
			return total, err
		}
		n := copy(p[total:], chunk)
		total += n
		c.pos += int64(n)
		remaining -= int64(n)
		if n == 0 && len(chunk) == 0 {
			// A variant returning no data without an error makes no
			// progress; callers that can legitimately do this (the
			// block decompressor) always pair it with an error instead.
			break
		}
	}
	return total, nil
}

// writeGuarded implements the generic "write only from the end, zero-fill
// any gap first" rule from spec §4.2, delegating the actual byte placement
// to write1(absolutePos, data).
func writeGuarded(c *cursor, data []byte, write1 func(pos int64, data []byte) (int, error)) (int, error) {
	if c.pos < c.length {
		return 0, newErr(ReasonUnsupported)
	}
	if gap := c.pos - c.length; gap > 0 {
		if _, err := write1(c.length, make([]byte, gap)); err != nil {
			return 0, err
		}
	}
	n, err := write1(c.pos, data)
	c.pos += int64(n)
	if c.pos > c.length {
		c.length = c.pos
	}
	if n > 0 {
		c.modified = true
	}
	return n, err
}

// closeRegion implements the generic idempotent-close + finalize-once-if-
// modified rule shared by every Region variant.
func closeRegion(c *cursor, finalize func() error) error {
	if c.closed {
		return nil
	}
	if c.modified && finalize != nil {
		if err := finalize(); err != nil {
			return err
		}
		c.modified = false
	}
	c.closed = true
	return nil
}
