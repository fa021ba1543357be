package archive

// StaticRegion is a fixed, read-only, in-memory byte buffer wrapped as a
// Region. Block decompression does not use it: a Block reads its raw LZMA2
// payload straight from its ProxyRegion.
type StaticRegion struct {
	cursor
	data []byte
}

// NewStaticRegion wraps data as a read-only Region. The slice is retained,
// not copied; callers must not mutate it afterwards.
func NewStaticRegion(data []byte) *StaticRegion {
	r := &StaticRegion{data: data}
	r.length = int64(len(data))
	return r
}

func (r *StaticRegion) read1(size int) ([]byte, error) {
	return r.data[r.pos : r.pos+int64(size)], nil
}

func (r *StaticRegion) Read(p []byte) (int, error) {
	return readBounded(&r.cursor, p, r.read1)
}

func (r *StaticRegion) Write(p []byte) (int, error) {
	return 0, newErr(ReasonUnsupported)
}

func (r *StaticRegion) Seek(offset int64, whence int) (int64, error) {
	return r.cursor.seek(offset, whence)
}

// Truncate resizes the in-memory buffer, zero-extending on growth. Static
// regions are read-only but truncation is still a plain resize,
// independent of Writable.
func (r *StaticRegion) Truncate(size int64) error {
	if size < 0 {
		return newErr(ReasonInvalidSeek)
	}
	switch {
	case size < r.length:
		r.data = r.data[:size]
	case size > r.length:
		r.data = append(r.data, make([]byte, size-r.length)...)
	}
	r.length = size
	return nil
}

func (r *StaticRegion) Readable() bool { return true }
func (r *StaticRegion) Writable() bool { return false }
func (r *StaticRegion) Seekable() bool { return true }

func (r *StaticRegion) Fileno() (uintptr, error) {
	return 0, newErr(ReasonUnsupported)
}

func (r *StaticRegion) Close() error {
	return closeRegion(&r.cursor, nil)
}
