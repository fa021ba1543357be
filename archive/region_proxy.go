package archive

// ProxyRegion is a window [start, start+length) onto a parent rawFile
// (either the real underlying file or another Region), translating every
// read, write, seek and truncate by +start. It backs a Stream's view of
// the underlying file and a Block's view of its Stream.
type ProxyRegion struct {
	cursor
	parent rawFile
	start  int64
}

// NewProxyRegion wraps [start, start+length) of parent as a Region.
func NewProxyRegion(parent rawFile, start, length int64) *ProxyRegion {
	r := &ProxyRegion{parent: parent, start: start}
	r.length = length
	return r
}

func (r *ProxyRegion) read1(size int) ([]byte, error) {
	if _, err := r.parent.Seek(r.start+r.pos, 0); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := r.parent.Read(buf)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

func (r *ProxyRegion) Read(p []byte) (int, error) {
	return readBounded(&r.cursor, p, r.read1)
}

func (r *ProxyRegion) write1(pos int64, data []byte) (int, error) {
	if _, err := r.parent.Seek(r.start+pos, 0); err != nil {
		return 0, err
	}
	return r.parent.Write(data)
}

func (r *ProxyRegion) Write(p []byte) (int, error) {
	return writeGuarded(&r.cursor, p, r.write1)
}

func (r *ProxyRegion) Seek(offset int64, whence int) (int64, error) {
	return r.cursor.seek(offset, whence)
}

// Truncate resizes both this region and, by translating the offset, the
// parent it is a window onto.
func (r *ProxyRegion) Truncate(size int64) error {
	if size < 0 {
		return newErr(ReasonInvalidSeek)
	}
	if err := r.parent.Truncate(r.start + size); err != nil {
		return err
	}
	r.length = size
	return nil
}

func (r *ProxyRegion) Readable() bool { return true }
func (r *ProxyRegion) Writable() bool { return true }
func (r *ProxyRegion) Seekable() bool { return true }

func (r *ProxyRegion) Fileno() (uintptr, error) {
	if f, ok := r.parent.(filer); ok {
		return f.Fd(), nil
	}
	return 0, newErr(ReasonUnsupported)
}

func (r *ProxyRegion) Close() error {
	return closeRegion(&r.cursor, nil)
}
