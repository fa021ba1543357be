package archive

import (
	"io"
	"testing"
)

// memFile is a minimal in-memory rawFile (Read/Write/Seek/Truncate) used to
// back ProxyRegion and CombinerRegion tests without touching the
// filesystem.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func (m *memFile) Truncate(size int64) error {
	if size <= int64(len(m.buf)) {
		m.buf = m.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

func TestStaticRegionReadAndSeek(t *testing.T) {
	r := NewStaticRegion([]byte("hello world"))
	if r.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", r.Len())
	}

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("Read() = (%d, %v), buf=%q", n, err, buf)
	}

	if _, err := r.Seek(6, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf = make([]byte, 5)
	n, _ = r.Read(buf)
	if string(buf[:n]) != "world" {
		t.Errorf("Read after seek = %q, want %q", buf[:n], "world")
	}

	if _, err := r.Write([]byte("x")); err == nil {
		t.Error("Write on StaticRegion = nil error, want error")
	}
}

func TestStaticRegionTruncate(t *testing.T) {
	r := NewStaticRegion([]byte("hello"))
	if err := r.Truncate(3); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if err := r.Truncate(6); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 6 || r.data[5] != 0 {
		t.Errorf("Truncate growth not zero-filled: %q", r.data)
	}
}

func TestProxyRegionReadWrite(t *testing.T) {
	parent := &memFile{buf: []byte("0123456789")}
	r := NewProxyRegion(parent, 3, 4) // window onto "3456"

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	if err != nil || string(buf[:n]) != "3456" {
		t.Fatalf("Read() = (%q, %v), want 3456", buf[:n], err)
	}

	if _, err := r.Write([]byte("AB")); err != nil {
		t.Fatalf("Write() at end: %v", err)
	}
	if r.Len() != 6 {
		t.Fatalf("Len() after write = %d, want 6", r.Len())
	}
	if string(parent.buf) != "0123456AB9" {
		t.Errorf("parent.buf = %q, want 0123456AB9", parent.buf)
	}
}

func TestProxyRegionWriteRejectsBackwardPosition(t *testing.T) {
	parent := &memFile{buf: []byte("0123456789")}
	r := NewProxyRegion(parent, 0, 4)
	if _, err := r.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Write([]byte("x")); err == nil {
		t.Error("Write before end-of-region = nil error, want error")
	}
}

func TestProxyRegionTruncate(t *testing.T) {
	parent := &memFile{buf: []byte("0123456789")}
	r := NewProxyRegion(parent, 2, 6) // window onto "234567"
	if err := r.Truncate(3); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if len(parent.buf) != 5 {
		t.Errorf("parent truncated to %d bytes, want 5", len(parent.buf))
	}
}

// fakeChild is a tiny in-memory Region used to exercise CombinerRegion
// without depending on Block/Stream.
type fakeChild struct {
	cursor
	data     []byte
	writable bool
}

func newFakeChild(data []byte, writable bool) *fakeChild {
	c := &fakeChild{data: append([]byte(nil), data...), writable: writable}
	c.length = int64(len(data))
	return c
}

func (f *fakeChild) read1(size int) ([]byte, error) {
	return f.data[f.pos : f.pos+int64(size)], nil
}
func (f *fakeChild) Read(p []byte) (int, error) { return readBounded(&f.cursor, p, f.read1) }

func (f *fakeChild) write1(pos int64, data []byte) (int, error) {
	if int64(len(f.data)) < pos+int64(len(data)) {
		grown := make([]byte, pos+int64(len(data)))
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[pos:], data)
	return len(data), nil
}
func (f *fakeChild) Write(p []byte) (int, error) { return writeGuarded(&f.cursor, p, f.write1) }

func (f *fakeChild) Seek(offset int64, whence int) (int64, error) { return f.cursor.seek(offset, whence) }
func (f *fakeChild) Truncate(size int64) error {
	f.length = size
	return nil
}
func (f *fakeChild) Readable() bool { return true }
func (f *fakeChild) Writable() bool { return f.writable && !f.closed }
func (f *fakeChild) Seekable() bool            { return true }
func (f *fakeChild) Fileno() (uintptr, error)  { return 0, newErr(ReasonUnsupported) }
func (f *fakeChild) Close() error              { return closeRegion(&f.cursor, nil) }

func TestCombinerRegionReadAcrossChildren(t *testing.T) {
	c := NewCombinerRegion[*fakeChild](nil, nil)
	c.Add(newFakeChild([]byte("abc"), false))
	c.Add(newFakeChild([]byte("defgh"), false))

	if c.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", c.Len())
	}

	buf := make([]byte, 8)
	n, err := c.Read(buf)
	if err != nil || string(buf[:n]) != "abcdefgh" {
		t.Fatalf("Read() = (%q, %v)", buf[:n], err)
	}
}

func TestCombinerRegionWriteAppendsViaMakeTail(t *testing.T) {
	var created []*fakeChild
	makeTail := func() (*fakeChild, error) {
		child := newFakeChild(nil, true)
		created = append(created, child)
		return child, nil
	}
	c := NewCombinerRegion[*fakeChild](makeTail, nil)

	if _, err := c.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if len(created) != 1 {
		t.Fatalf("makeTail called %d times, want 1", len(created))
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}

	if _, err := c.Write([]byte(" world")); err != nil {
		t.Fatal(err)
	}
	if len(created) != 1 {
		t.Fatalf("second write created a new tail unexpectedly: %d", len(created))
	}

	buf := make([]byte, 11)
	if _, err := c.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	n, err := c.Read(buf)
	if err != nil || string(buf[:n]) != "hello world" {
		t.Fatalf("Read() = (%q, %v)", buf[:n], err)
	}
}

func TestCombinerRegionChangeTailStartsNewChild(t *testing.T) {
	var created []*fakeChild
	makeTail := func() (*fakeChild, error) {
		child := newFakeChild(nil, true)
		created = append(created, child)
		return child, nil
	}
	c := NewCombinerRegion[*fakeChild](makeTail, nil)
	if _, err := c.Write([]byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := c.ChangeTail(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Write([]byte("two")); err != nil {
		t.Fatal(err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d children, want 2", len(created))
	}
	if c.NumChildren() != 2 {
		t.Fatalf("NumChildren() = %d, want 2", c.NumChildren())
	}
}

func TestCombinerRegionTruncate(t *testing.T) {
	c := NewCombinerRegion[*fakeChild](nil, nil)
	c.Add(newFakeChild([]byte("abc"), false))
	c.Add(newFakeChild([]byte("defgh"), false))

	if err := c.Truncate(4); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	if c.NumChildren() != 2 {
		t.Fatalf("NumChildren() = %d, want 2", c.NumChildren())
	}

	if err := c.Truncate(0); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 || c.NumChildren() != 0 {
		t.Fatalf("after Truncate(0): Len()=%d NumChildren()=%d, want 0, 0", c.Len(), c.NumChildren())
	}
}

func TestCombinerRegionCloseDropsEmptyTrailingChild(t *testing.T) {
	var created []*fakeChild
	makeTail := func() (*fakeChild, error) {
		child := newFakeChild(nil, true)
		created = append(created, child)
		return child, nil
	}
	c := NewCombinerRegion[*fakeChild](makeTail, nil)
	if _, err := c.Write([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := c.ChangeTail(); err != nil {
		t.Fatal(err)
	}
	// Force a new, never-written tail to exist, then close without
	// writing to it.
	tail, err := makeTail()
	if err != nil {
		t.Fatal(err)
	}
	c.Add(tail)

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 {
		t.Errorf("Len() after Close = %d, want 4 (empty tail dropped)", c.Len())
	}
	if c.NumChildren() != 1 {
		t.Errorf("NumChildren() after Close = %d, want 1", c.NumChildren())
	}
}
