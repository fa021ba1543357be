package archive

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextFile wraps an Archive with a text encoding, transcoding Read/Write
// through enc instead of exposing the archive's raw decompressed bytes
// directly. This is the Go equivalent of Python's xz.open(..., mode="rt"
// or "wt"), minus seeking: general text encodings aren't byte-position
// seekable, so TextFile only exposes Read, Write and Close.
type TextFile struct {
	archive *Archive
	reader  *transform.Reader
	writer  *transform.Writer
}

// OpenText opens raw exactly like Open, then wraps the result for text
// access using enc. A nil enc selects UTF-8.
func OpenText(raw rawFile, mode string, opts Options, enc encoding.Encoding, closeRaw func() error) (*TextFile, error) {
	a, err := Open(raw, mode, opts, closeRaw)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		enc = unicode.UTF8
	}
	t := &TextFile{archive: a}
	if a.Readable() {
		t.reader = transform.NewReader(a, enc.NewDecoder())
	}
	if a.Writable() {
		t.writer = transform.NewWriter(a, enc.NewEncoder())
	}
	return t, nil
}

// Read decodes bytes from the underlying archive through the text
// encoding. It returns ReasonUnsupported if the archive wasn't opened for
// reading.
func (t *TextFile) Read(p []byte) (int, error) {
	if t.reader == nil {
		return 0, newErr(ReasonUnsupported)
	}
	return t.reader.Read(p)
}

// Write encodes p through the text encoding before appending it to the
// underlying archive. It returns ReasonUnsupported if the archive wasn't
// opened for writing.
func (t *TextFile) Write(p []byte) (int, error) {
	if t.writer == nil {
		return 0, newErr(ReasonUnsupported)
	}
	return t.writer.Write(p)
}

// Close flushes any pending encoder state, then closes the underlying
// archive.
func (t *TextFile) Close() error {
	if t.writer != nil {
		if err := t.writer.Close(); err != nil {
			return err
		}
	}
	return t.archive.Close()
}

// Archive returns the underlying binary Archive, for callers that need
// boundary or mode introspection alongside text access.
func (t *TextFile) Archive() *Archive { return t.archive }
