package archive

import (
	"bytes"
	"crypto/sha256"
	"hash"
	"hash/crc32"
	"hash/crc64"
	"io"
)

// checkSize returns the byte length of the integrity check trailer for a
// given check-kind id, per the generic id-range rule in the xz format
// (ids 0x00 none, 0x01-0x03 size 4, 0x04-0x06 size 8, 0x07-0x09 size 16,
// 0x0A-0x0C size 32, 0x0D-0x0F size 64).
func checkSize(kind byte) int {
	switch {
	case kind == 0x00:
		return 0
	case kind <= 0x03:
		return 4
	case kind <= 0x06:
		return 8
	case kind <= 0x09:
		return 16
	case kind <= 0x0C:
		return 32
	default:
		return 64
	}
}

// Supported check-kind ids. Others parse fine structurally (their size is
// still known) but this package cannot verify or produce them.
const (
	CheckNone   byte = 0x00
	CheckCRC32  byte = 0x01
	CheckCRC64  byte = 0x04
	CheckSHA256 byte = 0x0A
)

var crc64Table = crc64.MakeTable(crc64.ECMA)

func newChecker(kind byte) (hash.Hash, error) {
	switch kind {
	case CheckNone:
		return nil, nil
	case CheckCRC32:
		return crc32.NewIEEE(), nil
	case CheckCRC64:
		return crc64.New(crc64Table), nil
	case CheckSHA256:
		return sha256.New(), nil
	default:
		return nil, newErrf(ReasonUnsupported, "check kind %#02x", kind)
	}
}

// Block is a single XZ block: a Region whose length is the block's
// uncompressed byte count. It decompresses lazily and only as far as a
// caller has read, restarting the LZMA2 stream on a backward seek and
// discarding forward on a forward seek, matching spec §4.4.
type Block struct {
	cursor

	raw       *ProxyRegion // on-disk bytes: header, compressed payload, check, padding
	checkKind byte

	// Fields fixed once the block's layout is known, either by parsing an
	// existing header (read path) or immediately after writing one (write
	// path).
	headerLen int64
	dictCap   int64
	compLen   int64 // compressed payload length; read path only

	// Read-path decompression state.
	decomp    io.Reader
	checker   hash.Hash
	decompPos int64
	validated bool

	// Write-path state.
	writer       io.WriteCloser
	writeChecker hash.Hash
	unpaddedSize uint64

	cache blockCache
}

// newWriteBlock creates a new block for appending: it writes the block
// header immediately (sizes are omitted since they aren't known yet, which
// the xz format allows) and opens an LZMA2 compressor over the remaining
// raw bytes.
func newWriteBlock(raw *ProxyRegion, checkKind byte, blockDictCap int64, cache blockCache) (*Block, error) {
	header, err := buildBlockHeader(blockDictCap)
	if err != nil {
		return nil, err
	}
	if _, err := raw.Write(header); err != nil {
		return nil, err
	}
	w, err := newBlockCompressor(raw, blockDictCap)
	if err != nil {
		return nil, err
	}
	checker, err := newChecker(checkKind)
	if err != nil {
		return nil, err
	}
	b := &Block{
		raw:          raw,
		checkKind:    checkKind,
		headerLen:    int64(len(header)),
		dictCap:      blockDictCap,
		writer:       w,
		writeChecker: checker,
		cache:        cache,
	}
	return b, nil
}

// parseBlock builds a Block over an existing on-disk block whose exact
// padded byte range (raw) and index record are already known.
func parseBlock(raw *ProxyRegion, checkKind byte, rec record, cache blockCache) (*Block, error) {
	headerLenByte := make([]byte, 1)
	if _, err := raw.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(raw, headerLenByte); err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	if headerLenByte[0] == 0 {
		return nil, newErr(ReasonBlockCorrupt)
	}
	headerLen := int64(headerLenByte[0]+1) * 4
	header := make([]byte, headerLen)
	copy(header, headerLenByte)
	if _, err := io.ReadFull(io.NewSectionReader(regionReaderAt{raw}, 1, headerLen-1), header[1:]); err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	dictCap, err := parseBlockHeader(header)
	if err != nil {
		return nil, err
	}

	checkLen := int64(checkSize(checkKind))
	compLen := int64(rec.unpaddedSize) - headerLen - checkLen
	if compLen <= 0 {
		return nil, newErr(ReasonBlockCorrupt)
	}

	b := &Block{
		raw:          raw,
		checkKind:    checkKind,
		headerLen:    headerLen,
		dictCap:      dictCap,
		unpaddedSize: rec.unpaddedSize,
		cache:        cache,
	}
	b.length = int64(rec.uncompressedSize)
	b.compLen = compLen
	return b, nil
}

func (b *Block) Read(p []byte) (int, error) {
	return readBounded(&b.cursor, p, b.read1)
}

func (b *Block) read1(size int) ([]byte, error) {
	if b.cache != nil {
		b.cache.touch(b)
	}
	if b.decomp == nil || b.decompPos > b.pos {
		if err := b.restartDecompressor(); err != nil {
			return nil, err
		}
	}
	if b.decompPos < b.pos {
		if _, err := io.CopyN(io.Discard, b.decomp, b.pos-b.decompPos); err != nil {
			return nil, wrapErr(ReasonBlockDecompEOF, err)
		}
		b.decompPos = b.pos
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(b.decomp, buf)
	b.decompPos += int64(n)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		if b.decompPos != b.length {
			return nil, newErr(ReasonBlockDecompEOF)
		}
		if verr := b.verifyCheck(); verr != nil {
			return nil, verr
		}
		return buf[:n], nil
	case err != nil:
		return nil, wrapErr(ReasonBlockCorrupt, err)
	case b.decompPos == b.length:
		// The read satisfied the request and landed exactly on the
		// block's declared uncompressed size: this is the common case
		// (readBounded never asks for more than length-pos bytes), so
		// the io.EOF branch above never fires on its own. Drive the
		// decompressor one more byte by hand to confirm it reports EOF
		// right here (the LZMA2 end marker) before trusting the data,
		// then validate the trailing check and padding.
		if verr := b.drainEndMarker(); verr != nil {
			return nil, verr
		}
		return buf[:n], nil
	default:
		return buf[:n], nil
	}
}

// drainEndMarker reads one byte past the block's declared uncompressed
// size and requires the decompressor to report io.EOF exactly there,
// confirming the LZMA2 end marker lines up with uncompressed_size before
// the trailing check and padding are validated.
func (b *Block) drainEndMarker() error {
	extra := make([]byte, 1)
	n, err := b.decomp.Read(extra)
	if n > 0 || err == nil {
		return newErr(ReasonBlockCorrupt)
	}
	if err != io.EOF {
		return wrapErr(ReasonBlockCorrupt, err)
	}
	return b.verifyCheck()
}

func (b *Block) restartDecompressor() error {
	payload := io.NewSectionReader(regionReaderAt{b.raw}, b.headerLen, b.compLen)
	dec, err := newBlockDecompressor(payload, b.dictCap)
	if err != nil {
		return err
	}
	b.decomp = dec
	b.decompPos = 0
	checker, err := newChecker(b.checkKind)
	if err != nil {
		return err
	}
	b.checker = checker
	if b.checker != nil {
		b.decomp = io.TeeReader(dec, b.checker)
	}
	b.validated = false
	return nil
}

// verifyCheck validates the block's trailing integrity check (if any) and
// the zero padding that follows it up to the next 4-byte boundary. Idempotent:
// only the first call after a restartDecompressor actually re-reads anything.
func (b *Block) verifyCheck() error {
	if b.validated {
		return nil
	}
	b.validated = true
	checkLen := int64(checkSize(b.checkKind))
	checkOff := b.headerLen + b.compLen
	if b.checker != nil {
		want := make([]byte, checkLen)
		if _, err := io.ReadFull(io.NewSectionReader(regionReaderAt{b.raw}, checkOff, checkLen), want); err != nil {
			return wrapErr(ReasonBlockCorrupt, err)
		}
		if !bytes.Equal(b.checker.Sum(nil), want) {
			return newErr(ReasonBlockCorrupt)
		}
	}
	unpadded := uint64(checkOff + checkLen)
	padLen := int64(roundUp4(unpadded)) - int64(unpadded)
	if padLen == 0 {
		return nil
	}
	pad := make([]byte, padLen)
	if _, err := io.ReadFull(io.NewSectionReader(regionReaderAt{b.raw}, int64(unpadded), padLen), pad); err != nil {
		return wrapErr(ReasonBlockCorrupt, err)
	}
	for _, c := range pad {
		if c != 0 {
			return newErr(ReasonBlockPadding)
		}
	}
	return nil
}

func (b *Block) Write(p []byte) (int, error) {
	return writeGuarded(&b.cursor, p, b.write1)
}

func (b *Block) write1(pos int64, data []byte) (int, error) {
	if b.writer == nil {
		return 0, newErr(ReasonUnsupported)
	}
	if b.writeChecker != nil {
		b.writeChecker.Write(data)
	}
	return b.writer.Write(data)
}

func (b *Block) Seek(offset int64, whence int) (int64, error) {
	return b.cursor.seek(offset, whence)
}

// Truncate only ever succeeds as a no-op (size already equals Len()) or
// when dropping the block to empty (size == 0): a compressed block's
// on-disk bytes can't be resized to an arbitrary decompressed byte count
// without re-encoding, so any other size is rejected. Of the sizes
// CombinerRegion.Truncate passes to a child, only these two succeed: the
// whole-combiner size==0 sweep, and a size landing exactly on a block
// boundary; a size inside a block or past its end is rejected here.
func (b *Block) Truncate(size int64) error {
	if size < 0 {
		return newErr(ReasonInvalidSeek)
	}
	if size == b.length {
		return nil
	}
	if size == 0 {
		b.length = 0
		b.pos = 0
		return nil
	}
	return newErr(ReasonUnsupported)
}

func (b *Block) Readable() bool { return b.writer == nil }
func (b *Block) Writable() bool { return b.writer != nil }
func (b *Block) Seekable() bool { return true }

func (b *Block) Fileno() (uintptr, error) { return 0, newErr(ReasonUnsupported) }

// UnpaddedSize returns the block's on-disk (header+payload+check) byte
// count: taken from the index record for a parsed block, and set by Close
// for a newly written one.
func (b *Block) UnpaddedSize() uint64 { return b.unpaddedSize }

// finalize flushes the compressor, appends the integrity check and 4-byte
// padding, and records the block's final unpadded size for the stream's
// index. Invoked by Close only if the block was actually written to.
func (b *Block) finalize() error {
	if b.writer != nil {
		if err := b.writer.Close(); err != nil {
			return wrapErr(ReasonBlockCorrupt, err)
		}
		b.writer = nil
	}
	if b.writeChecker != nil {
		if _, err := b.raw.Write(b.writeChecker.Sum(nil)); err != nil {
			return err
		}
	}
	unpadded := uint64(b.raw.Len())
	b.unpaddedSize = unpadded
	if _, err := b.raw.Write(pad4(unpadded)); err != nil {
		return err
	}
	return nil
}

func (b *Block) Close() error {
	return closeRegion(&b.cursor, b.finalize)
}

// regionReaderAt adapts a Region to io.ReaderAt by seeking before each
// read; safe here because block payload reads never interleave with other
// users of the same raw region.
type regionReaderAt struct{ r Region }

func (a regionReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := a.r.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(a.r, p)
}
