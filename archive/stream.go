package archive

import "io"

// defaultPreset is liblzma's own default LZMA preset level.
const defaultPreset = 6

// Stream is a single XZ stream: a Region whose length is the sum of its
// blocks' uncompressed lengths, concatenated in write order. It embeds a
// CombinerRegion of Blocks for that logical, decompressed view, and keeps
// a separate on-disk window (file) tracking where its header, blocks and
// index+footer actually live in the archive file.
type Stream struct {
	*CombinerRegion[*Block]

	file      *ProxyRegion
	checkKind byte
	preset    int
	filters   Filters
	cache     blockCache
}

func newStream(file *ProxyRegion, checkKind byte, preset int, cache blockCache) *Stream {
	s := &Stream{file: file, checkKind: checkKind, preset: preset, cache: cache}
	s.CombinerRegion = NewCombinerRegion[*Block](s.makeTail, s.finalizeStream)
	return s
}

// parseStream parses one existing XZ stream ending at footerEndPos
// (absolute offset into raw) and returns it along with its start offset.
func parseStream(raw rawFile, footerEndPos int64, cache blockCache) (stream *Stream, startPos int64, err error) {
	footerBuf := make([]byte, 12)
	if _, err := raw.Seek(footerEndPos-12, io.SeekStart); err != nil {
		return nil, 0, err
	}
	if _, err := io.ReadFull(raw, footerBuf); err != nil {
		return nil, 0, wrapErr(ReasonFooterLength, err)
	}
	checkKind, backwardSizeBytes, err := parseFooter(footerBuf)
	if err != nil {
		return nil, 0, err
	}

	indexStart := footerEndPos - 12 - int64(backwardSizeBytes)
	indexBuf := make([]byte, backwardSizeBytes)
	if _, err := raw.Seek(indexStart, io.SeekStart); err != nil {
		return nil, 0, err
	}
	if _, err := io.ReadFull(raw, indexBuf); err != nil {
		return nil, 0, wrapErr(ReasonIndexLength, err)
	}
	records, err := parseIndex(indexBuf)
	if err != nil {
		return nil, 0, err
	}

	var blocksLen int64
	for _, rec := range records {
		blocksLen += int64(roundUp4(rec.unpaddedSize))
	}
	blocksStart := indexStart - blocksLen
	headerStart := blocksStart - 12

	headerBuf := make([]byte, 12)
	if _, err := raw.Seek(headerStart, io.SeekStart); err != nil {
		return nil, 0, err
	}
	if _, err := io.ReadFull(raw, headerBuf); err != nil {
		return nil, 0, wrapErr(ReasonHeaderLength, err)
	}
	headerCheck, err := parseHeader(headerBuf)
	if err != nil {
		return nil, 0, err
	}
	if headerCheck != checkKind {
		return nil, 0, newErr(ReasonStreamCheckMismatch)
	}

	file := NewProxyRegion(raw, headerStart, footerEndPos-headerStart)
	s := newStream(file, checkKind, defaultPreset, cache)

	blockStart := int64(12)
	for _, rec := range records {
		blockLen := int64(roundUp4(rec.unpaddedSize))
		blockRaw := NewProxyRegion(file, blockStart, blockLen)
		blk, err := parseBlock(blockRaw, checkKind, rec, cache)
		if err != nil {
			return nil, 0, err
		}
		s.Add(blk)
		blockStart += blockLen
	}
	return s, headerStart, nil
}

// blocksEndPos returns the on-disk offset, relative to s.file, right after
// the last (fully finalized) block: 12 bytes of header plus every
// existing block's padded on-disk length.
func (s *Stream) blocksEndPos() int64 {
	end := int64(12)
	for _, blk := range s.Children() {
		end += int64(roundUp4(blk.UnpaddedSize()))
	}
	return end
}

// makeTail is the CombinerRegion write hook: on the very first block it
// also writes the stream header, then truncates away any previously
// written index+footer and opens a new Block at the resulting end.
func (s *Stream) makeTail() (*Block, error) {
	if s.NumChildren() == 0 {
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if err := s.file.Truncate(0); err != nil {
			return nil, err
		}
		header, err := createHeader(s.checkKind)
		if err != nil {
			return nil, err
		}
		if _, err := s.file.Write(header); err != nil {
			return nil, err
		}
	}
	blocksEnd := s.blocksEndPos()
	if err := s.file.Truncate(blocksEnd); err != nil {
		return nil, err
	}
	dictCap, err := blockDictCap(s.preset, s.filters)
	if err != nil {
		return nil, err
	}
	raw := NewProxyRegion(s.file, blocksEnd, 0)
	return newWriteBlock(raw, s.checkKind, dictCap, s.cache)
}

// finalizeStream is the CombinerRegion write-finalize hook: it rewrites
// the trailing index+footer from the now-closed block list.
func (s *Stream) finalizeStream() error {
	blocksEnd := s.blocksEndPos()
	if err := s.file.Truncate(blocksEnd); err != nil {
		return err
	}
	if _, err := s.file.Seek(blocksEnd, io.SeekStart); err != nil {
		return err
	}
	records := make([]record, 0, s.NumChildren())
	for _, blk := range s.Children() {
		records = append(records, record{
			unpaddedSize:     blk.UnpaddedSize(),
			uncompressedSize: uint64(blk.Len()),
		})
	}
	payload, err := createIndexFooter(s.checkKind, records)
	if err != nil {
		return err
	}
	_, err = s.file.Write(payload)
	return err
}

// ChangeBlock ends the current block so the next write starts a new one.
// If there is no current block, this is a no-op (an empty stream has
// nothing to end).
func (s *Stream) ChangeBlock() error {
	if s.NumChildren() == 0 {
		return nil
	}
	return s.ChangeTail()
}

// FileLen reports this stream's on-disk byte footprint (header, blocks,
// index and footer), used by Archive to place the next stream.
func (s *Stream) FileLen() int64 { return s.file.Len() }

// Check returns the integrity check kind used by every block in this
// stream.
func (s *Stream) Check() byte { return s.checkKind }

// Preset returns the LZMA preset used for new blocks in this stream.
func (s *Stream) Preset() int { return s.preset }

// SetPreset changes the LZMA preset used for blocks created after this
// call; it has no effect on blocks already written.
func (s *Stream) SetPreset(preset int) { s.preset = preset }

// Filters returns the filter chain used for blocks created after this
// call. A nil chain means the dictionary capacity is derived from preset.
func (s *Stream) Filters() Filters { return s.filters }

// SetFilters changes the filter chain used for blocks created after this
// call; it has no effect on blocks already written.
func (s *Stream) SetFilters(filters Filters) { s.filters = filters }

// BlockBoundaries returns the starting uncompressed offset of each block,
// ascending.
func (s *Stream) BlockBoundaries() []int64 { return s.ChildOffsets() }
