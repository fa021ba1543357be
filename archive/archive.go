package archive

import "io"

// Archive is a file in the XZ container format, presented as a single
// seekable Region whose content is the concatenation of every stream's
// decompressed bytes. Reads and writes transparently decompress and
// compress through to whatever raw handle backs it.
type Archive struct {
	*CombinerRegion[*Stream]

	raw      rawFile
	closeRaw func() error

	mode     string
	readable bool
	writable bool

	opts  Options
	cache blockCache
	check byte

	preset  *proxyAttr[int]
	filters *proxyAttr[Filters]
}

// Open builds an Archive over raw using mode ("r", "w", "r+", "w+", "x",
// "x+", each optionally suffixed with "b" for parity with os.File modes).
// closeRaw, if non-nil, is called by Archive.Close after its own state has
// been flushed; pass nil when the caller retains ownership of raw.
func Open(raw rawFile, mode string, opts Options, closeRaw func() error) (*Archive, error) {
	opts.ApplyDefaults()
	if err := opts.Verify(); err != nil {
		return nil, err
	}
	normalized, readable, writable, err := parseMode(mode)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		raw:      raw,
		closeRaw: closeRaw,
		mode:     normalized,
		readable: readable,
		writable: writable,
		opts:     opts,
		cache:    opts.newCache(),
		check:    byte(opts.Check),
	}
	a.CombinerRegion = NewCombinerRegion[*Stream](a.makeTail, nil)
	a.preset = newProxyAttr(a.presetDelegate)
	a.preset.Set(opts.Preset)
	a.filters = newProxyAttr(a.filtersDelegate)

	if normalized[0] == 'w' || normalized[0] == 'x' {
		if err := raw.Truncate(0); err != nil {
			return nil, err
		}
	}
	if readable {
		if err := a.parseExisting(); err != nil {
			return nil, err
		}
		if normalized[0] == 'r' && a.NumChildren() == 0 {
			return nil, newErr(ReasonFileNoStreams)
		}
	}
	return a, nil
}

// presetDelegate backs the preset proxyAttr: once a stream exists, preset
// reads and writes go to the last stream instead of local storage.
func (a *Archive) presetDelegate() (get func() int, set func(int), ok bool) {
	last, ok := a.lastStream()
	if !ok {
		return nil, nil, false
	}
	return last.Preset, last.SetPreset, true
}

func (a *Archive) lastStream() (*Stream, bool) {
	return a.LastChild()
}

// Preset returns the LZMA preset used for new blocks: the last stream's,
// if one exists, or the locally stored value otherwise.
func (a *Archive) Preset() int { return a.preset.Get() }

// SetPreset sets the LZMA preset used for new blocks.
func (a *Archive) SetPreset(preset int) { a.preset.Set(preset) }

// filtersDelegate backs the filters proxyAttr: once a stream exists,
// filters reads and writes go to the last stream instead of local storage.
func (a *Archive) filtersDelegate() (get func() Filters, set func(Filters), ok bool) {
	last, ok := a.lastStream()
	if !ok {
		return nil, nil, false
	}
	return last.Filters, last.SetFilters, true
}

// Filters returns the filter chain used for new blocks: the last stream's,
// if one exists, or the locally stored value otherwise.
func (a *Archive) Filters() Filters { return a.filters.Get() }

// SetFilters sets the filter chain used for new blocks.
func (a *Archive) SetFilters(filters Filters) { a.filters.Set(filters) }

// Check returns the integrity check kind used for streams created from
// now on. Unlike Preset and Filters, Check is archive-local: it is never
// proxied to an existing stream, since a stream's check kind is fixed for
// its whole lifetime once its header is written.
func (a *Archive) Check() byte { return a.check }

// SetCheck sets the integrity check kind used for streams created after
// this call; it has no effect on streams already written.
func (a *Archive) SetCheck(check byte) { a.check = check }

// Mode returns the normalized open mode ("r", "w", "r+", "w+", "x", "x+").
func (a *Archive) Mode() string { return a.mode }

func (a *Archive) Readable() bool { return a.readable }
func (a *Archive) Writable() bool { return a.writable }

// StreamBoundaries returns the starting uncompressed offset of each
// stream, ascending.
func (a *Archive) StreamBoundaries() []int64 { return a.ChildOffsets() }

// BlockBoundaries returns the starting uncompressed offset of every block
// in every stream, ascending.
func (a *Archive) BlockBoundaries() []int64 {
	var out []int64
	offsets := a.ChildOffsets()
	streams := a.Children()
	for i, streamStart := range offsets {
		for _, blockStart := range streams[i].BlockBoundaries() {
			out = append(out, streamStart+blockStart)
		}
	}
	return out
}

// ChangeStream ends the current stream so the next write starts a new one.
func (a *Archive) ChangeStream() error {
	if a.NumChildren() == 0 {
		return nil
	}
	return a.ChangeTail()
}

// ChangeBlock ends the current block within the current stream.
func (a *Archive) ChangeBlock() error {
	last, ok := a.lastStream()
	if !ok {
		return nil
	}
	return last.ChangeBlock()
}

// makeTail is the CombinerRegion write hook for Archive: it places a new,
// empty Stream right after every existing (already finalized) stream's
// on-disk footprint.
func (a *Archive) makeTail() (*Stream, error) {
	var streamPos int64
	for _, s := range a.Children() {
		streamPos += s.FileLen()
	}
	file := NewProxyRegion(a.raw, streamPos, 0)
	s := newStream(file, a.check, a.Preset(), a.cache)
	s.SetFilters(a.Filters())
	return s, nil
}

// parseExisting scans the raw handle backward from EOF, collecting every
// stream (skipping zero stream padding), matching spec's parse-backward
// algorithm.
func (a *Archive) parseExisting() error {
	end, err := a.raw.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	var streams []*Stream
	pos := end
	for pos > 0 {
		if pos%4 != 0 {
			return newErr(ReasonFileInvalidSize)
		}
		tail := make([]byte, 4)
		if _, err := a.raw.Seek(pos-4, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(a.raw, tail); err != nil {
			return err
		}
		if isZero(tail) {
			pos -= 4
			continue
		}
		stream, start, err := parseStream(a.raw, pos, a.cache)
		if err != nil {
			return err
		}
		streams = append(streams, stream)
		pos = start
	}

	for i := len(streams) - 1; i >= 0; i-- {
		a.Add(streams[i])
	}
	return nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Close flushes every open stream's write-finalization, then closes the
// raw handle if Archive was given ownership of it.
func (a *Archive) Close() error {
	if err := a.CombinerRegion.Close(); err != nil {
		return err
	}
	if a.closeRaw != nil {
		return a.closeRaw()
	}
	return nil
}
