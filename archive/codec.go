package archive

import (
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// defaultDictCap is the dictionary capacity of liblzma's default preset 6
// (presetDictCap returns the same value for presets 5 and 6; it does not
// refer to this constant).
const defaultDictCap = 1 << 23 // 8 MiB

// FilterID identifies one xz filter chain entry (xz file format §5.3).
// This package only ever drives the LZMA2 filter; other ids parse in a
// block header but cannot be produced or decoded here.
type FilterID byte

// LZMA2Filter is the only filter id this package's codec drives.
const LZMA2Filter FilterID = 0x21

// Filter is one entry in a stream's filter chain. DictCap overrides the
// dictionary capacity that would otherwise be derived from the stream's
// preset.
type Filter struct {
	ID      FilterID
	DictCap int64
}

// Filters is an ordered filter chain, outermost first. A nil or empty
// chain means "derive the dictionary capacity from preset instead"; a
// non-empty chain must hold exactly one LZMA2 entry, since block.go never
// composes more than one filter.
type Filters []Filter

// blockDictCap resolves the dictionary capacity a new block should use:
// filters, if supplied, take precedence over the preset-derived default.
func blockDictCap(preset int, filters Filters) (int64, error) {
	if len(filters) == 0 {
		return presetDictCap(preset), nil
	}
	if len(filters) != 1 || filters[0].ID != LZMA2Filter {
		return 0, newErrf(ReasonUnsupported, "filter chain %+v", filters)
	}
	if filters[0].DictCap <= 0 {
		return presetDictCap(preset), nil
	}
	return filters[0].DictCap, nil
}

// presetDictCap maps an LZMA preset level (0-9, as accepted by
// Options.Preset) to the dictionary capacity liblzma uses for that preset.
func presetDictCap(preset int) int64 {
	switch {
	case preset <= 0:
		return 1 << 18 // 256 KiB
	case preset == 1:
		return 1 << 20 // 1 MiB
	case preset == 2:
		return 1 << 21 // 2 MiB
	case preset == 3, preset == 4:
		return 1 << 22 // 4 MiB
	case preset == 5, preset == 6:
		return 1 << 23 // 8 MiB
	case preset == 7:
		return 1 << 24 // 16 MiB
	case preset == 8:
		return 1 << 25 // 32 MiB
	default:
		return 1 << 26 // 64 MiB, preset 9
	}
}

// newBlockCompressor returns a write-closer that LZMA2-encodes everything
// written to it into raw (filter-only, no xz container) compressed bytes on
// w. Closing flushes the final LZMA2 chunk; it does not close w.
func newBlockCompressor(w io.Writer, blockDictCap int64) (io.WriteCloser, error) {
	cfg := lzma.Writer2Config{DictCap: int(blockDictCap)}
	cfg.ApplyDefaults()
	if err := cfg.Verify(); err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	wc, err := cfg.NewWriter2(w)
	if err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	return wc, nil
}

// newBlockDecompressor returns a reader that LZMA2-decodes r, whose
// dictionary capacity came from the block's own header (parseBlockHeader).
func newBlockDecompressor(r io.Reader, blockDictCap int64) (io.Reader, error) {
	cfg := lzma.Reader2Config{DictCap: int(blockDictCap)}
	cfg.ApplyDefaults()
	if err := cfg.Verify(); err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	rc, err := cfg.NewReader2(r)
	if err != nil {
		return nil, wrapErr(ReasonBlockCorrupt, err)
	}
	return rc, nil
}

// dictSizeByte encodes cap as the single-byte LZMA2 dictionary size
// property used in an xz block header's filter properties (xz file format
// §5.3.1, filter id 0x21).
func dictSizeByte(capacity int64) byte {
	for b := 0; b <= 40; b++ {
		if dictSizeFromByte(byte(b)) >= capacity {
			return byte(b)
		}
	}
	return 40
}

// dictSizeFromByte is the inverse of dictSizeByte.
func dictSizeFromByte(b byte) int64 {
	if b > 40 {
		return -1
	}
	if b == 40 {
		return 0xFFFFFFFF
	}
	return int64(2|(uint64(b)&1)) << (uint(b)/2 + 11)
}
