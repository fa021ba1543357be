package archive

// CacheStrategy selects how a stream bounds the number of simultaneously
// open block decompressors.
type CacheStrategy int

const (
	// CacheRolling evicts the least-recently-touched block's
	// decompressor once more than RollingCap blocks have been read,
	// trading re-decompression work for bounded memory. It is the zero
	// value and therefore the default, with RollingCap defaulting to
	// defaultRollingCap (8).
	CacheRolling CacheStrategy = iota
	// CacheKeep never evicts: every block read keeps its decompressor
	// open for the archive's lifetime. Best when blocks are read roughly
	// in order or the block count is small.
	CacheKeep
)

// Options configures how an Archive parses and writes XZ streams. The
// zero value is valid; ApplyDefaults fills in every field a caller left
// unset.
type Options struct {
	// Check is the integrity check kind used for new streams. As with
	// ReaderConfig.Workers in ulikunitz/xz, the zero value is treated as
	// "unset" and mapped to CheckCRC64 by ApplyDefaults, so CheckNone
	// cannot currently be requested through Options.
	Check int

	// Preset is the LZMA preset level (0-9) used for new blocks.
	Preset int

	// CacheStrategy bounds simultaneously open block decompressors. The
	// zero value is CacheRolling, matching this library's default.
	CacheStrategy CacheStrategy

	// RollingCap is the eviction cap used when CacheStrategy is
	// CacheRolling. Zero selects defaultRollingCap.
	RollingCap int

	applied bool
}

// ApplyDefaults fills in every field a caller left at its zero value.
// Calling it twice is a no-op.
func (o *Options) ApplyDefaults() {
	if o.applied {
		return
	}
	if o.Check == 0 {
		o.Check = int(CheckCRC64)
	}
	if o.Preset == 0 {
		o.Preset = defaultPreset
	}
	if o.RollingCap == 0 {
		o.RollingCap = defaultRollingCap
	}
	o.applied = true
}

// Verify reports whether the options are internally consistent.
func (o *Options) Verify() error {
	if o.Check < 0 || o.Check > 0x0F {
		return newErrf(ReasonInvalidMode, "check %#02x out of range", o.Check)
	}
	if o.Preset < 0 || o.Preset > 9 {
		return newErrf(ReasonInvalidMode, "preset %d out of range", o.Preset)
	}
	return nil
}

func (o *Options) newCache() blockCache {
	if o.CacheStrategy == CacheRolling {
		return newRollingCache(o.RollingCap)
	}
	return keepCache{}
}
