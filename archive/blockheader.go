package archive

import "bytes"

// lzma2FilterID is the xz block-header filter id for the LZMA2 filter,
// the only filter this package writes or accepts.
const lzma2FilterID = 0x21

// buildBlockHeader builds a block header declaring a single LZMA2 filter
// with the given dictionary capacity and no compressed/uncompressed size
// fields (both are optional and are omitted here since they aren't known
// until the block is flushed).
func buildBlockHeader(dictCap int64) ([]byte, error) {
	body := []byte{
		0x00, // flags: 1 filter, no size fields
		lzma2FilterID, 0x01, dictSizeByte(dictCap),
	}
	total := make([]byte, 0, 12)
	total = append(total, 0x00) // header size placeholder
	total = append(total, body...)
	total = append(total, pad4(uint64(len(total)))...)
	total = append(total, 0, 0, 0, 0) // crc32 placeholder

	n := len(total)
	if n%4 != 0 {
		return nil, newErr(ReasonBlockCorrupt)
	}
	total[0] = byte(n/4 - 1)
	crc := crc32LE(total[:n-4])
	copy(total[n-4:], crc[:])
	return total, nil
}

// parseBlockHeader validates a block header read from disk and returns the
// LZMA2 dictionary capacity declared by its filter list. Only a single
// LZMA2 filter is accepted; headers declaring more filters or a different
// filter id are rejected with ReasonUnsupported. The optional compressed
// and uncompressed size fields are decoded and skipped when present.
func parseBlockHeader(header []byte) (dictCapOut int64, err error) {
	if len(header) < 8 || len(header)%4 != 0 {
		return 0, newErr(ReasonBlockCorrupt)
	}
	if int(header[0]+1)*4 != len(header) {
		return 0, newErr(ReasonBlockCorrupt)
	}
	wantCRC := crc32LE(header[:len(header)-4])
	if !bytes.Equal(wantCRC[:], header[len(header)-4:]) {
		return 0, newErr(ReasonBlockCorrupt)
	}

	flags := header[1]
	const (
		filterCountMask         = 0x03
		compressedSizePresent   = 0x40
		uncompressedSizePresent = 0x80
		reservedFlags           = 0x3C
	)
	if flags&reservedFlags != 0 {
		return 0, newErr(ReasonBlockCorrupt)
	}
	if flags&filterCountMask != 0 {
		return 0, newErrf(ReasonUnsupported, "block declares %d filters", flags&filterCountMask+1)
	}

	body := header[2 : len(header)-4]
	if flags&compressedSizePresent != 0 {
		_, n, err := decodeMBI(body)
		if err != nil {
			return 0, err
		}
		body = body[n:]
	}
	if flags&uncompressedSizePresent != 0 {
		_, n, err := decodeMBI(body)
		if err != nil {
			return 0, err
		}
		body = body[n:]
	}

	if len(body) < 3 || body[0] != lzma2FilterID {
		return 0, newErrf(ReasonUnsupported, "block filter id %#02x", body[0])
	}
	if body[1] != 0x01 {
		return 0, newErr(ReasonBlockCorrupt)
	}
	dc := dictSizeFromByte(body[2])
	if dc < 0 {
		return 0, newErr(ReasonBlockCorrupt)
	}
	for _, b := range body[3:] {
		if b != 0 {
			return 0, newErr(ReasonBlockCorrupt)
		}
	}
	return dc, nil
}
