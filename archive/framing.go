package archive

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	pbinary "github.com/seekxz/seekxz/pkg/binary"
)

// headerMagic is the fixed 6-byte XZ stream header magic.
var headerMagic = [6]byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// footerMagic is the fixed 2-byte XZ stream footer magic ("YZ").
var footerMagic = [2]byte{'Y', 'Z'}

// record is one (unpadded_size, uncompressed_size) index entry.
type record struct {
	unpaddedSize     uint64
	uncompressedSize uint64
}

// crc32LE computes the IEEE CRC32 of data and returns it as 4 little-endian bytes.
func crc32LE(data []byte) [4]byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], crc32.ChecksumIEEE(data))
	return out
}

// roundUp4 rounds value up to the next multiple of 4.
func roundUp4(value uint64) uint64 {
	if rem := value % 4; rem != 0 {
		return value - rem + 4
	}
	return value
}

// pad4 returns the zero bytes needed to round value up to a multiple of 4.
func pad4(value uint64) []byte {
	return make([]byte, roundUp4(value)-value)
}

// createHeader builds a 12-byte XZ stream header for the given check kind.
func createHeader(check byte) ([]byte, error) {
	if check > 0x0F {
		return nil, newErr(ReasonHeaderCheck)
	}
	flags := []byte{0x00, check}
	crc := crc32LE(flags)
	out := make([]byte, 0, 12)
	out = append(out, headerMagic[:]...)
	out = append(out, flags...)
	out = append(out, crc[:]...)
	return out, nil
}

// parseHeader parses a 12-byte XZ stream header and returns its check kind.
func parseHeader(header []byte) (check byte, err error) {
	if len(header) != 12 {
		return 0, newErr(ReasonHeaderLength)
	}
	if !bytes.Equal(header[:6], headerMagic[:]) {
		return 0, newErr(ReasonHeaderMagic)
	}
	flags := header[6:8]
	wantCRC := crc32LE(flags)
	if !bytes.Equal(wantCRC[:], header[8:12]) {
		return 0, newErr(ReasonHeaderCRC32)
	}
	flagWord, err := pbinary.ReadUint16LE(bytes.NewReader(flags))
	if err != nil {
		return 0, wrapErr(ReasonHeaderFlags, err)
	}
	flagFirstByte := byte(flagWord & 0xFF)
	checkKind := byte(flagWord >> 8)
	if flagFirstByte != 0 || checkKind > 0x0F {
		return 0, newErr(ReasonHeaderFlags)
	}
	return checkKind, nil
}

// createIndexFooter builds the index + 12-byte footer for the given check
// kind and block records, in file order.
func createIndexFooter(check byte, records []record) ([]byte, error) {
	if check > 0x0F {
		return nil, newErr(ReasonFooterCheck)
	}

	index := []byte{0x00}
	index = append(index, encodeMBI(uint64(len(records)))...)
	for _, rec := range records {
		index = append(index, encodeMBI(rec.unpaddedSize)...)
		index = append(index, encodeMBI(rec.uncompressedSize)...)
	}
	index = append(index, pad4(uint64(len(index)))...)
	indexCRC := crc32LE(index)
	index = append(index, indexCRC[:]...)

	backwardSize := uint32(len(index)/4 - 1)
	body := make([]byte, 6)
	binary.LittleEndian.PutUint32(body[0:4], backwardSize)
	body[4] = 0x00
	body[5] = check
	footerCRC := crc32LE(body)

	footer := make([]byte, 0, 12)
	footer = append(footer, footerCRC[:]...)
	footer = append(footer, body...)
	footer = append(footer, footerMagic[:]...)

	out := make([]byte, 0, len(index)+len(footer))
	out = append(out, index...)
	out = append(out, footer...)
	return out, nil
}

// parseIndex parses the XZ index body (including its CRC32 trailer) and
// returns its block records.
func parseIndex(index []byte) ([]record, error) {
	if len(index) < 8 || len(index)%4 != 0 {
		return nil, newErr(ReasonIndexLength)
	}
	if index[0] != 0 {
		return nil, newErr(ReasonIndexIndicator)
	}
	wantCRC := crc32LE(index[:len(index)-4])
	if !bytes.Equal(wantCRC[:], index[len(index)-4:]) {
		return nil, newErr(ReasonIndexCRC32)
	}

	consumed, nbRecords, err := decodeMBI(index[1:])
	if err != nil {
		return nil, err
	}
	body := index[1+consumed : len(index)-4]

	records := make([]record, 0, nbRecords)
	for range nbRecords {
		if len(body) == 0 {
			return nil, newErr(ReasonIndexSize)
		}
		n, unpadded, err := decodeMBI(body)
		if err != nil {
			return nil, err
		}
		if unpadded == 0 {
			return nil, newErr(ReasonIndexRecordUnpadded)
		}
		body = body[n:]

		if len(body) == 0 {
			return nil, newErr(ReasonIndexSize)
		}
		n, uncompressed, err := decodeMBI(body)
		if err != nil {
			return nil, err
		}
		if uncompressed == 0 {
			return nil, newErr(ReasonIndexRecordUncomp)
		}
		body = body[n:]

		records = append(records, record{unpaddedSize: unpadded, uncompressedSize: uncompressed})
	}

	for _, b := range body {
		if b != 0 {
			return nil, newErr(ReasonIndexPadding)
		}
	}
	return records, nil
}

// parseFooter parses a 12-byte XZ stream footer, returning its check kind
// and the byte length of the index that precedes it.
func parseFooter(footer []byte) (check byte, backwardSizeBytes uint64, err error) {
	if len(footer) != 12 {
		return 0, 0, newErr(ReasonFooterLength)
	}
	if !bytes.Equal(footer[10:12], footerMagic[:]) {
		return 0, 0, newErr(ReasonFooterMagic)
	}
	wantCRC := crc32LE(footer[4:10])
	if !bytes.Equal(wantCRC[:], footer[:4]) {
		return 0, 0, newErr(ReasonFooterCRC32)
	}
	backwardSize, err := pbinary.ReadUint32LE(bytes.NewReader(footer[4:8]))
	if err != nil {
		return 0, 0, wrapErr(ReasonFooterFlags, err)
	}
	flagFirstByte := footer[8]
	checkKind := footer[9]
	if flagFirstByte != 0 || checkKind > 0x0F {
		return 0, 0, newErr(ReasonFooterFlags)
	}
	return checkKind, (uint64(backwardSize) + 1) * 4, nil
}
