package archive

import (
	"bytes"
	"io"
	"testing"
)

func TestStreamWriteReadRoundTrip(t *testing.T) {
	raw := &memFile{}
	s := newStream(NewProxyRegion(raw, 0, 0), CheckCRC32, defaultPreset, keepCache{})

	part1 := bytes.Repeat([]byte("first block content "), 50)
	part2 := bytes.Repeat([]byte("second block content "), 50)

	if _, err := s.Write(part1); err != nil {
		t.Fatalf("Write part1: %v", err)
	}
	if err := s.ChangeBlock(); err != nil {
		t.Fatalf("ChangeBlock: %v", err)
	}
	if _, err := s.Write(part2); err != nil {
		t.Fatalf("Write part2: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	streamLen := s.FileLen()
	parsed, start, err := parseStream(raw, streamLen, keepCache{})
	if err != nil {
		t.Fatalf("parseStream: %v", err)
	}
	if start != 0 {
		t.Fatalf("parseStream start = %d, want 0", start)
	}
	if parsed.NumChildren() != 2 {
		t.Fatalf("NumChildren() = %d, want 2", parsed.NumChildren())
	}

	want := append(append([]byte(nil), part1...), part2...)
	got, err := io.ReadAll(parsed)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestStreamChangeBlockNoopWhenEmpty(t *testing.T) {
	s := newStream(NewProxyRegion(&memFile{}, 0, 0), CheckCRC32, defaultPreset, keepCache{})
	if err := s.ChangeBlock(); err != nil {
		t.Fatalf("ChangeBlock on empty stream: %v", err)
	}
	if s.NumChildren() != 0 {
		t.Errorf("NumChildren() = %d, want 0", s.NumChildren())
	}
}

func TestStreamBlockBoundaries(t *testing.T) {
	raw := &memFile{}
	s := newStream(NewProxyRegion(raw, 0, 0), CheckCRC32, defaultPreset, keepCache{})

	if _, err := s.Write([]byte("aaaa")); err != nil {
		t.Fatal(err)
	}
	if err := s.ChangeBlock(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("bbb")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	boundaries := s.BlockBoundaries()
	if len(boundaries) != 2 || boundaries[0] != 0 || boundaries[1] != 4 {
		t.Errorf("BlockBoundaries() = %v, want [0 4]", boundaries)
	}
}

func TestStreamFiltersOverridesBlockDictCap(t *testing.T) {
	raw := &memFile{}
	s := newStream(NewProxyRegion(raw, 0, 0), CheckCRC32, defaultPreset, keepCache{})
	s.SetFilters(Filters{{ID: LZMA2Filter, DictCap: 1 << 19}})

	if _, err := s.Write([]byte("filtered content")); err != nil {
		t.Fatal(err)
	}
	blk, ok := s.LastChild()
	if !ok {
		t.Fatal("no block after Write")
	}
	if blk.dictCap != 1<<19 {
		t.Errorf("block dictCap = %d, want %d (from stream's filters)", blk.dictCap, 1<<19)
	}
	_ = s.Close()
}

func TestStreamParseRejectsCheckMismatch(t *testing.T) {
	raw := &memFile{}
	s := newStream(NewProxyRegion(raw, 0, 0), CheckCRC64, defaultPreset, keepCache{})
	if _, err := s.Write([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Flip the footer's check byte and recompute its CRC so the footer
	// itself is internally consistent but no longer agrees with the
	// header's check kind.
	end := s.FileLen()
	footerStart := end - 12
	raw.buf[footerStart+9] ^= 0x0F
	crc := crc32LE(raw.buf[footerStart+4 : footerStart+10])
	copy(raw.buf[footerStart:footerStart+4], crc[:])

	if _, _, err := parseStream(raw, end, keepCache{}); err == nil {
		t.Error("parseStream with mismatched footer check = nil error, want error")
	}
}
