package archive

import (
	"io"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestTextFileUTF8RoundTrip(t *testing.T) {
	raw := &memFile{}
	tw, err := OpenText(raw, "w", Options{}, nil, nil)
	if err != nil {
		t.Fatalf("OpenText(w): %v", err)
	}
	want := "héllo wörld\n"
	if _, err := tw.Write([]byte(want)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tr, err := OpenText(raw, "r", Options{}, unicode.UTF8, nil)
	if err != nil {
		t.Fatalf("OpenText(r): %v", err)
	}
	got, err := io.ReadAll(tr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != want {
		t.Errorf("ReadAll() = %q, want %q", got, want)
	}
}

func TestTextFileTranscodesNonUTF8Encoding(t *testing.T) {
	raw := &memFile{}
	tw, err := OpenText(raw, "w", Options{}, charmap.Windows1252, nil)
	if err != nil {
		t.Fatalf("OpenText(w): %v", err)
	}
	// "Garçon !" round-tripped through Windows-1252, matching the
	// golang.org/x/text/encoding package's own canonical example.
	want := "Garçon !"
	if _, err := tw.Write([]byte(want)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := Open(raw, "r", Options{}, nil)
	if err != nil {
		t.Fatalf("Open(r): %v", err)
	}
	rawBytes, err := io.ReadAll(a)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rawBytes) != "Gar\xe7on !" {
		t.Errorf("underlying archive bytes = %q, want windows-1252 encoded form", rawBytes)
	}
	_ = a.Close()
}

func TestTextFileReadOnUnreadableFails(t *testing.T) {
	raw := &memFile{}
	tw, err := OpenText(raw, "w", Options{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1)
	if _, err := tw.Read(buf); err == nil {
		t.Error("Read on write-only TextFile = nil error, want error")
	}
	_ = tw.Close()
}
