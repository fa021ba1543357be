// Command xzview opens an XZ archive and prints its logical size, stream
// and block boundaries, or a byte range read from it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/seekxz/seekxz"
)

var (
	inputFile = flag.String("i", "", "XZ archive path (required)")
	offset    = flag.Int64("offset", 0, "byte offset to start reading from")
	length    = flag.Int64("n", 0, "number of bytes to read and print (0 prints boundaries only)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -i <file.xz> [-offset N -n M]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Opens an XZ archive and prints its logical size and stream/block\n")
		fmt.Fprintf(os.Stderr, "boundaries, or a decompressed byte range when -n is given.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "Error: input file required (-i)")
		flag.Usage()
		os.Exit(1)
	}

	a, err := seekxz.Open(*inputFile, "r", seekxz.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", *inputFile, err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if *length == 0 {
		printBoundaries(a)
		return
	}

	if _, err := a.Seek(*offset, io.SeekStart); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeking to %d: %v\n", *offset, err)
		os.Exit(1)
	}
	buf := make([]byte, *length)
	n, err := io.ReadFull(a, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		fmt.Fprintf(os.Stderr, "Error reading: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(buf[:n]) //nolint:errcheck // best-effort CLI output
}

func printBoundaries(a *seekxz.Archive) {
	fmt.Printf("Logical size: %d bytes\n", a.Len())
	fmt.Printf("Mode: %s\n", a.Mode())
	fmt.Println("Stream boundaries:")
	for _, off := range a.StreamBoundaries() {
		fmt.Printf("  %d\n", off)
	}
	fmt.Println("Block boundaries:")
	for _, off := range a.BlockBoundaries() {
		fmt.Printf("  %d\n", off)
	}
}
