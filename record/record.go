// Package record implements C6: serializing a tape.Tape to the external
// ASCII record format consumed by the viewer, and parsing it back.
package record

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/0vercl0k/clairvoyance/protection"
	"github.com/0vercl0k/clairvoyance/tape"
	"github.com/pkg/errors"
)

// Dimensions returns the (width, height) of the square canvas a tape of the
// given length is rendered onto: both equal 2^order, where
// order = floor(log2(length)) / 2. A zero-length tape renders onto a 1x1
// canvas (order 0).
func Dimensions(tapeLength uint64) (width, height uint64) {
	if tapeLength == 0 {
		return 1, 1
	}
	order := (bits.Len64(tapeLength) - 1) / 2
	side := uint64(1) << uint(order)
	return side, side
}

// Write serializes t to w in the §6 record format: a dimensions line,
// followed by region headers (hex VirtualBase, 0x-prefixed) interleaved
// with per-pixel protection values (hex, unprefixed) at the position equal
// to each region's start distance.
func Write(w io.Writer, t tape.Tape) error {
	bw := bufio.NewWriter(w)

	width, height := Dimensions(uint64(len(t.Pixels)))
	if _, err := fmt.Fprintf(bw, "%d %d\n", width, height); err != nil {
		return err
	}

	regionIdx := 0
	start := uint64(0)
	for distance, px := range t.Pixels {
		if regionIdx < len(t.Regions) && uint64(distance) == start {
			if _, err := fmt.Fprintf(bw, "0x%x\n", t.Regions[regionIdx].VirtualBase); err != nil {
				return err
			}
			start = t.Regions[regionIdx].EndDistance
			regionIdx++
		}
		if _, err := fmt.Fprintf(bw, "%x\n", uint8(px)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Parse reads a record previously produced by Write and reconstructs the
// (tape, regions) pair, used by tests and by the viewer-side reverse
// lookup to round-trip emitted records.
func Parse(r io.Reader) (tape.Tape, uint64, uint64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return tape.Tape{}, 0, 0, errors.New("empty record")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) != 2 {
		return tape.Tape{}, 0, 0, errors.Errorf("malformed dimensions line %q", scanner.Text())
	}
	width, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return tape.Tape{}, 0, 0, errors.Wrap(err, "parsing width")
	}
	height, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return tape.Tape{}, 0, 0, errors.Wrap(err, "parsing height")
	}

	var t tape.Tape
	var currentBase uint64
	haveRegion := false

	closeRegion := func() {
		if haveRegion {
			t.Regions = append(t.Regions, tape.Region{
				VirtualBase: currentBase,
				EndDistance: uint64(len(t.Pixels)),
			})
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "0x") {
			closeRegion()
			base, err := strconv.ParseUint(line[2:], 16, 64)
			if err != nil {
				return tape.Tape{}, 0, 0, errors.Wrapf(err, "parsing region header %q", line)
			}
			currentBase = base
			haveRegion = true
			continue
		}
		v, err := strconv.ParseUint(line, 16, 8)
		if err != nil {
			return tape.Tape{}, 0, 0, errors.Wrapf(err, "parsing protection value %q", line)
		}
		t.Pixels = append(t.Pixels, protection.Class(v))
	}
	closeRegion()

	if err := scanner.Err(); err != nil {
		return tape.Tape{}, 0, 0, errors.Wrap(err, "scanning record")
	}

	return t, width, height, nil
}
