// Package locate answers the viewer's reverse-lookup question: given a
// pixel (or a Hilbert distance), which virtual address does it represent,
// and vice versa. It is not part of the core engine described by the
// original specification, but every viewer needs it to be useful, and it
// is built entirely from the core's own outputs (C1's codec, C5's
// regions) rather than duplicating any of their logic.
package locate

import (
	"github.com/0vercl0k/clairvoyance/hilbert"
	"github.com/0vercl0k/clairvoyance/ptable"
	"github.com/0vercl0k/clairvoyance/record"
	"github.com/0vercl0k/clairvoyance/tape"
)

// Locator resolves distances and pixel coordinates against a fixed
// (regions, tape length) pair, typically parsed back from a record file.
type Locator struct {
	regions    []tape.Region
	tapeLength uint64
	order      uint
}

// NewLocator builds a Locator over regions covering a tape of the given
// length. order is derived the same way the emitter derives it, so pixel
// coordinates match what the record's dimensions line declares.
func NewLocator(regions []tape.Region, tapeLength uint64) *Locator {
	width, _ := record.Dimensions(tapeLength)
	order := uint(0)
	for (uint64(1) << order) < width {
		order++
	}
	return &Locator{regions: regions, tapeLength: tapeLength, order: order}
}

// Order returns the Hilbert curve order this Locator paints onto.
func (l *Locator) Order() uint { return l.order }

// VirtualAddressAt returns the virtual address a given tape distance
// corresponds to, or ok=false if distance falls outside every region
// (beyond the end of the tape, or within a curve's unpainted tail).
func (l *Locator) VirtualAddressAt(distance uint64) (uint64, bool) {
	start := uint64(0)
	for _, r := range l.regions {
		if distance >= start && distance < r.EndDistance {
			return r.VirtualBase + (distance-start)*ptable.Size, true
		}
		start = r.EndDistance
	}
	return 0, false
}

// DistanceAt returns the tape distance whose virtual address is va, or
// ok=false if va does not fall within any region.
func (l *Locator) DistanceAt(va uint64) (uint64, bool) {
	start := uint64(0)
	for _, r := range l.regions {
		length := r.EndDistance - start
		regionEndVA := r.VirtualBase + length*ptable.Size
		if va >= r.VirtualBase && va < regionEndVA {
			return start + (va-r.VirtualBase)/ptable.Size, true
		}
		start = r.EndDistance
	}
	return 0, false
}

// PixelAt returns the (x, y) pixel a tape distance is painted at.
func (l *Locator) PixelAt(distance uint64) (x, y uint32) {
	return hilbert.CoordOf(uint32(distance), l.order)
}

// DistanceAtPixel is the inverse of PixelAt.
func (l *Locator) DistanceAtPixel(x, y uint32) uint64 {
	return uint64(hilbert.DistanceOf(x, y, l.order))
}

// VirtualAddressAtPixel composes DistanceAtPixel and VirtualAddressAt: the
// single operation a viewer actually needs when the user clicks a pixel.
// A pixel outside the canvas resolves to ok=false.
func (l *Locator) VirtualAddressAtPixel(x, y uint32) (uint64, bool) {
	side := uint64(1) << l.order
	if uint64(x) >= side || uint64(y) >= side {
		return 0, false
	}
	d := l.DistanceAtPixel(x, y)
	if d >= l.tapeLength {
		return 0, false
	}
	return l.VirtualAddressAt(d)
}
