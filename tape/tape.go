// Package tape implements C5: it drives a walker.Walker, folds each leaf's
// permission bits with protection.Fold, expands super-pages into 4 KiB
// pixels, and tracks the contiguous virtual-address runs ("regions") that
// the viewer later reverse-maps pixel-by-pixel.
package tape

import (
	"github.com/0vercl0k/clairvoyance/protection"
	"github.com/0vercl0k/clairvoyance/ptable"
	"github.com/0vercl0k/clairvoyance/walker"
)

// MaxGapPixels bounds how many filler pixels a single hole between two
// leaves may contribute before the current region is closed and a new one
// started.
const MaxGapPixels = 10000

// Region is a maximal run of tape entries whose virtual addresses form a
// contiguous arithmetic progression with step 4096. EndDistance is
// exclusive; a region's start distance is the previous region's
// EndDistance (0 for the first region).
type Region struct {
	VirtualBase uint64
	EndDistance uint64
}

// GapFunc is called once for every hole between two leaves that exceeded
// MaxGapPixels. It is a warning, never fatal.
type GapFunc func(start, end uint64)

// LeafFunc is called once per leaf the walker yields, before it is expanded
// into pixels. It exists for observability (run statistics); callers that
// don't need it may pass nil.
type LeafFunc func(kind ptable.Kind)

// Tape is the built (protection-per-pixel, region) pair for one run.
type Tape struct {
	Pixels  []protection.Class
	Regions []Region
}

// Build drains w to exhaustion, producing a Tape, using MaxGapPixels as the
// gap cap. onGap may be nil.
func Build(w *walker.Walker, onGap GapFunc) Tape {
	return BuildWithCap(w, MaxGapPixels, onGap)
}

// BuildWithCap is Build with a caller-supplied gap cap, wired to the
// engine's configuration so operators can trade canvas size for how much
// of a sparse address space gets bridged into a single region.
func BuildWithCap(w *walker.Walker, maxGapPixels uint64, onGap GapFunc) Tape {
	return BuildWithOptions(w, maxGapPixels, onGap, nil)
}

// BuildWithOptions is BuildWithCap with an additional onLeaf observer,
// invoked once per leaf before its pixels are appended.
func BuildWithOptions(w *walker.Walker, maxGapPixels uint64, onGap GapFunc, onLeaf LeafFunc) Tape {
	if onGap == nil {
		onGap = func(uint64, uint64) {}
	}
	if onLeaf == nil {
		onLeaf = func(ptable.Kind) {}
	}

	var t Tape
	var lastVA uint64
	haveLast := false
	var regionBase uint64
	haveRegion := false

	closeRegion := func() {
		if haveRegion {
			t.Regions = append(t.Regions, Region{
				VirtualBase: regionBase,
				EndDistance: uint64(len(t.Pixels)),
			})
		}
	}

	for {
		leaf, ok := w.Next()
		if !ok {
			break
		}

		if !haveRegion {
			regionBase = leaf.VirtualBase
			haveRegion = true
		}

		if haveLast {
			gapStart := lastVA + ptable.Size
			if leaf.VirtualBase != gapStart {
				filled := fillGap(&t, gapStart, leaf.VirtualBase, maxGapPixels)
				lastVA = gapStart + filled*ptable.Size
				if filled == maxGapPixels && lastVA != leaf.VirtualBase {
					onGap(gapStart, leaf.VirtualBase)
					closeRegion()
					regionBase = leaf.VirtualBase
				}
			}
		}

		onLeaf(leaf.Kind)

		class := protection.Fold(leaf.Pml4e, leaf.Pdpte, leaf.Pde, leaf.Pte, leaf.Kind)
		pixels := leaf.Kind.NumberPixels()
		for i := uint64(0); i < pixels; i++ {
			t.Pixels = append(t.Pixels, class)
			lastVA = leaf.VirtualBase + i*ptable.Size
		}
		haveLast = true
	}

	closeRegion()
	return t
}

// fillGap appends filler None pixels between [from, to), capped at
// maxGapPixels, and returns how many it appended.
func fillGap(t *Tape, from, to, maxGapPixels uint64) uint64 {
	holePixels := (to - from) / ptable.Size
	n := holePixels
	if n > maxGapPixels {
		n = maxGapPixels
	}
	for i := uint64(0); i < n; i++ {
		t.Pixels = append(t.Pixels, protection.None)
	}
	return n
}
