package walker

import (
	"encoding/binary"
	"testing"

	"github.com/0vercl0k/clairvoyance/dump"
	"github.com/0vercl0k/clairvoyance/ptable"
	"github.com/stretchr/testify/require"
)

// memSource is a tiny in-memory dump.Source for tests: physical pages are
// keyed by address, with no backing file at all.
type memSource struct {
	pages map[uint64][]byte
	base  uint64
	kind  dump.Kind
}

func newMemSource(base uint64) *memSource {
	return &memSource{pages: make(map[uint64][]byte), base: base, kind: dump.Full}
}

func (m *memSource) GetPhysicalPage(pa uint64) ([]byte, bool) {
	p, ok := m.pages[pa]
	return p, ok
}
func (m *memSource) GetDirectoryTableBase() uint64 { return m.base }
func (m *memSource) DumpType() dump.Kind           { return m.kind }

func (m *memSource) newTable(pa uint64) []byte {
	page := make([]byte, ptable.Size)
	m.pages[pa] = page
	return page
}

func setPTE(table []byte, index int, raw uint64) {
	binary.LittleEndian.PutUint64(table[index*8:index*8+8], raw)
}

func mkPTERaw(present, write, user, noExec, largePage bool, pfn uint64) uint64 {
	var raw uint64
	if present {
		raw |= 1 << 0
	}
	if write {
		raw |= 1 << 1
	}
	if user {
		raw |= 1 << 2
	}
	if largePage {
		raw |= 1 << 7
	}
	raw |= (pfn & 0xFFFFFFFFF) << 12
	if noExec {
		raw |= 1 << 63
	}
	return raw
}

func TestSingleNormalPage(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	pdpt := src.newTable(0x2000)
	pd := src.newTable(0x3000)
	pt := src.newTable(0x4000)

	setPTE(pml4, 0, mkPTERaw(true, true, true, false, false, 0x2))
	setPTE(pdpt, 0, mkPTERaw(true, true, true, false, false, 0x3))
	setPTE(pd, 0, mkPTERaw(true, true, true, false, false, 0x4))
	setPTE(pt, 0, mkPTERaw(true, true, true, false, false, 0x9))

	w, ok := New(src, 0x1000, nil)
	require.True(t, ok)

	leaf, ok := w.Next()
	require.True(t, ok)
	require.Equal(t, ptable.Normal, leaf.Kind)
	require.Equal(t, uint64(0), leaf.VirtualBase)
	require.Equal(t, uint64(0x9000), leaf.PhysicalBase)

	_, ok = w.Next()
	require.False(t, ok)
}

func TestHugePageAtKernelBase(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	pdpt := src.newTable(0x2000)

	setPTE(pml4, 256, mkPTERaw(true, true, false, true, false, 0x2))
	setPTE(pdpt, 0, mkPTERaw(true, true, false, true, true, 0x2400))

	w, ok := New(src, 0x1000, nil)
	require.True(t, ok)

	leaf, ok := w.Next()
	require.True(t, ok)
	require.Equal(t, ptable.Huge, leaf.Kind)
	require.Equal(t, uint64(0xFFFF800000000000), leaf.VirtualBase)
	require.Equal(t, uint64(0x2400)*ptable.Size, leaf.PhysicalBase)
	require.Equal(t, ptable.PTE{}, leaf.Pde)
	require.Equal(t, uint64(0), leaf.PdeAddress)
}

func TestMissingPTSkipsPDEntry(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	pdpt := src.newTable(0x2000)
	pd := src.newTable(0x3000)

	setPTE(pml4, 0, mkPTERaw(true, true, true, false, false, 0x2))
	setPTE(pdpt, 0, mkPTERaw(true, true, true, false, false, 0x3))
	// PD index 0 points at a PT page that is NOT present in the dump.
	setPTE(pd, 0, mkPTERaw(true, true, true, false, false, 0xbad))
	// PD index 1 points at a PT page that IS present, with one leaf.
	pt := src.newTable(0x4000)
	setPTE(pd, 1, mkPTERaw(true, true, true, false, false, 0x4))
	setPTE(pt, 0, mkPTERaw(true, true, true, false, false, 0x9))

	var missingEvents []Level
	w, ok := New(src, 0x1000, func(level Level, addr uint64) {
		missingEvents = append(missingEvents, level)
	})
	require.True(t, ok)

	leaf, ok := w.Next()
	require.True(t, ok)
	require.Equal(t, ptable.Normal, leaf.Kind)
	require.Equal(t, ptable.FromIndices(0, 0, 1, 0).Raw, leaf.VirtualBase)

	_, ok = w.Next()
	require.False(t, ok)

	require.Equal(t, []Level{LevelPT}, missingEvents)
}

func TestMissingPDPTStillYieldsSiblingPML4Entries(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	// PML4 index 0 points at an absent PDPT.
	setPTE(pml4, 0, mkPTERaw(true, true, true, false, false, 0xbad))

	// PML4 index 1 points at a present PDPT with a huge page.
	pdpt1 := src.newTable(0x5000)
	setPTE(pml4, 1, mkPTERaw(true, true, true, false, false, 0x5))
	setPTE(pdpt1, 0, mkPTERaw(true, true, true, false, true, 0x100))

	w, ok := New(src, 0x1000, nil)
	require.True(t, ok)

	leaf, ok := w.Next()
	require.True(t, ok)
	require.Equal(t, ptable.Huge, leaf.Kind)
	require.Equal(t, ptable.FromIndices(1, 0, 0, 0).Raw, leaf.VirtualBase)

	_, ok = w.Next()
	require.False(t, ok)
}

func TestNoAbsentEntryIsEverEmitted(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	// Every PML4 entry is absent (Present=0).
	_ = pml4

	w, ok := New(src, 0x1000, nil)
	require.True(t, ok)

	_, ok = w.Next()
	require.False(t, ok)
}

func TestRootMissingReturnsNotOk(t *testing.T) {
	src := newMemSource(0x1000) // no page registered at 0x1000
	_, ok := New(src, 0x1000, nil)
	require.False(t, ok)
}

func TestOrderingAscending(t *testing.T) {
	src := newMemSource(0x1000)
	pml4 := src.newTable(0x1000)
	pdpt := src.newTable(0x2000)
	pd := src.newTable(0x3000)
	pt := src.newTable(0x4000)

	setPTE(pml4, 0, mkPTERaw(true, true, true, false, false, 0x2))
	setPTE(pdpt, 0, mkPTERaw(true, true, true, false, false, 0x3))
	setPTE(pd, 0, mkPTERaw(true, true, true, false, false, 0x4))
	setPTE(pt, 0, mkPTERaw(true, true, true, false, false, 0x10))
	setPTE(pt, 5, mkPTERaw(true, true, true, false, false, 0x11))
	setPTE(pt, 2, mkPTERaw(true, true, true, false, false, 0x12))

	w, ok := New(src, 0x1000, nil)
	require.True(t, ok)

	var vas []uint64
	for {
		leaf, ok := w.Next()
		if !ok {
			break
		}
		vas = append(vas, leaf.VirtualBase)
	}

	require.Len(t, vas, 3)
	require.True(t, vas[0] < vas[1])
	require.True(t, vas[1] < vas[2])
}
