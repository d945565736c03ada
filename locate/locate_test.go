package locate

import (
	"testing"

	"github.com/0vercl0k/clairvoyance/tape"
	"github.com/stretchr/testify/require"
)

func TestVirtualAddressAtWithinSingleRegion(t *testing.T) {
	regions := []tape.Region{{VirtualBase: 0x1000, EndDistance: 10}}
	l := NewLocator(regions, 10)

	va, ok := l.VirtualAddressAt(0)
	require.True(t, ok)
	require.Equal(t, uint64(0x1000), va)

	va, ok = l.VirtualAddressAt(3)
	require.True(t, ok)
	require.Equal(t, uint64(0x1000+3*0x1000), va)

	_, ok = l.VirtualAddressAt(10)
	require.False(t, ok)
}

func TestVirtualAddressAtSecondRegion(t *testing.T) {
	regions := []tape.Region{
		{VirtualBase: 0x1000, EndDistance: 3},
		{VirtualBase: 0x500000, EndDistance: 5},
	}
	l := NewLocator(regions, 5)

	va, ok := l.VirtualAddressAt(3)
	require.True(t, ok)
	require.Equal(t, uint64(0x500000), va)

	va, ok = l.VirtualAddressAt(4)
	require.True(t, ok)
	require.Equal(t, uint64(0x500000+0x1000), va)
}

func TestDistanceAtIsInverseOfVirtualAddressAt(t *testing.T) {
	regions := []tape.Region{
		{VirtualBase: 0x1000, EndDistance: 3},
		{VirtualBase: 0x500000, EndDistance: 5},
	}
	l := NewLocator(regions, 5)

	for d := uint64(0); d < 5; d++ {
		va, ok := l.VirtualAddressAt(d)
		require.True(t, ok)

		got, ok := l.DistanceAt(va)
		require.True(t, ok)
		require.Equal(t, d, got)
	}
}

func TestPixelRoundTrip(t *testing.T) {
	regions := []tape.Region{{VirtualBase: 0, EndDistance: 262144}}
	l := NewLocator(regions, 262144)

	for d := uint64(0); d < 262144; d += 4099 {
		x, y := l.PixelAt(d)
		require.Equal(t, d, l.DistanceAtPixel(x, y))
	}
}

func TestVirtualAddressAtPixelOutOfRange(t *testing.T) {
	regions := []tape.Region{{VirtualBase: 0, EndDistance: 4}}
	l := NewLocator(regions, 4)

	_, ok := l.VirtualAddressAtPixel(1000, 1000)
	require.False(t, ok)
}
