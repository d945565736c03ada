// Package rawdump is a minimal, self-contained dump.Source: it reads a flat
// container of (physical address, 4 KiB page) records and mmaps the backing
// file read-only so that GetPhysicalPage hands back a slice straight into
// the mapping — no copy, matching the zero-copy contract the walker
// requires.
//
// Parsing the actual Windows crash-dump format (kdmp-parser's container,
// bitmap dumps, CONTEXT/BugCheck records) is explicitly out of scope for
// this engine; this format is a deliberately small stand-in used by the CLI
// and by tests, grounded in the same "mmap once, hand out slices" idiom the
// teacher uses in memory/manager/snapshot_state.go for guest memory.
package rawdump

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/0vercl0k/clairvoyance/dump"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	magic      = "CLRV"
	pageSize   = 4096
	headerSize = 4 + 4 + 8 + 4 + 8 // magic, version, dirBase, kind, pageCount
)

// Image is a dump.Source backed by an mmap'd rawdump container file.
type Image struct {
	data          []byte
	directoryBase uint64
	kind          dump.Kind
	pages         map[uint64][]byte // physical address -> page slice into data
}

// Open mmaps path read-only and indexes its page records. The returned
// Image must be closed with Close once the caller is done walking it.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if st.Size() < headerSize {
		return nil, errors.Errorf("%s is too small to be a rawdump container", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", path)
	}

	img, err := parseHeader(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	img.data = data

	if err := img.indexPages(); err != nil {
		_ = unix.Munmap(data)
		return nil, errors.Wrapf(err, "indexing %s", path)
	}

	return img, nil
}

func parseHeader(data []byte) (*Image, error) {
	if string(data[0:4]) != magic {
		return nil, errors.Errorf("bad magic %q", data[0:4])
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != 1 {
		return nil, errors.Errorf("unsupported version %d", version)
	}
	directoryBase := binary.LittleEndian.Uint64(data[8:16])
	kind := dump.Kind(binary.LittleEndian.Uint32(data[16:20]))

	return &Image{
		directoryBase: directoryBase,
		kind:          kind,
		pages:         make(map[uint64][]byte),
	}, nil
}

func (img *Image) indexPages() error {
	pageCount := binary.LittleEndian.Uint64(img.data[20:28])
	offset := headerSize
	for i := uint64(0); i < pageCount; i++ {
		if offset+8+pageSize > len(img.data) {
			return errors.Errorf("truncated record %d of %d", i, pageCount)
		}
		pa := binary.LittleEndian.Uint64(img.data[offset : offset+8])
		offset += 8
		img.pages[pa] = img.data[offset : offset+pageSize]
		offset += pageSize
	}
	return nil
}

// Close unmaps the backing file.
func (img *Image) Close() error {
	if img.data == nil {
		return nil
	}
	err := unix.Munmap(img.data)
	img.data = nil
	return err
}

// GetPhysicalPage implements dump.Source.
func (img *Image) GetPhysicalPage(physicalAddress uint64) ([]byte, bool) {
	page, ok := img.pages[physicalAddress]
	return page, ok
}

// GetDirectoryTableBase implements dump.Source.
func (img *Image) GetDirectoryTableBase() uint64 { return img.directoryBase }

// DumpType implements dump.Source.
func (img *Image) DumpType() dump.Kind { return img.kind }

// Writer builds a rawdump container file, one page at a time. It exists
// mainly so tests (and anyone bootstrapping a synthetic dump) don't have to
// hand-encode the format.
type Writer struct {
	pages []pageRecord
}

type pageRecord struct {
	pa   uint64
	page [pageSize]byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// AddPage stages a physical page for the container. page must be exactly
// 4096 bytes.
func (wr *Writer) AddPage(physicalAddress uint64, page []byte) error {
	if len(page) != pageSize {
		return fmt.Errorf("page must be %d bytes, got %d", pageSize, len(page))
	}
	var rec pageRecord
	rec.pa = physicalAddress
	copy(rec.page[:], page)
	wr.pages = append(wr.pages, rec)
	return nil
}

// WriteTo writes the full container (header + staged pages) to w.
func (wr *Writer) WriteTo(w io.Writer, directoryBase uint64, kind dump.Kind) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(1)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, directoryBase); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(kind)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(wr.pages))); err != nil {
		return err
	}

	for _, rec := range wr.pages {
		if err := binary.Write(bw, binary.LittleEndian, rec.pa); err != nil {
			return err
		}
		if _, err := bw.Write(rec.page[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}
