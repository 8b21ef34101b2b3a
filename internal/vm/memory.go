package vm

// memory.go implements the sparse, paged physical RAM region: pages are
// allocated lazily on first write, and a read of a page that was never
// written returns zeros without allocating one.

const (
	pageSize  = 4096
	pageShift = 12
)

type page [pageSize]byte

// Ram is a sparse block of physical memory starting at Base, sized Size
// bytes, backed by lazily allocated 4 KiB pages.
type Ram struct {
	Base  uint32
	Size  uint32
	pages map[uint32]*page
}

// NewRam allocates a Ram descriptor covering [base, base+size). No pages are
// allocated until first written.
func NewRam(base, size uint32) *Ram {
	return &Ram{Base: base, Size: size, pages: make(map[uint32]*page)}
}

// Reset discards every allocated page.
func (r *Ram) Reset() {
	r.pages = make(map[uint32]*page)
}

// Contains reports whether addr falls within the region.
func (r *Ram) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

func (r *Ram) pageOf(addr uint32) (index uint32, offset uint32) {
	rel := addr - r.Base
	return rel >> pageShift, rel & (pageSize - 1)
}

// ReadBytes fills dst from addr, reading zeros from any page never
// written, and supports reads that straddle page boundaries.
func (r *Ram) ReadBytes(addr uint32, dst []byte) {
	for i := range dst {
		idx, off := r.pageOf(addr + uint32(i))

		if pg, ok := r.pages[idx]; ok {
			dst[i] = pg[off]
		} else {
			dst[i] = 0
		}
	}
}

// WriteBytes stores src at addr, allocating any page it touches for the
// first time.
func (r *Ram) WriteBytes(addr uint32, src []byte) {
	for i, b := range src {
		idx, off := r.pageOf(addr + uint32(i))

		pg, ok := r.pages[idx]
		if !ok {
			pg = &page{}
			r.pages[idx] = pg
		}

		pg[off] = b
	}
}

// AllocatedPages returns the number of distinct pages ever written, for
// debug reporting.
func (r *Ram) AllocatedPages() int {
	return len(r.pages)
}
