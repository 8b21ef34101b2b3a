package vm

// tlb.go implements a set-associative translation lookaside buffer: 64
// sets of 4 ways, matched by tag and ASID, replaced by a 3-bit tree
// pseudo-LRU per set.

const (
	tlbSets = 64
	tlbWays = 4
)

// PageSize distinguishes a 4 KiB leaf from a 4 MiB Sv32 superpage, so a
// superpage hit forms its physical address from the superpage base plus
// vpn_0. Lookups still match the full vpn, so each 4 KiB page of a
// superpage is cached as its own entry.
type PageSize uint8

const (
	Page4KiB  PageSize = 0
	Page4MiB  PageSize = 1
)

// TlbEntry is one cached translation.
type TlbEntry struct {
	Valid  bool
	Global bool
	Tag    uint32 // vpn >> 6, 14 bits
	Asid   uint32 // 9 bits
	Ppn    uint32 // 22 bits
	R, W, X, U bool
	A, D   bool
	Size   PageSize
}

// PlruState is the 3-bit tree pseudo-LRU state for a 4-way set: b0 selects
// between the {0,1} and {2,3} pairs, b1 breaks the tie within {0,1}, b2
// within {2,3}.
type PlruState struct {
	b0, b1, b2 bool
}

// victim returns the way the tree currently points to, the pseudo-least
// recently used one.
func (p PlruState) victim() int {
	if !p.b0 {
		if !p.b1 {
			return 0
		}

		return 1
	}

	if !p.b2 {
		return 2
	}

	return 3
}

// touch updates the tree to point away from way, the most recently used.
func (p *PlruState) touch(way int) {
	switch way {
	case 0:
		p.b0, p.b1 = true, true
	case 1:
		p.b0, p.b1 = true, false
	case 2:
		p.b0, p.b2 = false, true
	case 3:
		p.b0, p.b2 = false, false
	}
}

// TlbSet is one congruence class of the TLB.
type TlbSet struct {
	entries [tlbWays]TlbEntry
	plru    PlruState
}

func (s *TlbSet) lookup(tag, asid uint32) (*TlbEntry, int, bool) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.Valid && e.Tag == tag && (e.Global || e.Asid == asid) {
			return e, i, true
		}
	}

	return nil, -1, false
}

func (s *TlbSet) fill(entry TlbEntry) int {
	way := s.victim()

	for i := range s.entries {
		if !s.entries[i].Valid {
			way = i
			break
		}
	}

	s.entries[way] = entry
	s.plru.touch(way)

	return way
}

func (s *TlbSet) victim() int { return s.plru.victim() }

// Tlb is the full set-associative TLB.
type Tlb struct {
	sets [tlbSets]TlbSet

	Hits, Misses uint64
}

func vpnSetTag(vpn uint32) (set, tag uint32) {
	return vpn % tlbSets, vpn / tlbSets
}

// Lookup consults the TLB for vpn/asid, bumping the hit/miss counters.
func (t *Tlb) Lookup(vpn, asid uint32) (TlbEntry, bool) {
	set, tag := vpnSetTag(vpn)

	e, way, ok := t.sets[set].lookup(tag, asid)
	if !ok {
		t.Misses++
		return TlbEntry{}, false
	}

	t.Hits++
	t.sets[set].plru.touch(way)

	return *e, true
}

// Fill inserts a freshly walked translation, evicting by pseudo-LRU if the
// set is full.
func (t *Tlb) Fill(vpn uint32, entry TlbEntry) {
	set, tag := vpnSetTag(vpn)
	entry.Tag = tag
	entry.Valid = true

	t.sets[set].fill(entry)
}

// UpdateAD rewrites the A/D bits of the entry caching vpn/asid in place,
// used after a walk sets A or D in the page table and the entry is already
// resident.
func (t *Tlb) UpdateAD(vpn, asid uint32, a, d bool) {
	set, tag := vpnSetTag(vpn)
	if e, _, ok := t.sets[set].lookup(tag, asid); ok {
		e.A, e.D = a, d
	}
}

// Flush implements SFENCE.VMA semantics: addr == 0 flushes every address,
// asid == 0 flushes every ASID (the "zeros meaning wildcard" rule). A
// non-zero addr is first masked down to its VPN.
func (t *Tlb) Flush(addr, asid uint32) {
	flushAddr := addr != 0
	flushAsid := asid != 0

	vpn := (addr &^ 0xfff) >> 12

	for s := range t.sets {
		for w := range t.sets[s].entries {
			e := &t.sets[s].entries[w]
			if !e.Valid {
				continue
			}

			if flushAsid && e.Global {
				continue
			}

			if flushAsid && e.Asid != asid {
				continue
			}

			if flushAddr {
				set, tag := vpnSetTag(vpn)
				if uint32(s) != set || e.Tag != tag {
					continue
				}
			}

			*e = TlbEntry{}
		}
	}
}

// Reset empties every set.
func (t *Tlb) Reset() {
	*t = Tlb{}
}
