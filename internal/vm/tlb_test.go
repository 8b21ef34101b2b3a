package vm

import "testing"

func TestTlbMissThenHit(t *testing.T) {
	var tlb Tlb

	vpn := uint32(0x12345)

	if _, ok := tlb.Lookup(vpn, 0); ok {
		t.Fatal("expected a miss on an empty TLB")
	}

	tlb.Fill(vpn, TlbEntry{Asid: 0, Ppn: 0xabcde, R: true})

	entry, ok := tlb.Lookup(vpn, 0)
	if !ok {
		t.Fatal("expected a hit after fill")
	}

	if entry.Ppn != 0xabcde {
		t.Errorf("Ppn = %#x, want 0xabcde", entry.Ppn)
	}

	if tlb.Hits != 1 || tlb.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", tlb.Hits, tlb.Misses)
	}
}

func TestTlbGlobalEntryIgnoresAsid(t *testing.T) {
	var tlb Tlb

	vpn := uint32(7)
	tlb.Fill(vpn, TlbEntry{Global: true, Asid: 3, Ppn: 1})

	if _, ok := tlb.Lookup(vpn, 9); !ok {
		t.Error("a global entry should match regardless of ASID")
	}
}

func TestTlbPseudoLruEvictsInOrder(t *testing.T) {
	var set TlbSet

	for i := 0; i < tlbWays; i++ {
		set.fill(TlbEntry{Tag: uint32(i)})
	}

	// All four ways are now valid. Touching 2 last points b0 at the {0,1}
	// pair, and touching 1 before it points b1 at way 0, so the tree
	// (unlike a true LRU) picks way 0 next.
	set.plru.touch(0)
	set.plru.touch(1)
	set.plru.touch(2)

	if got := set.victim(); got != 0 {
		t.Errorf("victim() = %d, want 0 after touching 0,1,2", got)
	}
}

func TestTlbFlushWildcards(t *testing.T) {
	var tlb Tlb

	tlb.Fill(1, TlbEntry{Asid: 5, Ppn: 1})
	tlb.Fill(2, TlbEntry{Asid: 6, Ppn: 2})

	tlb.Flush(0, 0) // wildcard both address and ASID

	if _, ok := tlb.Lookup(1, 5); ok {
		t.Error("Flush(0, 0) should have evicted every entry")
	}

	if _, ok := tlb.Lookup(2, 6); ok {
		t.Error("Flush(0, 0) should have evicted every entry")
	}
}

func TestTlbFlushAsidScopedSparesGlobalEntry(t *testing.T) {
	var tlb Tlb

	tlb.Fill(1, TlbEntry{Global: true, Asid: 5, Ppn: 1})
	tlb.Fill(2, TlbEntry{Asid: 6, Ppn: 2})

	tlb.Flush(0, 6) // ASID-scoped flush, targeting an unrelated ASID

	if _, ok := tlb.Lookup(1, 9); !ok {
		t.Error("a global entry should survive an ASID-targeted flush")
	}

	if _, ok := tlb.Lookup(2, 6); ok {
		t.Error("ASID 6's non-global entry should have been flushed")
	}
}

func TestTlbFlushSpecificAsidLeavesOthers(t *testing.T) {
	var tlb Tlb

	tlb.Fill(1, TlbEntry{Asid: 5, Ppn: 1})
	tlb.Fill(2, TlbEntry{Asid: 6, Ppn: 2})

	tlb.Flush(0, 5)

	if _, ok := tlb.Lookup(1, 5); ok {
		t.Error("ASID 5's entry should have been flushed")
	}

	if _, ok := tlb.Lookup(2, 6); !ok {
		t.Error("ASID 6's entry should survive a flush targeting ASID 5")
	}
}
