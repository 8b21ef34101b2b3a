package vm

import "testing"

func TestDecodeSv32VpnSplitsFields(t *testing.T) {
	addr := uint32(0b00_1111111111_0101010101_110101110101)

	vpn := DecodeSv32Vpn(addr)

	if vpn.Vpn1 != 0b1111111111 {
		t.Errorf("Vpn1 = %#x, want 0x3ff", vpn.Vpn1)
	}

	if vpn.Vpn0 != 0b0101010101 {
		t.Errorf("Vpn0 = %#x, want 0x155", vpn.Vpn0)
	}

	if vpn.Offset != 0b110101110101 {
		t.Errorf("Offset = %#x, want 0xd75", vpn.Offset)
	}
}

func TestDecodeSv32PteRoundTripsThroughEncode(t *testing.T) {
	raw := uint32(0b10101010)<<10 | 0xcf // V,R,W,X,A,D set; U,G clear

	pte := DecodeSv32Pte(raw)

	if !pte.V || !pte.R || !pte.W || !pte.X {
		t.Fatalf("expected V,R,W,X set, got %+v", pte)
	}

	if pte.U || pte.G {
		t.Errorf("expected U,G clear, got %+v", pte)
	}

	if !pte.A || !pte.D {
		t.Errorf("expected A,D set, got %+v", pte)
	}

	if got := pte.Encode(); got != raw {
		t.Errorf("Encode() = %#x, want %#x (round trip)", got, raw)
	}
}

func TestIsLeafRequiresAnyRWX(t *testing.T) {
	ptr := Sv32Pte{V: true}
	if ptr.IsLeaf() {
		t.Error("a pointer PTE (R=W=X=0) should not be a leaf")
	}

	leaf := Sv32Pte{V: true, R: true}
	if !leaf.IsLeaf() {
		t.Error("a PTE with R set should be a leaf")
	}
}

func TestIsMisalignedSuperpage(t *testing.T) {
	aligned := Sv32Pte{Ppn: 0x1000}
	if aligned.IsMisalignedSuperpage() {
		t.Error("Ppn with PPN[0] clear should not be misaligned")
	}

	misaligned := Sv32Pte{Ppn: 0x400 | 1}
	if !misaligned.IsMisalignedSuperpage() {
		t.Error("Ppn with PPN[0] nonzero should be a misaligned superpage")
	}
}

func TestPermitsExecuteImpliesReadOnlyWithMXR(t *testing.T) {
	pte := Sv32Pte{X: true}

	if pte.Permits(AccessLoad, false) {
		t.Error("a execute-only page should not permit loads without MXR")
	}

	if !pte.Permits(AccessLoad, true) {
		t.Error("MXR should let an execute-only page satisfy a load")
	}

	if !pte.Permits(AccessFetch, false) {
		t.Error("an execute-only page should always permit fetch")
	}
}

func TestPermitsAmoRequiresReadAndWrite(t *testing.T) {
	pte := Sv32Pte{R: true}
	if pte.Permits(AccessAmo, false) {
		t.Error("AMO should require both R and W")
	}

	pte.W = true
	if !pte.Permits(AccessAmo, false) {
		t.Error("R and W together should permit AMO")
	}
}
