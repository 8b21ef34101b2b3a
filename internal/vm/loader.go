package vm

// loader.go takes a parsed program image and places it in RAM ahead of
// execution. Parsing the image format itself (ELF) lives in
// internal/loader; this package only knows about LoadInfo, the neutral
// structure that crosses the package boundary.

import (
	"errors"
	"fmt"

	"github.com/smoynes/rv32emu/internal/log"
)

// Segment is one contiguous range of bytes destined for a physical address.
type Segment struct {
	Bytes []byte
	Addr  uint32
}

// BSSRange describes a zero-filled region with no backing bytes in the
// image; the loader still has to materialize it since this core's RAM
// lazily allocates on write but LoadInfo.BSS may overlap previously
// unrelated pages that a test harness reads before first touching them.
type BSSRange struct {
	Addr uint32
	Size int
}

// LoadInfo is the Go-native rendering of the ELF loader's output: the
// entry PC, the segments classified by how the source ELF marked them, and
// the symbol table the debug facade's disassembly view consults.
type LoadInfo struct {
	PCEntry uint32

	Code  []Segment
	Data  []Segment
	Other []Segment
	BSS   []BSSRange

	// Symbols maps an address to the name of the symbol that starts there,
	// used only by the read-only debug facade.
	Symbols map[uint32]string
}

// ErrObjectLoader is the sentinel wrapped by every load failure, mirroring
// the teacher's single error-class-per-subsystem convention.
var ErrObjectLoader = errors.New("loader error")

// Loader places a LoadInfo image into a CPU's RAM.
type Loader struct {
	cpu *CPU
	log *log.Logger
}

// NewLoader creates a loader bound to cpu.
func NewLoader(cpu *CPU) *Loader {
	return &Loader{cpu: cpu, log: log.DefaultLogger()}
}

// Load writes every segment of info into RAM and sets the program counter
// to its entry address. It bypasses translation and PMP: the loader runs
// before the hart's own instruction stream is in control of memory.
func (l *Loader) Load(info LoadInfo) error {
	segments := 0

	for _, seg := range append(append(append([]Segment{}, info.Code...), info.Data...), info.Other...) {
		if len(seg.Bytes) == 0 {
			continue
		}

		if !l.cpu.Bus.Ram.Contains(seg.Addr) || !l.cpu.Bus.Ram.Contains(seg.Addr+uint32(len(seg.Bytes))-1) {
			return fmt.Errorf("%w: segment at %#x does not fit in ram", ErrObjectLoader, seg.Addr)
		}

		l.cpu.Bus.LoadBytes(seg.Addr, seg.Bytes)
		segments++
	}

	for _, bss := range info.BSS {
		if bss.Size == 0 {
			continue
		}

		l.cpu.Bus.LoadBytes(bss.Addr, make([]byte, bss.Size))
	}

	if segments == 0 && len(info.BSS) == 0 {
		return fmt.Errorf("%w: image has no segments", ErrObjectLoader)
	}

	l.log.Debug("loaded image", "entry", info.PCEntry, "segments", segments)

	l.cpu.PC.Reset(Word(info.PCEntry))

	return nil
}

// LookupSymbol returns the symbol defined at exactly addr, for the debug
// facade's disassembly view. ok is false when info carries no symbol at
// that address; preceding symbols are not searched.
func (info LoadInfo) LookupSymbol(addr uint32) (name string, ok bool) {
	name, ok = info.Symbols[addr]
	return name, ok
}
