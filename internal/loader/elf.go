// Package loader parses a program image into a vm.LoadInfo the core can
// place in RAM. The only format currently supported is 32-bit RISC-V ELF,
// read with the standard library's debug/elf: no example in the corpus
// this was built from carries a third-party ELF parser, so this one
// concern stays on the standard library rather than inventing a
// dependency that was never grounded anywhere.
package loader

import (
	"debug/elf"
	"fmt"

	"github.com/smoynes/rv32emu/internal/vm"
)

// LoadELF parses a 32-bit RISC-V ELF image and classifies its loadable
// segments by their program-header flags: a segment whose flags are a
// subset of read+execute is code (so read-only and flagless segments count
// as code too), otherwise one whose flags are a subset of read+write is
// data (with any memsz beyond filesz becoming a BSS range), and anything
// else is classified as other.
func LoadELF(data []byte) (vm.LoadInfo, error) {
	var info vm.LoadInfo

	file, err := elf.NewFile(bytesReaderAt(data))
	if err != nil {
		return info, fmt.Errorf("loader: %w", err)
	}
	defer file.Close()

	if file.Machine != elf.EM_RISCV {
		return info, fmt.Errorf("loader: not a risc-v image (machine=%s)", file.Machine)
	}

	if file.Class != elf.ELFCLASS32 {
		return info, fmt.Errorf("loader: unsupported elf class %s, want ELFCLASS32", file.Class)
	}

	info.PCEntry = uint32(file.Entry)

	for _, prog := range file.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}

		addr := uint32(prog.Vaddr)

		buf := make([]byte, prog.Filesz)
		if prog.Filesz > 0 {
			if _, err := prog.ReadAt(buf, 0); err != nil {
				return info, fmt.Errorf("loader: reading segment at %#x: %w", addr, err)
			}
		}

		seg := vm.Segment{Bytes: buf, Addr: addr}

		isCode := prog.Flags&^(elf.PF_R|elf.PF_X) == 0
		isData := prog.Flags&^(elf.PF_R|elf.PF_W) == 0

		switch {
		case isCode:
			info.Code = append(info.Code, seg)
		case isData:
			info.Data = append(info.Data, seg)

			if prog.Memsz > prog.Filesz {
				info.BSS = append(info.BSS, vm.BSSRange{
					Addr: addr + uint32(prog.Filesz),
					Size: int(prog.Memsz - prog.Filesz),
				})
			}
		default:
			info.Other = append(info.Other, seg)
		}
	}

	info.Symbols = symbolTable(file)

	return info, nil
}

// symbolTable collects the function, object and unclassified symbols an
// ELF image carries, for the debug facade's disassembly view. Symbols with
// no value, no section, an empty name or a "$"-prefixed mapping-symbol
// name are dropped, matching the filtering a RISC-V disassembler applies
// to ignore linker-internal markers.
func symbolTable(file *elf.File) map[uint32]string {
	syms, err := file.Symbols()
	if err != nil {
		return nil
	}

	out := make(map[uint32]string)

	for _, sym := range syms {
		typ := elf.ST_TYPE(sym.Info)
		if typ != elf.STT_FUNC && typ != elf.STT_OBJECT && typ != elf.STT_NOTYPE {
			continue
		}

		if sym.Value == 0 || sym.Section == elf.SHN_UNDEF {
			continue
		}

		if sym.Name == "" || sym.Name[0] == '$' {
			continue
		}

		out[uint32(sym.Value)] = sym.Name
	}

	return out
}

// bytesReaderAt adapts a byte slice to io.ReaderAt, the interface
// debug/elf.NewFile requires.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, fmt.Errorf("loader: read offset %d out of range", off)
	}

	n := copy(p, b[off:])
	if n < len(p) {
		return n, fmt.Errorf("loader: short read at offset %d", off)
	}

	return n, nil
}
