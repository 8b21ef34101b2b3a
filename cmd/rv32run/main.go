// rv32run loads a 32-bit RISC-V ELF image and runs it on the emulator
// core, optionally dropping into an interactive monitor or attaching the
// UART to a raw terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/smoynes/rv32emu/internal/loader"
	"github.com/smoynes/rv32emu/internal/log"
	"github.com/smoynes/rv32emu/internal/vm"
)

func main() {
	optImage := getopt.StringLong("image", 'i', "", "ELF image to load")
	optCycles := getopt.Uint64Long("cycles", 'c', 10_000_000, "maximum instructions to execute, 0 for unlimited")
	optDRAM := getopt.Uint64Long("dram", 'd', vm.DramDefault, "DRAM size in bytes")
	optMonitor := getopt.BoolLong("monitor", 'm', "drop into the interactive monitor instead of running to completion")
	optTTY := getopt.BoolLong("tty", 't', "put the controlling terminal in raw mode for UART output")
	optVerbose := getopt.BoolLong("verbose", 'v', "enable debug logging")
	optHelp := getopt.BoolLong("help", 'h', "print usage")

	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	if *optVerbose {
		log.LogLevel.Set(slog.LevelDebug)
	}

	logger := log.DefaultLogger()
	log.SetDefault(logger)

	if *optImage == "" {
		fmt.Fprintln(os.Stderr, "rv32run: -image is required")
		getopt.Usage()
		os.Exit(2)
	}

	var restore func()

	uartOut := os.Stdout
	if *optTTY {
		state, err := term.MakeRaw(int(os.Stdout.Fd()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "rv32run: -tty: %v\n", err)
			os.Exit(1)
		}

		restore = func() { _ = term.Restore(int(os.Stdout.Fd()), state) }
		defer restore()
	}

	data, err := os.ReadFile(*optImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32run: %v\n", err)
		os.Exit(1)
	}

	info, err := loader.LoadELF(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32run: %v\n", err)
		os.Exit(1)
	}

	cpu := vm.New(uint32(*optDRAM), vm.NewUart(uartOut), vm.WithLogger(logger))

	if err := vm.NewLoader(cpu).Load(info); err != nil {
		fmt.Fprintf(os.Stderr, "rv32run: %v\n", err)
		os.Exit(1)
	}

	if *optMonitor {
		runMonitor(cpu, info)
		return
	}

	run(cpu, *optCycles)
}

// run steps the hart until it exhausts its cycle budget. A budget of zero
// means unlimited.
func run(cpu *vm.CPU, budget uint64) {
	for budget == 0 || cpu.Cycles < budget {
		if err := cpu.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "rv32run: %v\n", err)
			return
		}
	}
}

// runMonitor drives an interactive REPL over the read-only debug facade,
// stepping the hart on command.
func runMonitor(cpu *vm.CPU, info vm.LoadInfo) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	fmt.Println("rv32run monitor: step, regs, csrs, mem <addr> <len>, dis [addr] [count], info, quit")

	for {
		cmd, err := line.Prompt("rv32run> ")
		if err != nil {
			return
		}

		line.AppendHistory(cmd)

		if quit := monitorCommand(cpu, info, cmd); quit {
			return
		}
	}
}

func monitorCommand(cpu *vm.CPU, info vm.LoadInfo, cmd string) (quit bool) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true

	case "step":
		n := 1
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}

		for i := 0; i < n; i++ {
			if err := cpu.Step(); err != nil {
				fmt.Println("error:", err)
				return false
			}
		}

	case "regs":
		for i, v := range cpu.InspectRegs() {
			fmt.Printf("x%-2d = %#010x", i, v)

			if i%4 == 3 {
				fmt.Println()
			} else {
				fmt.Print("  ")
			}
		}

		fmt.Printf("pc  = %#010x\n", cpu.InspectPC())

	case "csrs":
		for _, csr := range cpu.InspectCSRs() {
			fmt.Printf("%-10s = %#010x\n", csr.Name, csr.Value)
		}

	case "mem":
		if len(fields) < 3 {
			fmt.Println("usage: mem <addr> <len>")
			return false
		}

		addr := parseUint(fields[1])
		length := parseUint(fields[2])

		data := cpu.InspectMem(addr, length)
		dumpBytes(addr, data)

	case "dis":
		addr := cpu.InspectPC()
		count := 10

		if len(fields) > 1 {
			addr = parseUint(fields[1])
		}

		if len(fields) > 2 {
			count, _ = strconv.Atoi(fields[2])
		}

		for _, line := range cpu.InspectIns(addr, count, info.Symbols) {
			if line.Symbol != "" {
				fmt.Printf("%s:\n", line.Symbol)
			}

			fmt.Printf("%#010x:\t%s\n", line.Addr, line.Text)
		}

	case "info":
		mi := cpu.GetInfo()
		fmt.Printf("dram: base=%#x size=%d mode=%s tlb hits=%d misses=%d\n",
			mi.DRAMBase, mi.DRAMSize, mi.CurrentMode, mi.TLBHits, mi.TLBMisses)

	default:
		fmt.Println("unknown command:", fields[0])
	}

	return false
}

func parseUint(s string) uint32 {
	s = strings.TrimPrefix(s, "0x")

	v, _ := strconv.ParseUint(s, 16, 32)

	return uint32(v)
}

func dumpBytes(base uint32, data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}

		fmt.Printf("%#010x:  % x\n", base+uint32(i), data[i:end])
	}
}
