package mips

import (
	"fmt"
	"io"
	"os"
)

// Op identifies one instruction in the register dialect the compiler
// targets.
type Op int

const (
	OpLI Op = iota
	OpLA
	OpMOVE
	OpLW
	OpSW
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpREM
	OpAND
	OpOR
	OpADDI
	OpSLT
	OpSLE
	OpSGT
	OpSGE
	OpSEQ
	OpSNE
	OpJ
	OpBEQZ
	OpJAL
	OpJR
	OpSYSCALL
)

var opNames = [...]string{
	"li", "la", "move", "lw", "sw",
	"add", "sub", "mul", "div", "rem", "and", "or", "addi",
	"slt", "sle", "sgt", "sge", "seq", "sne",
	"j", "beqz", "jal", "jr", "syscall",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Register indices. $zero reads as zero and ignores writes.
const (
	RegZero = iota
	RegV0
	RegA0
	RegT0
	RegT1
	RegFP
	RegSP
	RegRA
	NumRegs
)

var RegNames = [NumRegs]string{"$zero", "$v0", "$a0", "$t0", "$t1", "$fp", "$sp", "$ra"}

// Syscall services, selected by $v0.
const (
	SysPrintInt  = 1
	SysExit      = 10
	SysPrintChar = 11
)

// Instr is one decoded instruction. The first register operand always
// lands in Rd whatever its role, so sw's source and beqz's tested
// register both live there. Imm holds the immediate, the memory offset,
// or a resolved label address depending on the opcode. Line points back
// at the assembly source line for error reporting.
type Instr struct {
	Op         Op
	Rd, Rs, Rt int
	Imm        int32
	Line       int
}

// Program is the loadable unit the assembler produces. Jump targets in
// Instrs are instruction indexes; data addresses are byte offsets into
// the memory image, which starts with Data.
type Program struct {
	Instrs     []Instr
	Data       []int32
	DataLabels map[string]int32
}

// DefaultMemWords gives 256 KiB of memory, data at the bottom and the
// stack falling from the top.
const DefaultMemWords = 64 * 1024

// DefaultMaxSteps bounds Run when the caller passes no budget.
const DefaultMaxSteps = 1_000_000

// returnSentinel is the initial $ra. Returning to it halts the machine,
// which is how a program entered with j main terminates.
const returnSentinel = -1

// Machine interprets a Program. Memory is one word array addressed in
// bytes, so every load and store must be word aligned. Output from the
// print syscalls goes to the injected writer.
type Machine struct {
	prog   *Program
	regs   [NumRegs]int32
	mem    []int32
	pc     int
	out    io.Writer
	halted bool
}

func NewMachine(prog *Program, out io.Writer) *Machine {
	if out == nil {
		out = os.Stdout
	}
	m := &Machine{prog: prog, out: out, mem: make([]int32, DefaultMemWords)}
	copy(m.mem, prog.Data)
	m.regs[RegSP] = int32(len(m.mem) * 4)
	m.regs[RegRA] = returnSentinel
	return m
}

// Reg reads a register, mainly for tests.
func (m *Machine) Reg(r int) int32 {
	return m.regs[r]
}

// Halted reports whether the machine has stopped.
func (m *Machine) Halted() bool {
	return m.halted
}

func (m *Machine) set(r int, v int32) {
	if r != RegZero {
		m.regs[r] = v
	}
}

func (m *Machine) wordIndex(addr int32, in Instr) (int, error) {
	if addr%4 != 0 {
		return 0, fmt.Errorf("mips: unaligned access at address %d (line %d)", addr, in.Line)
	}
	w := int(addr / 4)
	if addr < 0 || w >= len(m.mem) {
		return 0, fmt.Errorf("mips: memory access out of range at address %d (line %d)", addr, in.Line)
	}
	return w, nil
}

func (m *Machine) load(addr int32, in Instr) (int32, error) {
	w, err := m.wordIndex(addr, in)
	if err != nil {
		return 0, err
	}
	return m.mem[w], nil
}

func (m *Machine) store(addr, v int32, in Instr) error {
	w, err := m.wordIndex(addr, in)
	if err != nil {
		return err
	}
	m.mem[w] = v
	return nil
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Step executes one instruction. It is a no-op once the machine halts.
func (m *Machine) Step() error {
	if m.halted {
		return nil
	}
	if m.pc < 0 || m.pc >= len(m.prog.Instrs) {
		return fmt.Errorf("mips: program counter %d outside program", m.pc)
	}
	in := m.prog.Instrs[m.pc]
	m.pc++

	switch in.Op {
	case OpLI, OpLA:
		m.set(in.Rd, in.Imm)

	case OpMOVE:
		m.set(in.Rd, m.regs[in.Rs])

	case OpLW:
		v, err := m.load(m.regs[in.Rs]+in.Imm, in)
		if err != nil {
			return err
		}
		m.set(in.Rd, v)

	case OpSW:
		if err := m.store(m.regs[in.Rs]+in.Imm, m.regs[in.Rd], in); err != nil {
			return err
		}

	case OpADD:
		m.set(in.Rd, m.regs[in.Rs]+m.regs[in.Rt])

	case OpSUB:
		m.set(in.Rd, m.regs[in.Rs]-m.regs[in.Rt])

	case OpMUL:
		m.set(in.Rd, m.regs[in.Rs]*m.regs[in.Rt])

	case OpDIV:
		if m.regs[in.Rt] == 0 {
			return fmt.Errorf("mips: division by zero (line %d)", in.Line)
		}
		m.set(in.Rd, m.regs[in.Rs]/m.regs[in.Rt])

	case OpREM:
		if m.regs[in.Rt] == 0 {
			return fmt.Errorf("mips: division by zero (line %d)", in.Line)
		}
		m.set(in.Rd, m.regs[in.Rs]%m.regs[in.Rt])

	case OpAND:
		m.set(in.Rd, m.regs[in.Rs]&m.regs[in.Rt])

	case OpOR:
		m.set(in.Rd, m.regs[in.Rs]|m.regs[in.Rt])

	case OpADDI:
		m.set(in.Rd, m.regs[in.Rs]+in.Imm)

	case OpSLT:
		m.set(in.Rd, boolWord(m.regs[in.Rs] < m.regs[in.Rt]))

	case OpSLE:
		m.set(in.Rd, boolWord(m.regs[in.Rs] <= m.regs[in.Rt]))

	case OpSGT:
		m.set(in.Rd, boolWord(m.regs[in.Rs] > m.regs[in.Rt]))

	case OpSGE:
		m.set(in.Rd, boolWord(m.regs[in.Rs] >= m.regs[in.Rt]))

	case OpSEQ:
		m.set(in.Rd, boolWord(m.regs[in.Rs] == m.regs[in.Rt]))

	case OpSNE:
		m.set(in.Rd, boolWord(m.regs[in.Rs] != m.regs[in.Rt]))

	case OpJ:
		m.pc = int(in.Imm)

	case OpBEQZ:
		if m.regs[in.Rd] == 0 {
			m.pc = int(in.Imm)
		}

	case OpJAL:
		m.regs[RegRA] = int32(m.pc)
		m.pc = int(in.Imm)

	case OpJR:
		target := m.regs[in.Rd]
		if target == returnSentinel {
			m.halted = true
			return nil
		}
		m.pc = int(target)

	case OpSYSCALL:
		switch m.regs[RegV0] {
		case SysPrintInt:
			fmt.Fprintf(m.out, "%d", m.regs[RegA0])
		case SysPrintChar:
			fmt.Fprintf(m.out, "%c", rune(m.regs[RegA0]))
		case SysExit:
			m.halted = true
		default:
			return fmt.Errorf("mips: unknown syscall %d (line %d)", m.regs[RegV0], in.Line)
		}

	default:
		return fmt.Errorf("mips: unknown opcode %d (line %d)", in.Op, in.Line)
	}
	return nil
}

// Run steps the machine until it halts, an instruction faults, or the
// step budget runs out. A budget of zero or less means the default.
func (m *Machine) Run(maxSteps int) error {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	for i := 0; i < maxSteps; i++ {
		if m.halted {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.halted {
		return nil
	}
	return fmt.Errorf("mips: still running after %d steps", maxSteps)
}
