package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"brio/pkg/mips"
)

// regRegRegOps covers every three-register instruction.
var regRegRegOps = map[string]mips.Op{
	"add": mips.OpADD,
	"sub": mips.OpSUB,
	"mul": mips.OpMUL,
	"div": mips.OpDIV,
	"rem": mips.OpREM,
	"and": mips.OpAND,
	"or":  mips.OpOR,
	"slt": mips.OpSLT,
	"sle": mips.OpSLE,
	"sgt": mips.OpSGT,
	"sge": mips.OpSGE,
	"seq": mips.OpSEQ,
	"sne": mips.OpSNE,
}

type section int

const (
	secText section = iota
	secData
)

// Assembler turns assembly source into a runnable program in two passes:
// the first collects label addresses, the second resolves operands.
// Text labels address instruction indexes; data labels address bytes.
type Assembler struct {
	textLabels map[string]int
	dataLabels map[string]int32
}

type parsedLine struct {
	lineNo   int
	label    string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		textLabels: make(map[string]int),
		dataLabels: make(map[string]int32),
	}
}

func Assemble(src string) (*mips.Program, error) {
	return NewAssembler().Assemble(src)
}

func (a *Assembler) Assemble(src string) (*mips.Program, error) {
	lines := strings.Split(src, "\n")
	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	return a.pass2(lines)
}

func (a *Assembler) defineLabel(name string, lineNo int, sec section, instrIdx int, dataAddr int32) error {
	_, inText := a.textLabels[name]
	_, inData := a.dataLabels[name]
	if inText || inData {
		return fmt.Errorf("duplicate label %q on line %d", name, lineNo)
	}
	if sec == secData {
		a.dataLabels[name] = dataAddr
	} else {
		a.textLabels[name] = instrIdx
	}
	return nil
}

func (a *Assembler) pass1(lines []string) error {
	sec := secText
	ninstr := 0
	ndata := int32(0)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		switch p.mnemonic {
		case ".data":
			sec = secData
			continue
		case ".text":
			sec = secText
			continue
		}

		if p.label != "" {
			if err := a.defineLabel(p.label, lineNo, sec, ninstr, ndata*4); err != nil {
				return err
			}
		}

		if p.mnemonic == "" {
			continue
		}

		if p.mnemonic == ".word" {
			if sec != secData {
				return fmt.Errorf(".word outside .data section on line %d", lineNo)
			}
			if len(p.operands) != 1 {
				return fmt.Errorf(".word expects 1 operand on line %d", lineNo)
			}
			ndata++
			continue
		}

		if sec != secText {
			return fmt.Errorf("instruction %q in .data section on line %d", p.mnemonic, lineNo)
		}
		if !knownOp(p.mnemonic) {
			return fmt.Errorf("unknown instruction %q on line %d", p.mnemonic, lineNo)
		}
		ninstr++
	}
	return nil
}

func (a *Assembler) pass2(lines []string) (*mips.Program, error) {
	prog := &mips.Program{DataLabels: a.dataLabels}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		switch p.mnemonic {
		case "", ".data", ".text":
			continue
		case ".word":
			v, err := parseImmediate(p.operands[0], lineNo)
			if err != nil {
				return nil, err
			}
			prog.Data = append(prog.Data, v)
			continue
		}

		instr, err := a.decode(p)
		if err != nil {
			return nil, err
		}
		instr.Line = lineNo
		prog.Instrs = append(prog.Instrs, instr)
	}
	return prog, nil
}

func (a *Assembler) decode(p parsedLine) (mips.Instr, error) {
	var in mips.Instr
	ops := p.operands
	lineNo := p.lineNo

	expect := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, n, lineNo)
		}
		return nil
	}

	if op, ok := regRegRegOps[p.mnemonic]; ok {
		if err := expect(3); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		rs, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		rt, err := parseRegister(ops[2], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: op, Rd: rd, Rs: rs, Rt: rt}, nil
	}

	switch p.mnemonic {
	case "li":
		if err := expect(2); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		imm, err := parseImmediate(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpLI, Rd: rd, Imm: imm}, nil

	case "la":
		if err := expect(2); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		addr, err := a.dataAddr(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpLA, Rd: rd, Imm: addr}, nil

	case "move":
		if err := expect(2); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		rs, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpMOVE, Rd: rd, Rs: rs}, nil

	case "lw", "sw":
		op := mips.OpLW
		if p.mnemonic == "sw" {
			op = mips.OpSW
		}
		if err := expect(2); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		if strings.Contains(ops[1], "(") {
			off, base, err := parseMem(ops[1], lineNo)
			if err != nil {
				return in, err
			}
			return mips.Instr{Op: op, Rd: rd, Rs: base, Imm: off}, nil
		}
		addr, err := a.dataAddr(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: op, Rd: rd, Rs: mips.RegZero, Imm: addr}, nil

	case "addi":
		if err := expect(3); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		rs, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		imm, err := parseImmediate(ops[2], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpADDI, Rd: rd, Rs: rs, Imm: imm}, nil

	case "j", "jal":
		op := mips.OpJ
		if p.mnemonic == "jal" {
			op = mips.OpJAL
		}
		if err := expect(1); err != nil {
			return in, err
		}
		addr, err := a.textAddr(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: op, Imm: addr}, nil

	case "beqz":
		if err := expect(2); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		addr, err := a.textAddr(ops[1], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpBEQZ, Rd: rd, Imm: addr}, nil

	case "jr":
		if err := expect(1); err != nil {
			return in, err
		}
		rd, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpJR, Rd: rd}, nil

	case "syscall":
		if err := expect(0); err != nil {
			return in, err
		}
		return mips.Instr{Op: mips.OpSYSCALL}, nil
	}

	return in, fmt.Errorf("unknown instruction %q on line %d", p.mnemonic, lineNo)
}

func (a *Assembler) textAddr(label string, lineNo int) (int32, error) {
	if addr, ok := a.textLabels[label]; ok {
		return int32(addr), nil
	}
	if _, ok := a.dataLabels[label]; ok {
		return 0, fmt.Errorf("label %q is not a text label on line %d", label, lineNo)
	}
	return 0, fmt.Errorf("undefined label %q on line %d", label, lineNo)
}

func (a *Assembler) dataAddr(label string, lineNo int) (int32, error) {
	if addr, ok := a.dataLabels[label]; ok {
		return addr, nil
	}
	if _, ok := a.textLabels[label]; ok {
		return 0, fmt.Errorf("label %q is not a data label on line %d", label, lineNo)
	}
	return 0, fmt.Errorf("undefined label %q on line %d", label, lineNo)
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := raw
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return p, nil
	}

	if colon := strings.IndexByte(line, ':'); colon >= 0 {
		label := strings.TrimSpace(line[:colon])
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label %q on line %d", label, lineNo)
		}
		p.label = label
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	p.mnemonic = strings.ToLower(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func parseRegister(tok string, lineNo int) (int, error) {
	for i, name := range mips.RegNames {
		if strings.EqualFold(tok, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid register %q on line %d", tok, lineNo)
}

func parseImmediate(tok string, lineNo int) (int32, error) {
	v, err := strconv.ParseInt(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q on line %d", tok, lineNo)
	}
	return int32(v), nil
}

// parseMem splits an off(reg) operand. The offset may be omitted, which
// reads as zero.
func parseMem(tok string, lineNo int) (int32, int, error) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return 0, 0, fmt.Errorf("invalid memory operand %q on line %d", tok, lineNo)
	}
	var off int32
	if open > 0 {
		v, err := parseImmediate(tok[:open], lineNo)
		if err != nil {
			return 0, 0, err
		}
		off = v
	}
	reg, err := parseRegister(tok[open+1:len(tok)-1], lineNo)
	if err != nil {
		return 0, 0, err
	}
	return off, reg, nil
}

func knownOp(m string) bool {
	if _, ok := regRegRegOps[m]; ok {
		return true
	}
	switch m {
	case "li", "la", "move", "lw", "sw", "addi", "j", "beqz", "jal", "jr", "syscall":
		return true
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
