package asm

import (
	"reflect"
	"testing"

	"brio/pkg/mips"
)

func TestAssemble(t *testing.T) {
	src := `.text
start:
    li $t0, 5
    li $t1, 7
    add $t0, $t0, $t1
    beqz $t0, start
    jr $ra
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	want := []mips.Instr{
		{Op: mips.OpLI, Rd: mips.RegT0, Imm: 5, Line: 3},
		{Op: mips.OpLI, Rd: mips.RegT1, Imm: 7, Line: 4},
		{Op: mips.OpADD, Rd: mips.RegT0, Rs: mips.RegT0, Rt: mips.RegT1, Line: 5},
		{Op: mips.OpBEQZ, Rd: mips.RegT0, Imm: 0, Line: 6},
		{Op: mips.OpJR, Rd: mips.RegRA, Line: 7},
	}
	if !reflect.DeepEqual(prog.Instrs, want) {
		t.Errorf("Instrs = %v; want %v", prog.Instrs, want)
	}
	if len(prog.Data) != 0 {
		t.Errorf("Data = %v; want empty", prog.Data)
	}
}

func TestAssembleData(t *testing.T) {
	src := `.data
x: .word 42
y: .word -1

.text
    lw $t0, y
    la $t1, x
    sw $t0, x
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	if want := []int32{42, -1}; !reflect.DeepEqual(prog.Data, want) {
		t.Errorf("Data = %v; want %v", prog.Data, want)
	}
	if want := map[string]int32{"x": 0, "y": 4}; !reflect.DeepEqual(prog.DataLabels, want) {
		t.Errorf("DataLabels = %v; want %v", prog.DataLabels, want)
	}

	want := []mips.Instr{
		{Op: mips.OpLW, Rd: mips.RegT0, Rs: mips.RegZero, Imm: 4, Line: 6},
		{Op: mips.OpLA, Rd: mips.RegT1, Imm: 0, Line: 7},
		{Op: mips.OpSW, Rd: mips.RegT0, Rs: mips.RegZero, Imm: 0, Line: 8},
	}
	if !reflect.DeepEqual(prog.Instrs, want) {
		t.Errorf("Instrs = %v; want %v", prog.Instrs, want)
	}
}

func TestAssembleMemOperands(t *testing.T) {
	src := `.text
    lw $t0, 8($fp)
    sw $t0, 0($sp)
    lw $t1, -12($fp)
    sw $t1, ($sp)
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	want := []mips.Instr{
		{Op: mips.OpLW, Rd: mips.RegT0, Rs: mips.RegFP, Imm: 8, Line: 2},
		{Op: mips.OpSW, Rd: mips.RegT0, Rs: mips.RegSP, Imm: 0, Line: 3},
		{Op: mips.OpLW, Rd: mips.RegT1, Rs: mips.RegFP, Imm: -12, Line: 4},
		{Op: mips.OpSW, Rd: mips.RegT1, Rs: mips.RegSP, Imm: 0, Line: 5},
	}
	if !reflect.DeepEqual(prog.Instrs, want) {
		t.Errorf("Instrs = %v; want %v", prog.Instrs, want)
	}
}

// Mnemonics and registers are case-insensitive; labels are not.
func TestAssembleCase(t *testing.T) {
	src := `.text
Main:
    JAL Main
    j Main
    ADDI $SP, $sp, -4
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	want := []mips.Instr{
		{Op: mips.OpJAL, Imm: 0, Line: 3},
		{Op: mips.OpJ, Imm: 0, Line: 4},
		{Op: mips.OpADDI, Rd: mips.RegSP, Rs: mips.RegSP, Imm: -4, Line: 5},
	}
	if !reflect.DeepEqual(prog.Instrs, want) {
		t.Errorf("Instrs = %v; want %v", prog.Instrs, want)
	}

	if _, err := Assemble(".text\nMain:\n    j main\n"); err == nil {
		t.Error("expected undefined label error for wrong-case label")
	}
}

func TestAssembleComments(t *testing.T) {
	src := `# whole line comment
.text
    li $t0, 1   # trailing comment

    syscall
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	want := []mips.Instr{
		{Op: mips.OpLI, Rd: mips.RegT0, Imm: 1, Line: 3},
		{Op: mips.OpSYSCALL, Line: 5},
	}
	if !reflect.DeepEqual(prog.Instrs, want) {
		t.Errorf("Instrs = %v; want %v", prog.Instrs, want)
	}
}

func TestAssembleHexImmediate(t *testing.T) {
	prog, err := Assemble(".text\n    li $t0, 0x10\n")
	if err != nil {
		t.Fatal(err)
	}
	if got := prog.Instrs[0].Imm; got != 16 {
		t.Errorf("Imm = %d; want 16", got)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"duplicate label",
			".text\nx:\nx:\n    jr $ra\n",
			`duplicate label "x" on line 3`,
		},
		{
			"duplicate label across sections",
			".data\nx: .word 1\n.text\nx:\n    jr $ra\n",
			`duplicate label "x" on line 4`,
		},
		{
			"word outside data",
			".text\n.word 5\n",
			".word outside .data section on line 2",
		},
		{
			"instruction in data",
			".data\n    li $t0, 1\n",
			`instruction "li" in .data section on line 2`,
		},
		{
			"unknown instruction",
			".text\n    frobnicate $t0\n",
			`unknown instruction "frobnicate" on line 2`,
		},
		{
			"wrong operand count",
			".text\n    add $t0, $t1\n",
			"add expects 3 operands on line 2",
		},
		{
			"invalid register",
			".text\n    li $t9, 1\n",
			`invalid register "$t9" on line 2`,
		},
		{
			"invalid immediate",
			".text\n    li $t0, banana\n",
			`invalid immediate "banana" on line 2`,
		},
		{
			"undefined label",
			".text\n    j nowhere\n",
			`undefined label "nowhere" on line 2`,
		},
		{
			"text label used as data",
			".text\nstart:\n    lw $t0, start\n",
			`label "start" is not a data label on line 3`,
		},
		{
			"data label used as jump target",
			".data\nx: .word 1\n.text\n    j x\n",
			`label "x" is not a text label on line 4`,
		},
		{
			"invalid label",
			".text\n1bad:\n    jr $ra\n",
			`invalid label "1bad" on line 2`,
		},
		{
			"unclosed memory operand",
			".text\n    lw $t0, 4($fp\n",
			`invalid memory operand "4($fp" on line 2`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble(tc.src)
			if err == nil {
				t.Fatalf("Assemble(%q) succeeded; want error %q", tc.src, tc.want)
			}
			if err.Error() != tc.want {
				t.Errorf("error = %q; want %q", err.Error(), tc.want)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"name_0", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}
}
