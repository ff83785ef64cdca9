package iloc

import (
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	src := `main:
  push bp
  i2i sp => bp
  addI sp, -16 => sp
  loadI 4 => %v1
  storeAI %v1 => bp, -8
  loadAI bp, -8 => %v2
  cmp_LT %v1, %v2 => %v3
  cbr %v3 => l1, l2
  l1:
  call helper
  jump l2
  l2:
  return

helper:
  push bp
  i2i sp => bp
  addI sp, 0 => sp
  return
`
	prog, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(prog.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(prog.Functions))
	}
	if prog.Functions[0].Name != "main" || prog.Functions[1].Name != "helper" {
		t.Errorf("unexpected function names: %s, %s",
			prog.Functions[0].Name, prog.Functions[1].Name)
	}

	if got := FormatProgram(prog); got != src {
		t.Errorf("round trip mismatch:\nexpected:\n%s\ngot:\n%s", src, got)
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	src := `; whole-line comment
main:

  loadI 1 => %v1  ; trailing comment
  return
`
	prog, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := prog.Functions[0].Code.Len(); got != 2 {
		t.Errorf("expected 2 instructions, got %d", got)
	}
}

func TestParseOperandKinds(t *testing.T) {
	prog, err := ParseString("f:\n  storeAI %v3 => bp, -24\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	insn := prog.Functions[0].Code.At(prog.Functions[0].Code.Head())
	if insn.Ops[0] != VirtualReg(3) {
		t.Errorf("expected %%v3, got %s", insn.Ops[0])
	}
	if insn.Ops[1].Kind != OpBP {
		t.Errorf("expected bp, got %s", insn.Ops[1])
	}
	if insn.Ops[2] != IntConst(-24) {
		t.Errorf("expected -24, got %s", insn.Ops[2])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown mnemonic", "f:\n  frobnicate %v1\n", "unknown instruction"},
		{"punctuation only", "f:\n  ,\n", "no instruction"},
		{"arrow only", "f:\n  =>\n", "no instruction"},
		{"wrong arity", "f:\n  add %v1 => %v2\n", "takes 3 operand(s)"},
		{"instruction outside function", "  loadI 1 => %v1\n", "before any function"},
		{"bad operand", "f:\n  loadI 1 => %vx\n", "bad virtual register"},
		{"constant where register expected", "f:\n  add 1, %v2 => %v3\n", "must be a register"},
		{"register where label expected", "f:\n  jump %v1\n", "must be a label"},
		{"malformed header", "f\n", "expected function header"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(tc.src)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err)
			}
		})
	}
}

func TestParseErrorsCarryLineNumbers(t *testing.T) {
	_, err := ParseString("f:\n  nop\n  bogus %v1\n")
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected line number in error, got %q", err)
	}
}
