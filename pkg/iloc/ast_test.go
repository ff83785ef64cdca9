package iloc

import (
	"testing"
)

func TestListAppendPreservesOrder(t *testing.T) {
	l := NewList()
	l.Append(NewInsn(Nop))
	l.Append(NewInsn(Return))
	l.Append(NewInsn(Jump, Symbol("l1")))

	var forms []Form
	for id := l.Head(); id.Valid(); id = l.Next(id) {
		forms = append(forms, l.At(id).Form)
	}
	want := []Form{Nop, Return, Jump}
	if len(forms) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(forms))
	}
	for i := range want {
		if forms[i] != want[i] {
			t.Errorf("instruction %d: expected %s, got %s", i, want[i], forms[i])
		}
	}
}

func TestListInsertAfter(t *testing.T) {
	l := NewList()
	first := l.Append(NewInsn(Push, BasePointer()))
	l.Append(NewInsn(Return))

	l.InsertAfter(first, NewInsn(Nop))

	var forms []Form
	for id := l.Head(); id.Valid(); id = l.Next(id) {
		forms = append(forms, l.At(id).Form)
	}
	want := []Form{Push, Nop, Return}
	for i := range want {
		if forms[i] != want[i] {
			t.Errorf("instruction %d: expected %s, got %s", i, want[i], forms[i])
		}
	}
}

func TestListInsertAfterTail(t *testing.T) {
	l := NewList()
	first := l.Append(NewInsn(Nop))
	tail := l.InsertAfter(first, NewInsn(Return))

	// appending must link after the spliced-in tail
	l.Append(NewInsn(Nop))
	if l.Next(tail) == NoInsn {
		t.Error("expected append to extend past the inserted tail")
	}
}

func TestListIDsStableAcrossInsertion(t *testing.T) {
	l := NewList()
	first := l.Append(NewInsn(LoadI, IntConst(7), VirtualReg(1)))
	for i := 0; i < 100; i++ {
		l.InsertAfter(first, NewInsn(Nop))
	}
	if got := l.At(first).Form; got != LoadI {
		t.Errorf("expected id to keep addressing loadI, got %s", got)
	}
}

func TestInsnIDValid(t *testing.T) {
	if NoInsn.Valid() {
		t.Error("NoInsn should not be valid")
	}
	if !InsnID(0).Valid() {
		t.Error("id 0 should be valid")
	}
}

func TestReadRegisters(t *testing.T) {
	tests := []struct {
		name string
		insn Insn
		want []Operand
	}{
		{"add reads both sources", NewInsn(Add, VirtualReg(1), VirtualReg(2), VirtualReg(3)),
			[]Operand{VirtualReg(1), VirtualReg(2)}},
		{"storeAI reads value and base", NewInsn(StoreAI, VirtualReg(1), BasePointer(), IntConst(-8)),
			[]Operand{VirtualReg(1), BasePointer()}},
		{"loadI reads nothing", NewInsn(LoadI, IntConst(4), VirtualReg(1)), nil},
		{"push reads its operand", NewInsn(Push, VirtualReg(5)), []Operand{VirtualReg(5)}},
		{"cbr reads only the condition", NewInsn(Cbr, VirtualReg(2), Symbol("l1"), Symbol("l2")),
			[]Operand{VirtualReg(2)}},
		{"pop reads nothing", NewInsn(Pop, VirtualReg(1)), nil},
		{"call reads nothing", NewInsn(Call, Symbol("f")), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.insn.ReadRegisters()
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d read registers, got %d", len(tc.want), len(got))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("read %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestWriteRegister(t *testing.T) {
	add := NewInsn(Add, VirtualReg(1), VirtualReg(2), VirtualReg(3))
	if op, ok := add.WriteRegister(); !ok || op != VirtualReg(3) {
		t.Errorf("add: expected write of %%v3, got %s (ok=%v)", op, ok)
	}

	store := NewInsn(Store, VirtualReg(1), VirtualReg(2))
	if _, ok := store.WriteRegister(); ok {
		t.Error("store writes memory, not a register")
	}

	pop := NewInsn(Pop, VirtualReg(4))
	if op, ok := pop.WriteRegister(); !ok || op != VirtualReg(4) {
		t.Errorf("pop: expected write of %%v4, got %s (ok=%v)", op, ok)
	}

	// the prologue stack adjust writes sp, a special register
	adjust := NewInsn(AddI, StackPointer(), IntConst(-16), StackPointer())
	if op, ok := adjust.WriteRegister(); !ok || op.Kind != OpSP {
		t.Errorf("addI sp: expected sp write, got %s (ok=%v)", op, ok)
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		op   Operand
		want string
	}{
		{VirtualReg(12), "%v12"},
		{PhysicalReg(0), "%p0"},
		{StackPointer(), "sp"},
		{BasePointer(), "bp"},
		{ReturnReg(), "ret"},
		{IntConst(-8), "-8"},
		{Symbol("main"), "main"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestOperandIsRegister(t *testing.T) {
	if !VirtualReg(1).IsRegister() || !PhysicalReg(1).IsRegister() || !BasePointer().IsRegister() {
		t.Error("register operands should report IsRegister")
	}
	if IntConst(3).IsRegister() || Symbol("x").IsRegister() || (Operand{}).IsRegister() {
		t.Error("non-register operands should not report IsRegister")
	}
}
