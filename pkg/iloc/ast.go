// Package iloc defines the ILOC intermediate representation used by the
// backend: three-operand instructions over an unbounded pool of virtual
// registers, arranged in arena-backed instruction lists.
// Code reaches this form fully scheduled; register allocation rewrites
// virtual registers in place and splices in spill code.
package iloc

import "fmt"

// WordSize is the machine word size in bytes, used for stack-offset
// arithmetic when spill slots are carved out of the frame.
const WordSize = 8

// Form identifies the operation an instruction performs.
type Form int

const (
	Nop Form = iota
	Add
	Sub
	Mult
	Div
	And
	Or
	Not
	Neg
	AddI
	MultI
	LoadI
	Load
	LoadAI
	Store
	StoreAI
	I2I
	CmpLT
	CmpLE
	CmpEQ
	CmpNE
	CmpGE
	CmpGT
	Push
	Pop
	Cbr
	Jump
	Label
	Call
	Return
)

// OperandKind tags the contents of an operand slot.
type OperandKind int

const (
	OpNone OperandKind = iota // unused slot
	OpVReg                    // virtual register, unbounded supply
	OpPReg                    // physical register, [0, numRegisters)
	OpSP                      // stack pointer
	OpBP                      // base (frame) pointer
	OpRet                     // return-value register
	OpImm                     // integer constant
	OpSym                     // label or call target
)

// Operand is a tagged operand value. Exactly one of ID, Imm, Sym is
// meaningful, selected by Kind.
type Operand struct {
	Kind OperandKind
	ID   int    // register id for OpVReg / OpPReg
	Imm  int64  // value for OpImm
	Sym  string // name for OpSym
}

// VirtualReg returns a virtual-register operand.
func VirtualReg(id int) Operand { return Operand{Kind: OpVReg, ID: id} }

// PhysicalReg returns a physical-register operand.
func PhysicalReg(id int) Operand { return Operand{Kind: OpPReg, ID: id} }

// IntConst returns an integer-immediate operand.
func IntConst(v int64) Operand { return Operand{Kind: OpImm, Imm: v} }

// Symbol returns a label or call-target operand.
func Symbol(name string) Operand { return Operand{Kind: OpSym, Sym: name} }

// StackPointer returns the stack-pointer operand.
func StackPointer() Operand { return Operand{Kind: OpSP} }

// BasePointer returns the base-pointer operand.
func BasePointer() Operand { return Operand{Kind: OpBP} }

// ReturnReg returns the return-value register operand.
func ReturnReg() Operand { return Operand{Kind: OpRet} }

// IsRegister reports whether the operand names any register, virtual,
// physical, or special.
func (o Operand) IsRegister() bool {
	switch o.Kind {
	case OpVReg, OpPReg, OpSP, OpBP, OpRet:
		return true
	}
	return false
}

// String renders the operand in the textual ILOC syntax.
func (o Operand) String() string {
	switch o.Kind {
	case OpVReg:
		return fmt.Sprintf("%%v%d", o.ID)
	case OpPReg:
		return fmt.Sprintf("%%p%d", o.ID)
	case OpSP:
		return "sp"
	case OpBP:
		return "bp"
	case OpRet:
		return "ret"
	case OpImm:
		return fmt.Sprintf("%d", o.Imm)
	case OpSym:
		return o.Sym
	}
	return ""
}

// Insn is a single ILOC instruction: a form plus exactly three operand
// slots. Instructions are shape-immutable; only operand contents change
// after construction.
type Insn struct {
	Form Form
	Ops  [3]Operand
}

// NewInsn builds an instruction from a form and up to three operands.
func NewInsn(form Form, ops ...Operand) Insn {
	in := Insn{Form: form}
	copy(in.Ops[:], ops)
	return in
}

// slotClass describes what a form expects in an operand slot.
type slotClass int

const (
	slotNone slotClass = iota
	slotReg
	slotImm
	slotSym
)

// formInfo is the per-form instruction-set description: mnemonic, slot
// classes, which slots are read, and which single slot (if any) is written.
type formInfo struct {
	name  string
	slots [3]slotClass
	reads []int
	write int // slot index, or -1
}

var formTable = map[Form]formInfo{
	Nop:     {"nop", [3]slotClass{slotNone, slotNone, slotNone}, nil, -1},
	Add:     {"add", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Sub:     {"sub", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Mult:    {"mult", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Div:     {"div", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	And:     {"and", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Or:      {"or", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Not:     {"not", [3]slotClass{slotReg, slotReg, slotNone}, []int{0}, 1},
	Neg:     {"neg", [3]slotClass{slotReg, slotReg, slotNone}, []int{0}, 1},
	AddI:    {"addI", [3]slotClass{slotReg, slotImm, slotReg}, []int{0}, 2},
	MultI:   {"multI", [3]slotClass{slotReg, slotImm, slotReg}, []int{0}, 2},
	LoadI:   {"loadI", [3]slotClass{slotImm, slotReg, slotNone}, nil, 1},
	Load:    {"load", [3]slotClass{slotReg, slotReg, slotNone}, []int{0}, 1},
	LoadAI:  {"loadAI", [3]slotClass{slotReg, slotImm, slotReg}, []int{0}, 2},
	Store:   {"store", [3]slotClass{slotReg, slotReg, slotNone}, []int{0, 1}, -1},
	StoreAI: {"storeAI", [3]slotClass{slotReg, slotReg, slotImm}, []int{0, 1}, -1},
	I2I:     {"i2i", [3]slotClass{slotReg, slotReg, slotNone}, []int{0}, 1},
	CmpLT:   {"cmp_LT", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	CmpLE:   {"cmp_LE", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	CmpEQ:   {"cmp_EQ", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	CmpNE:   {"cmp_NE", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	CmpGE:   {"cmp_GE", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	CmpGT:   {"cmp_GT", [3]slotClass{slotReg, slotReg, slotReg}, []int{0, 1}, 2},
	Push:    {"push", [3]slotClass{slotReg, slotNone, slotNone}, []int{0}, -1},
	Pop:     {"pop", [3]slotClass{slotReg, slotNone, slotNone}, nil, 0},
	Cbr:     {"cbr", [3]slotClass{slotReg, slotSym, slotSym}, []int{0}, -1},
	Jump:    {"jump", [3]slotClass{slotSym, slotNone, slotNone}, nil, -1},
	Label:   {"label", [3]slotClass{slotSym, slotNone, slotNone}, nil, -1},
	Call:    {"call", [3]slotClass{slotSym, slotNone, slotNone}, nil, -1},
	Return:  {"return", [3]slotClass{slotNone, slotNone, slotNone}, nil, -1},
}

// String returns the form's mnemonic.
func (f Form) String() string {
	if info, ok := formTable[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// ReadRegisters returns the register operands this instruction reads,
// in slot order, as derived from the instruction-set description.
// Non-register contents in a read slot are skipped.
func (in *Insn) ReadRegisters() []Operand {
	info, ok := formTable[in.Form]
	if !ok {
		return nil
	}
	var regs []Operand
	for _, slot := range info.reads {
		if in.Ops[slot].IsRegister() {
			regs = append(regs, in.Ops[slot])
		}
	}
	return regs
}

// WriteRegister returns the register operand this instruction writes, if
// any. At most one slot is ever written.
func (in *Insn) WriteRegister() (Operand, bool) {
	info, ok := formTable[in.Form]
	if !ok || info.write < 0 {
		return Operand{}, false
	}
	op := in.Ops[info.write]
	if !op.IsRegister() {
		return Operand{}, false
	}
	return op, true
}

// InsnID addresses an instruction within a List. IDs are stable for the
// lifetime of the list; insertion never invalidates them.
type InsnID int

// NoInsn marks the absence of an instruction (end of stream).
const NoInsn InsnID = -1

// Valid reports whether the id addresses an instruction.
func (id InsnID) Valid() bool { return id >= 0 }

type node struct {
	insn Insn
	next InsnID
}

// List is an ordered instruction sequence backed by an arena. Records are
// addressed by stable InsnIDs and chained through "next" indices, so
// inserting after a given instruction is an O(1) relink that never rescans
// or moves existing records. Instructions are inserted but never removed.
type List struct {
	nodes []*node
	head  InsnID
	tail  InsnID
}

// NewList returns an empty instruction list.
func NewList() *List {
	return &List{head: NoInsn, tail: NoInsn}
}

// Len returns the number of instructions in the list.
func (l *List) Len() int { return len(l.nodes) }

// Head returns the first instruction's id, or NoInsn if the list is empty.
func (l *List) Head() InsnID { return l.head }

// Next returns the id of the instruction following id, or NoInsn at the
// end of the stream.
func (l *List) Next(id InsnID) InsnID {
	return l.nodes[id].next
}

// At returns the instruction addressed by id. The pointer stays valid
// across later insertions; operand rewrites go through it.
func (l *List) At(id InsnID) *Insn {
	return &l.nodes[id].insn
}

// Append adds an instruction at the end of the list and returns its id.
func (l *List) Append(insn Insn) InsnID {
	id := l.alloc(insn)
	if !l.head.Valid() {
		l.head = id
	} else {
		l.nodes[l.tail].next = id
	}
	l.tail = id
	return id
}

// InsertAfter splices a new instruction directly after the instruction
// addressed by after and returns the new id. O(1): only the two next
// indices involved are touched.
func (l *List) InsertAfter(after InsnID, insn Insn) InsnID {
	if !after.Valid() {
		panic("iloc: InsertAfter on invalid instruction id")
	}
	id := l.alloc(insn)
	l.nodes[id].next = l.nodes[after].next
	l.nodes[after].next = id
	if l.tail == after {
		l.tail = id
	}
	return id
}

func (l *List) alloc(insn Insn) InsnID {
	l.nodes = append(l.nodes, &node{insn: insn, next: NoInsn})
	return InsnID(len(l.nodes) - 1)
}

// Function is one function body: a name and its instruction stream.
// The stream conventionally opens with the prologue triple
//
//	push bp
//	i2i sp => bp
//	addI sp, -N => sp
//
// where the addI reserves the frame; the register allocator grows that
// reservation as it creates spill slots. This is a structural contract
// with the code generator that emits the stream.
type Function struct {
	Name string
	Code *List
}

// NewFunction creates a function with an empty instruction stream.
func NewFunction(name string) *Function {
	return &Function{Name: name, Code: NewList()}
}

// Append adds an instruction to the function's code
func (f *Function) Append(insn Insn) InsnID {
	return f.Code.Append(insn)
}

// Program is a sequence of functions. Each function owns its own stream;
// no virtual register is live across function boundaries.
type Program struct {
	Functions []*Function
}
