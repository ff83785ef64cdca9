// Package regalloc rewrites ILOC functions so that every operand refers to
// one of a fixed set of physical registers. Allocation is local: a single
// forward pass over each function's instruction stream makes greedy,
// irrevocable assignments, evicting the resident whose next use is
// furthest away when no register is free and weaving spill stores and
// reloads into the stream. Instructions are never removed or reordered.
package regalloc

import (
	"errors"
	"fmt"

	"github.com/raymyers/ralph-iloc/pkg/iloc"
)

// MaxVirtualRegs is the working limit on distinct virtual-register ids
// within one function. Ids at or above it are a precondition violation of
// the stream producer.
const MaxVirtualRegs = 2048

var (
	// ErrNoRegisters reports a configuration with no physical registers.
	ErrNoRegisters = errors.New("regalloc: at least one physical register is required")
	// ErrNoFrameAllocator reports a spill needed before the prologue's
	// frame-allocator instruction was found in the stream.
	ErrNoFrameAllocator = errors.New("regalloc: no frame allocator instruction before first spill")
	// ErrVRegLimit reports a virtual-register id beyond the working limit.
	ErrVRegLimit = errors.New("regalloc: virtual register id exceeds working limit")
)

// TransformProgram allocates registers for every function in the program,
// mutating it in place. Each function gets a fresh register file and spill
// table; nothing carries across function boundaries.
func TransformProgram(prog *iloc.Program, numRegisters int) error {
	if numRegisters < 1 {
		return fmt.Errorf("%w (requested %d)", ErrNoRegisters, numRegisters)
	}
	for _, fn := range prog.Functions {
		if err := TransformFunction(fn, numRegisters); err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
	}
	return nil
}

// TransformFunction rewrites one function's stream over numRegisters
// physical registers, inserting spill code as needed. The configuration is
// checked before any mutation; on success no virtual-register operand
// remains.
func TransformFunction(fn *iloc.Function, numRegisters int) error {
	if numRegisters < 1 {
		return fmt.Errorf("%w (requested %d)", ErrNoRegisters, numRegisters)
	}
	a := &allocator{
		code:   fn.Code,
		regs:   NewRegisterFile(numRegisters),
		spills: NewSpillTable(),
		frame:  iloc.NoInsn,
		prev:   iloc.NoInsn,
		cursor: iloc.NoInsn,
	}
	return a.run()
}

// allocator is the state threaded through one forward pass.
type allocator struct {
	code   *iloc.List
	regs   *RegisterFile
	spills *SpillTable
	frame  iloc.InsnID // frame-allocator instruction, once latched
	prev   iloc.InsnID // previous instruction processed
	cursor iloc.InsnID // insertion point for spill code ahead of the current instruction
}

func (a *allocator) run() error {
	for id := a.code.Head(); id.Valid(); id = a.code.Next(id) {
		a.latchFrameAllocator(id)
		// spill code for this instruction is spliced in after the previous
		// one; the cursor advances past each inserted store or reload so
		// they execute in insertion order
		a.cursor = a.prev
		insn := a.code.At(id)

		// make every read virtual register resident, then rewrite it
		for _, op := range insn.ReadRegisters() {
			if op.Kind != iloc.OpVReg {
				continue
			}
			vr := op.ID
			if vr >= MaxVirtualRegs {
				return fmt.Errorf("%w: %%v%d", ErrVRegLimit, vr)
			}
			pr, err := a.ensure(vr, id)
			if err != nil {
				return err
			}
			replaceRegister(vr, pr, insn)
			if _, ok := distance(a.code, vr, id); !ok {
				// dead after this use
				a.regs.Free(pr)
			}
		}

		// a written register's prior value is irrelevant; no reload
		if op, ok := insn.WriteRegister(); ok && op.Kind == iloc.OpVReg {
			vr := op.ID
			if vr >= MaxVirtualRegs {
				return fmt.Errorf("%w: %%v%d", ErrVRegLimit, vr)
			}
			pr, ok := a.regs.Lookup(vr)
			if !ok {
				var err error
				pr, err = a.allocate(vr, id)
				if err != nil {
					return err
				}
			}
			replaceRegister(vr, pr, insn)
		}

		// calls clobber every caller-saved register, which here is all of
		// them: force every resident into its spill slot and clear the file
		if insn.Form == iloc.Call {
			if err := a.spillAll(); err != nil {
				return err
			}
		}

		a.prev = id
	}
	return nil
}

// latchFrameAllocator records the frame-allocator instruction the first
// time the structural prologue pattern (push, register copy, immediate
// stack adjust) is seen.
func (a *allocator) latchFrameAllocator(id iloc.InsnID) {
	if a.frame.Valid() || a.code.At(id).Form != iloc.Push {
		return
	}
	copyID := a.code.Next(id)
	if !copyID.Valid() || a.code.At(copyID).Form != iloc.I2I {
		return
	}
	adjustID := a.code.Next(copyID)
	if !adjustID.Valid() || a.code.At(adjustID).Form != iloc.AddI {
		return
	}
	a.frame = adjustID
}

// ensure returns the physical register holding vr, allocating one and
// reloading vr's spill slot (if it has one) when vr is not resident. The
// reload lands before the current instruction and after any store the
// allocation spilled, so the value is in place when the rewritten operand
// is read.
func (a *allocator) ensure(vr int, current iloc.InsnID) (int, error) {
	if pr, ok := a.regs.Lookup(vr); ok {
		return pr, nil
	}
	pr, err := a.allocate(vr, current)
	if err != nil {
		return 0, err
	}
	if off, ok := a.spills.Offset(vr); ok {
		a.cursor = a.insertLoad(off, pr, a.cursor)
	}
	return pr, nil
}

// allocate claims a physical register for vr: the first free one if any,
// otherwise the one whose resident's next use is furthest away (ties go to
// the lowest register index; a resident with no further use beats any
// finite distance). The evicted resident is spilled before the current
// instruction.
func (a *allocator) allocate(vr int, current iloc.InsnID) (int, error) {
	if pr, ok := a.regs.FirstFree(); ok {
		a.regs.Assign(pr, vr)
		return pr, nil
	}

	evict := -1
	evictDist := -1
	unbounded := false
	for pr := 0; pr < a.regs.Len(); pr++ {
		resident, _ := a.regs.Resident(pr)
		steps, ok := distance(a.code, resident, current)
		if !ok {
			if !unbounded {
				evict = pr
				unbounded = true
			}
			continue
		}
		if !unbounded && steps > evictDist {
			evict = pr
			evictDist = steps
		}
	}

	if err := a.spill(evict); err != nil {
		return 0, err
	}
	a.regs.Assign(evict, vr)
	return evict, nil
}

// spillAll stores every resident register to its spill slot ahead of a
// call, leaving the register file empty. A value live across the call is
// reloaded from its slot on first use afterward.
func (a *allocator) spillAll() error {
	if !a.cursor.Valid() {
		return nil
	}
	for pr := 0; pr < a.regs.Len(); pr++ {
		if _, ok := a.regs.Resident(pr); ok {
			if err := a.spill(pr); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceRegister rewrites every operand slot of insn holding virtual
// register vr into physical register pr. Idempotent; other instructions
// are untouched.
func replaceRegister(vr, pr int, insn *iloc.Insn) {
	for i := range insn.Ops {
		if insn.Ops[i].Kind == iloc.OpVReg && insn.Ops[i].ID == vr {
			insn.Ops[i] = iloc.PhysicalReg(pr)
		}
	}
}
