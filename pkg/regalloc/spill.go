package regalloc

import "github.com/raymyers/ralph-iloc/pkg/iloc"

// newSpillSlot carves a fresh spill slot out of the frame by growing the
// frame-allocator instruction's reservation by one word, and returns the
// slot's BP-based offset. Fails with ErrNoFrameAllocator when no
// frame-allocator instruction has been seen yet (malformed input stream).
func (a *allocator) newSpillSlot() (int64, error) {
	if !a.frame.Valid() {
		return 0, ErrNoFrameAllocator
	}
	frame := a.code.At(a.frame)
	off := frame.Ops[1].Imm - iloc.WordSize
	frame.Ops[1].Imm = off
	return off, nil
}

// insertStore splices a store of physical register pr to the spill slot at
// off directly after "after", returning the new instruction's id. O(1).
func (a *allocator) insertStore(pr int, off int64, after iloc.InsnID) iloc.InsnID {
	store := iloc.NewInsn(iloc.StoreAI,
		iloc.PhysicalReg(pr), iloc.BasePointer(), iloc.IntConst(off))
	return a.code.InsertAfter(after, store)
}

// insertLoad splices a load of the spill slot at off into physical
// register pr directly after "after", returning the new instruction's id.
func (a *allocator) insertLoad(off int64, pr int, after iloc.InsnID) iloc.InsnID {
	load := iloc.NewInsn(iloc.LoadAI,
		iloc.BasePointer(), iloc.IntConst(off), iloc.PhysicalReg(pr))
	return a.code.InsertAfter(after, load)
}

// spill stores whatever virtual register currently resides in pr to its
// spill slot and frees pr. A register spilled for the first time gets a
// brand-new slot; a re-spill reuses the slot already recorded for it, so
// the offset stays stable for the rest of the function. The store lands at
// the insertion cursor, ahead of the instruction being processed.
// Precondition: pr holds a resident virtual register.
func (a *allocator) spill(pr int) error {
	vr, ok := a.regs.Resident(pr)
	if !ok {
		panic("regalloc: spill of a free physical register")
	}
	off, ok := a.spills.Offset(vr)
	if !ok {
		var err error
		off, err = a.newSpillSlot()
		if err != nil {
			return err
		}
		a.spills.Record(vr, off)
	}
	a.cursor = a.insertStore(pr, off, a.cursor)
	a.regs.Free(pr)
	return nil
}
