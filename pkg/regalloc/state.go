package regalloc

// RegisterFile tracks which virtual register is resident in each physical
// register. It is created empty for each processed function and mutated
// only by the allocation pass, sequentially. At most one entry maps to any
// given virtual register at a time.
type RegisterFile struct {
	slots []regSlot
}

type regSlot struct {
	vr   int
	live bool
}

// NewRegisterFile creates a register file with n physical registers, all
// free.
func NewRegisterFile(n int) *RegisterFile {
	return &RegisterFile{slots: make([]regSlot, n)}
}

// Len returns the number of physical registers.
func (f *RegisterFile) Len() int { return len(f.slots) }

// Resident returns the virtual register resident in pr, if any.
func (f *RegisterFile) Resident(pr int) (int, bool) {
	s := f.slots[pr]
	return s.vr, s.live
}

// Lookup returns the physical register holding vr, if any.
func (f *RegisterFile) Lookup(vr int) (int, bool) {
	for pr, s := range f.slots {
		if s.live && s.vr == vr {
			return pr, true
		}
	}
	return 0, false
}

// FirstFree returns the lowest-indexed free physical register, if any.
func (f *RegisterFile) FirstFree() (int, bool) {
	for pr, s := range f.slots {
		if !s.live {
			return pr, true
		}
	}
	return 0, false
}

// Assign makes vr resident in pr.
func (f *RegisterFile) Assign(pr, vr int) {
	f.slots[pr] = regSlot{vr: vr, live: true}
}

// Free marks pr as holding no virtual register.
func (f *RegisterFile) Free(pr int) {
	f.slots[pr] = regSlot{}
}

// Live returns the number of physical registers currently occupied.
func (f *RegisterFile) Live() int {
	n := 0
	for _, s := range f.slots {
		if s.live {
			n++
		}
	}
	return n
}

// SpillTable records the stack offset assigned to each spilled virtual
// register. Once assigned, an offset is stable for the rest of the
// function; every reload of that register reuses the same slot.
type SpillTable struct {
	offsets map[int]int64
}

// NewSpillTable creates an empty spill table.
func NewSpillTable() *SpillTable {
	return &SpillTable{offsets: make(map[int]int64)}
}

// Offset returns vr's spill-slot offset, if one has been assigned.
func (t *SpillTable) Offset(vr int) (int64, bool) {
	off, ok := t.offsets[vr]
	return off, ok
}

// Record assigns a spill-slot offset to vr.
func (t *SpillTable) Record(vr int, off int64) {
	t.offsets[vr] = off
}

// Slots returns the number of spill slots assigned so far.
func (t *SpillTable) Slots() int { return len(t.offsets) }
