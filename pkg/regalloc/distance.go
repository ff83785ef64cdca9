package regalloc

import "github.com/raymyers/ralph-iloc/pkg/iloc"

// distance counts instructions from the one after "from" to the next read
// of vr. The count is at least 1; ok is false when vr is never read again
// before the end of the stream. This is the look-ahead oracle behind the
// eviction policy: spilling the resident whose next use is furthest away
// is optimal when instructions cannot be reordered and all registers are
// interchangeable. Each call is O(remaining instructions), acceptable for
// a one-shot backend pass.
func distance(code *iloc.List, vr int, from iloc.InsnID) (int, bool) {
	steps := 1
	for id := code.Next(from); id.Valid(); id = code.Next(id) {
		for _, op := range code.At(id).ReadRegisters() {
			if op.Kind == iloc.OpVReg && op.ID == vr {
				return steps, true
			}
		}
		steps++
	}
	return 0, false
}
