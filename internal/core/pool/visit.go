package pool

import (
	"encoding/binary"
	"fmt"

	"github.com/arenashooter/core/internal/core/visit"
)

// maxSlots bounds the slot count accepted from saved data.
const maxSlots = 1 << 20

// VisitHandle saves or restores a handle as a single u64 field.
func VisitHandle(v *visit.Visitor, name string, h *Handle) error {
	raw := uint64(*h)
	if err := v.VisitU64(name, &raw); err != nil {
		return err
	}
	*h = Handle(raw)
	return nil
}

// VisitPool saves or restores a pool including free slots and their
// generations, so handles that were stale before a save stay stale after
// the matching load.
func VisitPool[T any, PT interface {
	*T
	visit.Visitable
}](p *Pool[T], name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}

	count := uint32(len(p.slots))
	if err := v.VisitU32("SlotCount", &count); err != nil {
		return err
	}
	if v.IsReading() {
		if count > maxSlots {
			return fmt.Errorf("pool %s: %d slots: %w", name, count, visit.ErrCorrupt)
		}
		p.slots = make([]slot[T], count)
		p.alive = 0
	}

	freeList := make([]byte, 4*len(p.freeList))
	for i, idx := range p.freeList {
		binary.LittleEndian.PutUint32(freeList[4*i:], idx)
	}
	if err := v.VisitBytes("FreeList", &freeList); err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		if err := v.EnterRegion(fmt.Sprintf("Slot%d", i)); err != nil {
			return err
		}
		s := &p.slots[i]
		if err := v.VisitU32("Generation", &s.generation); err != nil {
			return err
		}
		if err := v.VisitBool("Occupied", &s.occupied); err != nil {
			return err
		}
		if s.occupied {
			if err := PT(&s.value).Visit("Payload", v); err != nil {
				return fmt.Errorf("pool %s slot %d: %w", name, i, err)
			}
		}
		if err := v.LeaveRegion(); err != nil {
			return err
		}
		if v.IsReading() {
			if s.generation == 0 {
				return fmt.Errorf("pool %s slot %d: zero generation: %w", name, i, visit.ErrCorrupt)
			}
			if s.occupied {
				p.alive++
			}
		}
	}

	if v.IsReading() {
		if len(freeList)%4 != 0 {
			return fmt.Errorf("pool %s: free list: %w", name, visit.ErrCorrupt)
		}
		p.freeList = make([]uint32, 0, len(freeList)/4)
		for off := 0; off < len(freeList); off += 4 {
			idx := binary.LittleEndian.Uint32(freeList[off:])
			if idx >= count || p.slots[idx].occupied {
				return fmt.Errorf("pool %s: free slot %d: %w", name, idx, visit.ErrCorrupt)
			}
			p.freeList = append(p.freeList, idx)
		}
	}

	return v.LeaveRegion()
}
