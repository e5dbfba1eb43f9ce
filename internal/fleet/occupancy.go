package fleet

import (
	"sync"
	"sync/atomic"

	"yqhp/robot-fleet/pkg/types"
)

// occupancy independently counts robots inside zones so a run can check the
// exclusivity the zone access is supposed to provide. Robots enter after a
// successful acquire and leave before releasing.
type occupancy struct {
	zones int

	current   atomic.Int64
	max       atomic.Int64
	perZone   []atomic.Int64 // index by zone id, 0 unused
	perZoneHi []atomic.Int64
	violation atomic.Bool
}

func newOccupancy(zones int) *occupancy {
	return &occupancy{
		zones:     zones,
		perZone:   make([]atomic.Int64, zones+1),
		perZoneHi: make([]atomic.Int64, zones+1),
	}
}

func (o *occupancy) enter(zone types.ZoneID) {
	cur := o.current.Add(1)
	raise(&o.max, cur)

	n := o.perZone[zone].Add(1)
	raise(&o.perZoneHi[zone], n)

	if n > 1 || cur > int64(o.zones) {
		o.violation.Store(true)
	}
}

func (o *occupancy) leave(zone types.ZoneID) {
	if o.perZone[zone].Add(-1) < 0 {
		o.violation.Store(true)
	}
	o.current.Add(-1)
}

// raise lifts hi to v if v is larger.
func raise(hi *atomic.Int64, v int64) {
	for {
		prev := hi.Load()
		if v <= prev || hi.CompareAndSwap(prev, v) {
			return
		}
	}
}

func (o *occupancy) maxOccupancy() int {
	return int(o.max.Load())
}

func (o *occupancy) zoneMax() []ZoneOccupancy {
	out := make([]ZoneOccupancy, 0, o.zones)
	for z := 1; z <= o.zones; z++ {
		out = append(out, ZoneOccupancy{Zone: types.ZoneID(z), Max: int(o.perZoneHi[z].Load())})
	}
	return out
}

func (o *occupancy) violated() bool {
	return o.violation.Load()
}

// ledger records consumed task ids to detect duplicate delivery.
type ledger struct {
	mu         sync.Mutex
	seen       map[types.TaskID]struct{}
	duplicates int
}

func newLedger(capacity int) *ledger {
	return &ledger{seen: make(map[types.TaskID]struct{}, capacity)}
}

// record returns false if id was already consumed.
func (l *ledger) record(id types.TaskID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[id]; dup {
		l.duplicates++
		return false
	}
	l.seen[id] = struct{}{}
	return true
}

func (l *ledger) counts() (consumed, duplicates int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen), l.duplicates
}
