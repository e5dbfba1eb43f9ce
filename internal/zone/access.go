// Package zone grants robots exclusive occupancy of zones.
package zone

import (
	"errors"
	"fmt"
	"sync"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/duke-git/lancet/v2/slice"

	"yqhp/robot-fleet/internal/syncx"
	"yqhp/robot-fleet/pkg/types"
)

var (
	// ErrUnknownZone is returned by Acquire for a zone outside the fixed set.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrInvalidRelease is the panic value for releasing a hold that is not
	// current, such as releasing the same handle twice.
	ErrInvalidRelease = errors.New("zone release without a current hold")
)

// Handle represents one hold on a zone. It is returned by Acquire and must be
// passed to Release exactly once.
type Handle struct {
	Zone  types.ZoneID
	Robot types.RobotID
	token uint64
}

type hold struct {
	robot types.RobotID
	token uint64
}

// Access tracks which robot occupies each zone. Waiters are woken in no
// particular order when any zone is released.
type Access struct {
	mu    syncx.Mutex
	freed *sync.Cond

	zones   map[types.ZoneID]struct{}
	holders map[types.ZoneID]hold
	tokens  uint64
}

// New creates an Access over a fixed set of zones.
func New(zones []types.ZoneID) *Access {
	a := &Access{
		zones:   make(map[types.ZoneID]struct{}, len(zones)),
		holders: make(map[types.ZoneID]hold, len(zones)),
	}
	for _, z := range zones {
		a.zones[z] = struct{}{}
	}
	a.freed = a.mu.NewCond()
	return a
}

// Acquire waits until zone has no holder and records robot as its holder.
func (a *Access) Acquire(zone types.ZoneID, robot types.RobotID) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Release()

	if _, ok := a.zones[zone]; !ok {
		return Handle{}, fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	for {
		if _, held := a.holders[zone]; !held {
			break
		}
		a.freed.Wait()
	}

	a.tokens++
	a.holders[zone] = hold{robot: robot, token: a.tokens}
	return Handle{Zone: zone, Robot: robot, token: a.tokens}, nil
}

// Release ends the hold represented by h and wakes all waiters. Releasing a
// handle that is not the zone's current hold panics with ErrInvalidRelease.
func (a *Access) Release(h Handle) {
	if err := a.release(h); err != nil {
		panic(err)
	}
}

// release validates and clears the hold. The panic in Release happens after
// the lock is dropped, so a bad release does not poison the zone state.
func (a *Access) release(h Handle) error {
	a.mu.Lock()
	defer a.mu.Release()

	cur, ok := a.holders[h.Zone]
	if !ok || h.token == 0 || cur.token != h.token || cur.robot != h.Robot {
		return fmt.Errorf("%w: zone=%d robot=%d", ErrInvalidRelease, h.Zone, h.Robot)
	}
	delete(a.holders, h.Zone)
	a.freed.Broadcast()
	return nil
}

// Holder returns the robot currently occupying zone.
func (a *Access) Holder(zone types.ZoneID) (types.RobotID, bool) {
	a.mu.Lock()
	defer a.mu.Release()

	h, ok := a.holders[zone]
	return h.robot, ok
}

// Occupied returns the occupied zones in ascending order.
func (a *Access) Occupied() []types.ZoneID {
	a.mu.Lock()
	defer a.mu.Release()

	zones := maputil.Keys(a.holders)
	slice.Sort(zones)
	return zones
}

// Zones returns the number of configured zones.
func (a *Access) Zones() int {
	return len(a.zones)
}
