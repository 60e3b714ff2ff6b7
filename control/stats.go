package control

import (
	"os"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/obinnaokechukwu/refptr/internal/handles"
)

// TrackEnv names the environment variable that enables live-block tracking
// at startup.
const TrackEnv = "REFPTR_TRACK_BLOCKS"

// Usage reports lifecycle totals since process start.
type Usage struct {
	BlocksCreated     int64
	BlocksFreed       int64
	PointeesDestroyed int64
}

// Live returns the number of blocks created but not yet freed.
func (u Usage) Live() int64 {
	return u.BlocksCreated - u.BlocksFreed
}

var (
	blocksCreated     atomic.Int64
	blocksFreed       atomic.Int64
	pointeesDestroyed atomic.Int64

	tracking atomic.Bool
)

func init() {
	if v, ok := os.LookupEnv(TrackEnv); ok {
		on, err := strconv.ParseBool(v)
		tracking.Store(err == nil && on)
	}
}

// Stats returns the current lifecycle totals.
func Stats() Usage {
	return Usage{
		BlocksCreated:     blocksCreated.Load(),
		BlocksFreed:       blocksFreed.Load(),
		PointeesDestroyed: pointeesDestroyed.Load(),
	}
}

// SetTracking turns live-block registration on or off. Blocks created while
// tracking is off are never registered, so toggling does not unbalance
// TrackedBlocks.
func SetTracking(on bool) {
	tracking.Store(on)
}

// Tracking reports whether new blocks are registered.
func Tracking() bool {
	return tracking.Load()
}

// TrackedBlocks returns the number of registered blocks that are not yet
// freed. Useful for leak checks in tests.
func TrackedBlocks() int {
	return handles.Count()
}

// LookupTracked returns the registered block with the given id, or nil.
func LookupTracked(id uintptr) *Block {
	b, _ := handles.Lookup(id).(*Block)
	return b
}

// TrackedIDs returns the ids of registered blocks that are not yet freed, in
// creation order.
func TrackedIDs() []uintptr {
	ids := handles.IDs()
	slices.Sort(ids)
	return ids
}
