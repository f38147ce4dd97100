package negamax

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolver/cards"
)

const entrySize = 16

const (
	minSizePower = 12
	maxSizePower = 30
	// Slot locks are striped; a stripe covers every slot with the same low
	// bits.
	numStripes = 1 << 10
	stripeMask = numStripes - 1
)

// 16 bytes (entrySize)
//
// A table entry holds what is known about the tricks the side on lead can
// still take from a position between tricks: the true value lies in
// [lower, upper]. When the two meet the value is exact.
type TableEntry struct {
	key   uint64
	lower int8
	upper int8
	// depth is the number of tricks left; deeper entries saved more work.
	depth int8
	// play is the best lead in relative form; see relativeCard.
	play  cards.Card
	valid bool
	_     [3]byte
}

func (t TableEntry) Valid() bool {
	return t.valid
}

func (t TableEntry) Bounds() (int, int) {
	return int(t.lower), int(t.upper)
}

func (t TableEntry) Exact() bool {
	return t.valid && t.lower == t.upper
}

func (t TableEntry) Depth() int {
	return int(t.depth)
}

// Move is the best lead found when the entry was stored, in relative form,
// or cards.NoCard.
func (t TableEntry) Move() cards.Card {
	return t.play
}

type TableLock interface {
	Lock()
	Unlock()
}

type FakeLock struct{}

func (f FakeLock) Lock()   {}
func (f FakeLock) Unlock() {}

var fakeLock = FakeLock{}

// TranspositionTable is a fixed-size hash table of search bounds keyed by
// game.State.PatternKey. Slots come in pairs: the first keeps the entry
// with the most tricks left, the second takes whatever the first refuses.
// It is meant to be shared across strains, deals, and goroutines; see
// SetMultiThreadedMode.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64
	// stripes is nil in single-threaded mode.
	stripes []sync.Mutex

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: an unrelated position occupies the slot.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) SetSingleThreadedMode() {
	t.stripes = nil
}

func (t *TranspositionTable) SetMultiThreadedMode() {
	if t.stripes == nil {
		t.stripes = make([]sync.Mutex, numStripes)
	}
}

func (t *TranspositionTable) lock(idx uint64) TableLock {
	if t.stripes == nil {
		return fakeLock
	}
	return &t.stripes[idx&stripeMask]
}

// bucket returns the index of the first slot of key's pair.
func (t *TranspositionTable) bucket(key uint64) uint64 {
	return key & t.sizeMask &^ 1
}

func (t *TranspositionTable) lookup(key uint64) TableEntry {
	t.lookups.Add(1)
	idx := t.bucket(key)
	l := t.lock(idx)
	l.Lock()
	deep, recent := t.table[idx], t.table[idx+1]
	l.Unlock()
	switch {
	case deep.valid && deep.key == key:
		t.hits.Add(1)
		return deep
	case recent.valid && recent.key == key:
		t.hits.Add(1)
		return recent
	}
	if deep.valid || recent.valid {
		t.t2collisions.Add(1)
	}
	return TableEntry{}
}

// store records that the value of the position, with depth tricks left,
// lies in [lower, upper]. A previous entry for the same position is
// tightened rather than replaced; if the two disagree the new bounds win.
func (t *TranspositionTable) store(key uint64, depth, lower, upper int, play cards.Card) {
	idx := t.bucket(key)
	l := t.lock(idx)
	l.Lock()
	defer l.Unlock()
	deep, recent := &t.table[idx], &t.table[idx+1]
	var e *TableEntry
	switch {
	case deep.valid && deep.key == key:
		e = deep
	case recent.valid && recent.key == key:
		e = recent
	}
	if e != nil {
		lo := max(int(e.lower), lower)
		hi := min(int(e.upper), upper)
		if lo <= hi {
			lower, upper = lo, hi
		}
		if play == cards.NoCard {
			play = e.play
		}
	} else if !deep.valid || depth >= int(deep.depth) {
		if deep.valid {
			*recent = *deep
		}
		e = deep
	} else {
		e = recent
	}
	*e = TableEntry{
		key:   key,
		lower: int8(lower),
		upper: int8(upper),
		depth: int8(depth),
		play:  play,
		valid: true,
	}
	t.created.Add(1)
}

// Reset sizes the table to the largest power of two that fits in the given
// fraction of system memory, and clears it.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	power := minSizePower
	if desiredNElems >= 1 {
		power = int(math.Log2(desiredNElems))
	}
	log.Debug().Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-from-memory")
	t.ResetPower(power)
}

// ResetPower sizes the table to 2^power entries and clears it. Sizes are
// clamped to a sane range.
func (t *TranspositionTable) ResetPower(power int) {
	power = max(minSizePower, min(maxSizePower, power))
	numElems := 1 << power
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.sizePowerOf2 = power
	t.sizeMask = uint64(numElems - 1)

	log.Info().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// Stats is a snapshot of the table counters.
type Stats struct {
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
}

func (t *TranspositionTable) Stats() Stats {
	return Stats{
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
	}
}
