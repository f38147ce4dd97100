package solver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/domino14/ddsolver/cards"
)

// StrainFlags selects strains to solve; bit i is cards.Strain(i).
type StrainFlags uint8

const (
	FlagClubs StrainFlags = 1 << iota
	FlagDiamonds
	FlagHearts
	FlagSpades
	FlagNoTrump

	AllStrains = FlagClubs | FlagDiamonds | FlagHearts | FlagSpades | FlagNoTrump
)

func FlagFor(s cards.Strain) StrainFlags {
	return 1 << s
}

func (f StrainFlags) Has(s cards.Strain) bool {
	return f&FlagFor(s) != 0
}

// Covers reports whether every strain in o is also in f.
func (f StrainFlags) Covers(o StrainFlags) bool {
	return f&o == o
}

func (f StrainFlags) Strains() []cards.Strain {
	var out []cards.Strain
	for _, s := range cards.Strains {
		if f.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (f StrainFlags) String() string {
	var sb strings.Builder
	for _, s := range displayOrder {
		if f.Has(s) {
			sb.WriteString(s.String())
		}
	}
	return sb.String()
}

// ParseStrainFlags reads strain letters such as "SHN" (N or NT for
// no-trump), or "all". An empty string selects every strain.
func ParseStrainFlags(s string) (StrainFlags, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "ALL" {
		return AllStrains, nil
	}
	s = strings.ReplaceAll(s, "NT", "N")
	var f StrainFlags
	for _, r := range s {
		if r == ',' || r == ' ' {
			continue
		}
		st, err := cards.ParseStrain(string(r))
		if err != nil {
			return 0, err
		}
		f |= FlagFor(st)
	}
	return f, nil
}

// displayOrder is the customary row order of a double-dummy table.
var displayOrder = []cards.Strain{cards.NoTrump, cards.StrainSpades, cards.StrainHearts,
	cards.StrainDiamonds, cards.StrainClubs}

// Result is a double-dummy table: for each strain and declaring seat, the
// tricks declarer's side takes against best defence, with the seat to
// declarer's left on opening lead.
type Result struct {
	tricks [cards.NumStrains][cards.NumSeats]int8
	solved StrainFlags
}

func (r *Result) set(strain cards.Strain, declarer cards.Seat, tricks int) {
	r.tricks[strain][declarer] = int8(tricks)
}

// Tricks returns declarer's side's tricks. The strain must be solved.
func (r *Result) Tricks(strain cards.Strain, declarer cards.Seat) int {
	return int(r.tricks[strain][declarer])
}

// DefenderTricks returns the defenders' tricks when declarer plays in
// strain.
func (r *Result) DefenderTricks(strain cards.Strain, declarer cards.Seat) int {
	return cards.HandSize - r.Tricks(strain, declarer)
}

// Best returns the tricks a partnership takes in strain when the better of
// its two hands declares.
func (r *Result) Best(strain cards.Strain, side cards.Side) int {
	first := cards.Seat(side)
	return max(r.Tricks(strain, first), r.Tricks(strain, first.Partner()))
}

func (r *Result) Solved(strain cards.Strain) bool {
	return r.solved.Has(strain)
}

func (r *Result) SolvedStrains() StrainFlags {
	return r.solved
}

// merge copies the strains solved in o that r lacks.
func (r *Result) merge(o *Result) {
	for _, s := range cards.Strains {
		if o.Solved(s) && !r.Solved(s) {
			r.tricks[s] = o.tricks[s]
			r.solved |= FlagFor(s)
		}
	}
}

// Merge returns a table with every strain solved in a, plus the strains
// solved only in b.
func Merge(a, b *Result) *Result {
	c := &Result{}
	c.merge(a)
	c.merge(b)
	return c
}

// only returns a copy restricted to the given strains.
func (r *Result) only(f StrainFlags) *Result {
	c := &Result{solved: r.solved & f}
	for _, s := range c.solved.Strains() {
		c.tricks[s] = r.tricks[s]
	}
	return c
}

func (r *Result) String() string {
	var sb strings.Builder
	sb.WriteString("      N   E   S   W\n")
	for _, s := range displayOrder {
		if !r.Solved(s) {
			continue
		}
		fmt.Fprintf(&sb, "%-3s", s)
		for _, seat := range cards.Seats {
			fmt.Fprintf(&sb, "%4d", r.Tricks(s, seat))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Table returns the solved strains as strain -> declarer -> tricks, e.g.
// table["NT"]["N"].
func (r *Result) Table() map[string]map[string]int {
	out := map[string]map[string]int{}
	for _, s := range r.solved.Strains() {
		row := map[string]int{}
		for _, seat := range cards.Seats {
			row[seat.String()] = r.Tricks(s, seat)
		}
		out[s.String()] = row
	}
	return out
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Table())
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var table map[string]map[string]int
	if err := json.Unmarshal(data, &table); err != nil {
		return err
	}
	*r = Result{}
	for sname, row := range table {
		strain, err := cards.ParseStrain(sname)
		if err != nil {
			return err
		}
		for seatName, tricks := range row {
			if len(seatName) != 1 {
				return fmt.Errorf("bad seat %q", seatName)
			}
			seat, err := cards.ParseSeat(rune(seatName[0]))
			if err != nil {
				return err
			}
			if tricks < 0 || tricks > cards.HandSize {
				return fmt.Errorf("bad trick count %d", tricks)
			}
			r.set(strain, seat, tricks)
		}
		r.solved |= FlagFor(strain)
	}
	return nil
}
