package grid

import (
	"math/rand"
)

const (
	codeLength  = 4
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Identity is the claimant attached to a used slot.
type Identity struct {
	Name        string `json:"name,omitempty"`
	RollOrEmail string `json:"rollOrEmail,omitempty"`
	PhotoRef    string `json:"photoRef,omitempty"`
}

// Slot is one cell of the code grid. A slot holds a single-use code and,
// once claimed, the identity that redeemed it.
type Slot struct {
	Code     string
	Used     bool
	Identity *Identity
}

// Grid is a fixed-size matrix of single-use code slots. It carries no lock
// of its own: the owning session serializes every mutation.
type Grid struct {
	Rows  int
	Cols  int
	Slots [][]Slot
}

// Generate fills a rows×cols grid with fresh unused codes. Codes are unique
// within the grid, so a submitted code matches at most one slot.
func Generate(rows, cols int) *Grid {
	g := &Grid{Rows: rows, Cols: cols}
	taken := make(map[string]struct{}, rows*cols)
	g.Slots = make([][]Slot, rows)
	for r := 0; r < rows; r++ {
		g.Slots[r] = make([]Slot, cols)
		for c := 0; c < cols; c++ {
			g.Slots[r][c] = Slot{Code: newCode(taken)}
		}
	}
	return g
}

// RotateUnused replaces the code of every unclaimed slot with a fresh one.
// Used slots keep their code and identity so the claim stays auditable.
func (g *Grid) RotateUnused() {
	taken := make(map[string]struct{}, g.Rows*g.Cols)
	for r := range g.Slots {
		for c := range g.Slots[r] {
			if g.Slots[r][c].Used {
				taken[g.Slots[r][c].Code] = struct{}{}
			}
		}
	}
	for r := range g.Slots {
		for c := range g.Slots[r] {
			if !g.Slots[r][c].Used {
				g.Slots[r][c].Code = newCode(taken)
			}
		}
	}
}

// Claim marks the unused slot holding code as used and returns its
// coordinates. Returns ok=false when no unused slot carries the code,
// which covers both unknown and already-redeemed codes.
func (g *Grid) Claim(code string) (row, col int, ok bool) {
	for r := range g.Slots {
		for c := range g.Slots[r] {
			if !g.Slots[r][c].Used && g.Slots[r][c].Code == code {
				g.Slots[r][c].Used = true
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// Release reverts a claimed slot to unused and clears its identity. Used
// for rollback when a downstream check rejects the attempt.
func (g *Grid) Release(row, col int) {
	g.Slots[row][col].Used = false
	g.Slots[row][col].Identity = nil
}

// Attach records the claimant on a claimed slot.
func (g *Grid) Attach(row, col int, id Identity) {
	g.Slots[row][col].Identity = &id
}

// FindClaimed returns the coordinates of the used slot claimed by the given
// identifier, if any.
func (g *Grid) FindClaimed(identifier string) (row, col int, ok bool) {
	for r := range g.Slots {
		for c := range g.Slots[r] {
			s := g.Slots[r][c]
			if s.Used && s.Identity != nil && s.Identity.RollOrEmail == identifier {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// UsedCount returns how many slots are currently claimed.
func (g *Grid) UsedCount() int {
	n := 0
	for r := range g.Slots {
		for c := range g.Slots[r] {
			if g.Slots[r][c].Used {
				n++
			}
		}
	}
	return n
}

func newCode(taken map[string]struct{}) string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeCharset[rand.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, dup := taken[code]; dup {
			continue
		}
		taken[code] = struct{}{}
		return code
	}
}
