package grid

// SlotView is the broadcast/status projection of a slot.
type SlotView struct {
	Code     string    `json:"code"`
	Used     bool      `json:"used"`
	Identity *Identity `json:"identity,omitempty"`
}

// View is a deep copy of the grid safe to serialize after the session
// mutex is released.
type View struct {
	Rows  int          `json:"rows"`
	Cols  int          `json:"cols"`
	Slots [][]SlotView `json:"slots"`
}

// Snapshot copies the grid into a View. Identities are copied by value so
// later rollbacks cannot reach into an already-broadcast snapshot.
func (g *Grid) Snapshot() View {
	v := View{Rows: g.Rows, Cols: g.Cols, Slots: make([][]SlotView, g.Rows)}
	for r := range g.Slots {
		v.Slots[r] = make([]SlotView, g.Cols)
		for c := range g.Slots[r] {
			s := g.Slots[r][c]
			sv := SlotView{Code: s.Code, Used: s.Used}
			if s.Identity != nil {
				id := *s.Identity
				sv.Identity = &id
			}
			v.Slots[r][c] = sv
		}
	}
	return v
}
