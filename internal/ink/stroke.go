package ink

// Stroke is the outline recorded for one continuous gesture. It is owned
// by a single pointer; concurrent strokes never share one.
type Stroke struct {
	ID      string
	Pointer int

	ops     []Op
	window  Window
	started bool
	last    Sample
	samples int
}

// NewStroke starts an empty stroke whose first segment gets a start cap.
func NewStroke(id string, pointer int) *Stroke {
	return &Stroke{ID: id, Pointer: pointer, started: true}
}

// Ops returns a copy of the drawing operations recorded so far, in page
// coordinates and in emission order.
func (st *Stroke) Ops() []Op {
	out := make([]Op, len(st.ops))
	copy(out, st.ops)
	return out
}

// Len returns the number of recorded operations.
func (st *Stroke) Len() int { return len(st.ops) }

// Samples returns how many samples the stroke has consumed.
func (st *Stroke) Samples() int { return st.samples }

// Last returns the most recent sample, if any.
func (st *Stroke) Last() (Sample, bool) {
	return st.last, st.samples > 0
}
