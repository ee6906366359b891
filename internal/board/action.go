package board

// Action is a reversible change to the set of committed strokes. The set
// of implementations is closed: StrokeCreated and StrokeErased.
type Action interface {
	// Invert returns the action that undoes this one.
	Invert() Action
	Target() *Entry
	isAction()
}

// StrokeCreated adds a committed stroke to the document.
type StrokeCreated struct{ Entry *Entry }

// StrokeErased removes a committed stroke from the document.
type StrokeErased struct{ Entry *Entry }

func (a StrokeCreated) Invert() Action { return StrokeErased(a) }
func (a StrokeErased) Invert() Action  { return StrokeCreated(a) }

func (a StrokeCreated) Target() *Entry { return a.Entry }
func (a StrokeErased) Target() *Entry  { return a.Entry }

func (StrokeCreated) isAction() {}
func (StrokeErased) isAction()  {}
