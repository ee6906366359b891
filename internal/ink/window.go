package ink

// WindowSize is the number of samples needed to emit one ribbon segment.
const WindowSize = 4

// Window holds the most recent samples of one stroke.
type Window struct {
	buf [WindowSize]Sample
	n   int
}

// Push appends s and reports whether the window is now full.
// Pushing onto a full window drops the oldest sample.
func (w *Window) Push(s Sample) bool {
	if w.n == WindowSize {
		copy(w.buf[:], w.buf[1:])
		w.n--
	}
	w.buf[w.n] = s
	w.n++
	return w.n == WindowSize
}

func (w *Window) Len() int { return w.n }

// At returns the i-th oldest sample.
func (w *Window) At(i int) Sample { return w.buf[i] }

// Collapse keeps only the last two samples, which stitch the next segment
// to the one just emitted.
func (w *Window) Collapse() {
	if w.n <= 2 {
		return
	}
	w.buf[0], w.buf[1] = w.buf[w.n-2], w.buf[w.n-1]
	w.n = 2
}

// Reset empties the window.
func (w *Window) Reset() { w.n = 0 }
