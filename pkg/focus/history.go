package focus

// History is a bounded ring buffer of recent samples.
// Not goroutine safe; owned by the machine.
type History struct {
	buf   []Sample
	head  int
	count int
}

// NewHistory creates a history retaining at most size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{buf: make([]Sample, size)}
}

// Push appends a sample, evicting the oldest when full.
func (h *History) Push(s Sample) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Last returns the most recent sample, if any.
func (h *History) Last() (Sample, bool) {
	if h.count == 0 {
		return Sample{}, false
	}
	idx := (h.head - 1 + len(h.buf)) % len(h.buf)
	return h.buf[idx], true
}

// All returns the retained samples, oldest first.
func (h *History) All() []Sample {
	out := make([]Sample, 0, h.count)
	start := h.head - h.count
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i+len(h.buf))%len(h.buf)])
	}
	return out
}

// Len returns the number of retained samples.
func (h *History) Len() int {
	return h.count
}
