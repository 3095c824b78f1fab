package inspect

// Sample is one (elapsed seconds, value) observation.
type Sample struct {
	T float64
	V float64
}

// Series is a bounded, time-ordered sample buffer. Once full, appending
// evicts the oldest sample.
type Series struct {
	name  string
	buf   []Sample
	start int
	count int
}

// NewSeries creates an empty series holding at most capacity samples.
func NewSeries(name string, capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{name: name, buf: make([]Sample, capacity)}
}

// Name returns the field name the series was created for.
func (s *Series) Name() string { return s.name }

// Len returns the number of buffered samples.
func (s *Series) Len() int { return s.count }

// Cap returns the maximum number of buffered samples.
func (s *Series) Cap() int { return len(s.buf) }

// At returns the i-th sample, oldest first.
func (s *Series) At(i int) Sample {
	return s.buf[(s.start+i)%len(s.buf)]
}

// Last returns the newest sample.
func (s *Series) Last() (Sample, bool) {
	if s.count == 0 {
		return Sample{}, false
	}
	return s.At(s.count - 1), true
}

// Append adds a sample. Samples older than the newest buffered one are
// rejected so the buffer stays ordered by time.
func (s *Series) Append(t, v float64) bool {
	if last, ok := s.Last(); ok && t < last.T {
		return false
	}
	if s.count < len(s.buf) {
		s.buf[(s.start+s.count)%len(s.buf)] = Sample{T: t, V: v}
		s.count++
		return true
	}
	s.buf[s.start] = Sample{T: t, V: v}
	s.start = (s.start + 1) % len(s.buf)
	return true
}

// Samples returns a copy of the buffered samples, oldest first.
func (s *Series) Samples() []Sample {
	out := make([]Sample, s.count)
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// Bounds returns the time and value extent of the buffered samples.
func (s *Series) Bounds() (minT, maxT, minV, maxV float64) {
	if s.count == 0 {
		return 0, 0, 0, 0
	}
	first := s.At(0)
	minT, maxT = first.T, s.At(s.count-1).T
	minV, maxV = first.V, first.V
	for i := 1; i < s.count; i++ {
		v := s.At(i).V
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minT, maxT, minV, maxV
}

// SetCapacity resizes the buffer, keeping the newest samples.
func (s *Series) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(s.buf) {
		return
	}
	keep := s.count
	if keep > capacity {
		keep = capacity
	}
	buf := make([]Sample, capacity)
	for i := 0; i < keep; i++ {
		buf[i] = s.At(s.count - keep + i)
	}
	s.buf, s.start, s.count = buf, 0, keep
}
