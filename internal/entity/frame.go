package entity

import "sort"

// Frame is the read-only snapshot a presentation layer renders. It never
// aliases simulation state.
type Frame struct {
	Sim       string             `json:"sim"`
	Session   string             `json:"session"`
	Iteration int                `json:"iteration"`
	Time      float64            `json:"time"`
	Running   bool               `json:"running"`
	Selected  string             `json:"selected,omitempty"`
	Nodes     []Node             `json:"nodes"`
	Edges     []Edge             `json:"edges"`
	Signals   []Signal           `json:"signals"`
	Points    []Point            `json:"points,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// NewFrame copies the given slices so the caller may keep mutating its own.
func NewFrame(sim string, nodes []Node, edges []Edge, signals []Signal, points []Point, metrics map[string]float64) Frame {
	f := Frame{
		Sim:     sim,
		Nodes:   append([]Node(nil), nodes...),
		Edges:   append([]Edge(nil), edges...),
		Signals: append([]Signal(nil), signals...),
		Points:  append([]Point(nil), points...),
		Metrics: make(map[string]float64, len(metrics)),
	}
	for k, v := range metrics {
		f.Metrics[k] = v
	}
	return f
}

// Sanitize replaces every non-finite value that feeds layout with a safe
// fallback. It returns the number of substitutions made.
func (f *Frame) Sanitize() int {
	fixed := 0
	fix := func(v *float64, fallback float64) {
		if !isFinite(*v) {
			*v = fallback
			fixed++
		}
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		fix(&n.Pos.X, 0)
		fix(&n.Pos.Y, 0)
		fix(&n.Activity, n.Min)
	}
	for i := range f.Edges {
		fix(&f.Edges[i].Weight, 0)
	}
	for i := range f.Signals {
		fix(&f.Signals[i].Progress, 0)
		fix(&f.Signals[i].Amplitude, 0)
	}
	for i := range f.Points {
		fix(&f.Points[i].X, 0)
		fix(&f.Points[i].Y, 0)
		fix(&f.Points[i].Value, 0)
	}
	for k, v := range f.Metrics {
		if !isFinite(v) {
			f.Metrics[k] = 0
			fixed++
		}
	}
	return fixed
}

// SignalPos interpolates a signal between its endpoints. Signals with an
// unknown target stay at the source.
func (f Frame) SignalPos(s Signal) Vec2 {
	idx := NewIndex(f.Nodes)
	i, ok := idx[s.Source]
	if !ok {
		return Vec2{}
	}
	from := f.Nodes[i].Pos
	j, ok := idx[s.Target]
	if !ok {
		return from
	}
	p := from.Lerp(f.Nodes[j].Pos, s.Progress)
	if !p.IsValid() {
		return from
	}
	return p
}

func (f Frame) MetricNames() []string {
	names := make([]string, 0, len(f.Metrics))
	for k := range f.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
