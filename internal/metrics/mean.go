package metrics

import (
	"math"

	"github.com/san-kum/neurosim/internal/entity"
)

// Mean averages one frame metric over every frame that reports it.
type Mean struct {
	name    string
	key     string
	sum     float64
	samples int
}

func NewMean(key string) *Mean {
	return &Mean{
		name: "mean_" + key,
		key:  key,
	}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(f entity.Frame) {
	v, ok := f.Metrics[m.key]
	if !ok {
		return
	}
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

// Peak tracks the largest value a frame metric reached.
type Peak struct {
	name string
	key  string
	max  float64
	seen bool
}

func NewPeak(key string) *Peak {
	return &Peak{
		name: "peak_" + key,
		key:  key,
	}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(f entity.Frame) {
	v, ok := f.Metrics[p.key]
	if !ok {
		return
	}
	if !p.seen {
		p.max = v
		p.seen = true
		return
	}
	p.max = math.Max(p.max, v)
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return 0
	}
	return p.max
}

func (p *Peak) Reset() {
	p.max = 0
	p.seen = false
}

// Final keeps the last reported value of a frame metric.
type Final struct {
	key  string
	last float64
}

func NewFinal(key string) *Final { return &Final{key: key} }

func (l *Final) Name() string { return "final_" + l.key }

func (l *Final) Observe(f entity.Frame) {
	if v, ok := f.Metrics[l.key]; ok {
		l.last = v
	}
}

func (l *Final) Value() float64 { return l.last }

func (l *Final) Reset() { l.last = 0 }
