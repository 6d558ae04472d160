package entity

import (
	"fmt"
	"math"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Lerp(to Vec2, t float64) Vec2 {
	return Vec2{X: v.X + (to.X-v.X)*t, Y: v.Y + (to.Y-v.Y)*t}
}

func (v Vec2) IsValid() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Node is a neuron, region or network unit. Activity stays within [Min, Max]
// whenever Min < Max.
type Node struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Label     string  `json:"label,omitempty"`
	Pos       Vec2    `json:"pos"`
	Activity  float64 `json:"activity"`
	Threshold float64 `json:"threshold,omitempty"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

func (n Node) Key() string { return n.ID }

func (n *Node) Clamp() {
	if n.Min >= n.Max {
		return
	}
	n.Activity = Clamp(n.Activity, n.Min, n.Max)
}

type Edge struct {
	ID            string  `json:"id"`
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	Weight        float64 `json:"weight"`
	Active        bool    `json:"active"`
	LastActivated float64 `json:"last_activated"`
}

func (e Edge) Key() string { return e.ID }

// Signal is a transient particle. Progress runs from 0 at the source to 1 at
// the target.
type Signal struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	Target    string  `json:"target,omitempty"`
	Progress  float64 `json:"progress"`
	Born      float64 `json:"born"`
	Amplitude float64 `json:"amplitude"`
	Kind      string  `json:"kind,omitempty"`
}

func (s Signal) Key() string { return s.ID }

func (s *Signal) Advance(step float64) {
	s.Progress = Clamp(s.Progress+step, 0, 1)
}

func (s Signal) Expired(now, maxAge float64) bool {
	if s.Progress >= 1 {
		return true
	}
	return maxAge > 0 && now-s.Born > maxAge
}

// Point is an immutable sample. Label is a class index; Value carries an
// intensity where one applies.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label int     `json:"label"`
	Value float64 `json:"value,omitempty"`
}

// Sweep drops expired signals in place and returns the survivors along with
// the number removed.
func Sweep(signals []Signal, now, maxAge float64) ([]Signal, int) {
	kept := signals[:0]
	for _, s := range signals {
		if !s.Expired(now, maxAge) {
			kept = append(kept, s)
		}
	}
	removed := len(signals) - len(kept)
	for i := len(kept); i < len(signals); i++ {
		signals[i] = Signal{}
	}
	return kept, removed
}

// ValidateEdges reports the first edge that references a node not present in
// nodes.
func ValidateEdges(nodes []Node, edges []Edge) error {
	idx := NewIndex(nodes)
	for _, e := range edges {
		if _, ok := idx[e.Source]; !ok {
			return fmt.Errorf("edge %s: unknown source node %q", e.ID, e.Source)
		}
		if _, ok := idx[e.Target]; !ok {
			return fmt.Errorf("edge %s: unknown target node %q", e.ID, e.Target)
		}
	}
	return nil
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite returns v, or fallback when v is NaN or infinite.
func Finite(v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	return fallback
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
