package brain

import "github.com/san-kum/neurosim/internal/entity"

type Region struct {
	ID       string
	Label    string
	Lobe     string
	Baseline float64
	Pos      entity.Vec2
	Activity float64
}

func (r Region) Key() string { return r.ID }

var regionTable = []Region{
	{ID: "thal", Label: "Thalamus", Lobe: "subcortical", Baseline: 0.20, Pos: entity.Vec2{X: 400, Y: 320}},
	{ID: "v1", Label: "Primary Visual Cortex", Lobe: "occipital", Baseline: 0.15, Pos: entity.Vec2{X: 700, Y: 330}},
	{ID: "v2", Label: "Secondary Visual Cortex", Lobe: "occipital", Baseline: 0.12, Pos: entity.Vec2{X: 650, Y: 260}},
	{ID: "it", Label: "Inferotemporal Cortex", Lobe: "temporal", Baseline: 0.10, Pos: entity.Vec2{X: 560, Y: 420}},
	{ID: "a1", Label: "Primary Auditory Cortex", Lobe: "temporal", Baseline: 0.15, Pos: entity.Vec2{X: 430, Y: 400}},
	{ID: "a2", Label: "Auditory Association Cortex", Lobe: "temporal", Baseline: 0.12, Pos: entity.Vec2{X: 480, Y: 450}},
	{ID: "wernicke", Label: "Wernicke's Area", Lobe: "temporal", Baseline: 0.10, Pos: entity.Vec2{X: 540, Y: 360}},
	{ID: "broca", Label: "Broca's Area", Lobe: "frontal", Baseline: 0.10, Pos: entity.Vec2{X: 250, Y: 340}},
	{ID: "pfc", Label: "Prefrontal Cortex", Lobe: "frontal", Baseline: 0.15, Pos: entity.Vec2{X: 130, Y: 230}},
	{ID: "pmc", Label: "Premotor Cortex", Lobe: "frontal", Baseline: 0.10, Pos: entity.Vec2{X: 270, Y: 140}},
	{ID: "m1", Label: "Primary Motor Cortex", Lobe: "frontal", Baseline: 0.12, Pos: entity.Vec2{X: 360, Y: 100}},
	{ID: "cereb", Label: "Cerebellum", Lobe: "hindbrain", Baseline: 0.10, Pos: entity.Vec2{X: 640, Y: 500}},
	{ID: "ppc", Label: "Posterior Parietal Cortex", Lobe: "parietal", Baseline: 0.10, Pos: entity.Vec2{X: 560, Y: 150}},
	{ID: "hippo", Label: "Hippocampus", Lobe: "temporal", Baseline: 0.12, Pos: entity.Vec2{X: 470, Y: 370}},
}

type Pathway struct {
	Name    string
	Regions []string
}

// Pathways are listed in spawn order.
var pathways = []Pathway{
	{Name: "visual", Regions: []string{"thal", "v1", "v2", "it", "pfc"}},
	{Name: "auditory", Regions: []string{"thal", "a1", "a2", "wernicke", "broca"}},
	{Name: "motor", Regions: []string{"pfc", "pmc", "m1", "cereb"}},
	{Name: "cognitive", Regions: []string{"pfc", "ppc", "hippo", "pfc"}},
}

func Pathways() []Pathway {
	out := make([]Pathway, len(pathways))
	for i, p := range pathways {
		out[i] = Pathway{Name: p.Name, Regions: append([]string(nil), p.Regions...)}
	}
	return out
}

func lookupPathway(name string) (Pathway, bool) {
	for _, p := range pathways {
		if p.Name == name {
			return p, true
		}
	}
	return Pathway{}, false
}

var Modes = []string{"all", "visual", "auditory", "motor", "cognitive"}
