// Package analysis inspects the metric series recorded by headless runs.
//
//   - [PowerSpectrum] and [DominantRhythm]: spectral content of a series,
//     e.g. the rhythm of BNN firing or of brain region activity
//   - [NewPhasePortrait]: one metric plotted against another
//   - [Crossings]: upward threshold crossings (bursts)
//   - [ResponseDiagram]: how a metric responds to a swept parameter
//
// # Rhythm Detection
//
//	r, ok := analysis.DominantRhythm(series, dt)
//	if ok {
//	    fmt.Printf("period %.1f\n", r.Period)
//	}
package analysis
