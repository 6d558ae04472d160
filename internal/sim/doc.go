// Package sim provides the discrete-time engine shared by every
// visualization.
//
// The package defines the contracts a simulation implements and the
// machinery that drives it:
//
//   - [Simulation]: per-tick update rules over an in-memory entity store
//   - [Session]: clock, run flag, seeded RNG and user controls of one instance
//   - [Scheduler]: wall-clock driver that ticks a session on a fixed period
//   - [Ensemble]: independent sessions run side by side with consecutive seeds
//
// # Example
//
//	s, _ := sim.NewSession(bnn.NewNetwork(), sim.DefaultConfig())
//	s.SetIntensity(0.6)
//	s.Start()
//	for s.Tick() {
//	    render(s.Frame())
//	}
//
// # Thread Safety
//
// Session is NOT thread-safe. A session has exactly one writer: either the
// goroutine owned by its Scheduler or a single-threaded UI loop. Frames are
// deep copies and may be handed to any reader.
package sim
