// Package viz renders simulation frames in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: live view of one session, the session's only writer
//   - [NewInteractiveApp]: simulation and preset picker in front of the live view
//   - [Canvas]: Braille-based pixel canvas; [RenderFrame] draws a frame on it
//   - Theme selection with 3 built-in color schemes, shared with SVG export
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset (rebuild from seed)
//	+/-   - Speed
//	[/]   - Intensity
//	Tab   - Select next entity
//	P     - Next parameter, Up/Down to tune it
//	M     - Chart next metric
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
