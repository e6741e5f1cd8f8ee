// Package viz draws an ensemble in the terminal.
//
// [Model] is a Bubble Tea model that polls an [ensemble.Reader] on a fixed
// tick and renders the latest whole frame on a braille [Canvas]. With more
// than one particle the particles are joined in index order into a closed
// loop. A side panel shows the frame counter, simulated time and a chart of
// the mean particle speed.
//
// # Key Bindings
//
//	Q     - Quit
//	T     - Cycle color themes
//	X/Y   - Rotate the camera (3D only)
//	+/-   - Zoom (3D only)
package viz
