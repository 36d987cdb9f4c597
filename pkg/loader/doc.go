// Package loader computes dependency-first load plans over a catalogue and
// executes them against a native load primitive. Each library is loaded at
// most once per status table; concurrent requests for overlapping plans
// serialize on the shared libraries' state transitions.
package loader
