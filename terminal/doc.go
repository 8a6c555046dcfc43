// Package terminal hosts a game engine in a text terminal.
//
// The Host owns the frame clock: a 60 FPS ticker advances the engine one
// frame per tick while tcell key events drive key state. Terminals report
// key presses and auto-repeats but never releases, so movement keys are
// latched: a direction counts as held until its repeats stop arriving for a
// hold window. Interact and run toggle instead, which lets a crate be
// carried while the arrow keys steer.
//
// Controls:
//
//	arrows / wasd / hjkl   walk
//	space / enter / e      pick up or drop a crate
//	tab                    toggle running
//	r                      deal a new board
//	m                      mute sound
//	q / esc / ctrl-c       quit
package terminal
