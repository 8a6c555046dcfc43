// Package audio plays short synthesized cues for game events.
//
// A Player owns a mixer attached to the system speaker. Initialize may fail
// on machines without an audio device; every Play call on an uninitialized
// Player is a no-op, so hosts keep running silently.
package audio
