// Package assembly turns clips and narration into a finished vertical video.
//
// The pieces run in a fixed order for each render: Preparer normalizes and
// fits clips to a duration, Synthesizer produces per-stage narration and
// segments (or the single legacy segment), Concatenator joins segments and
// narration tracks, and Muxer performs the final encode. All artifacts land
// in Settings.Dir with names qualified by stage or step.
package assembly
