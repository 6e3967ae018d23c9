// Package audio is the client-side playback engine of a jam room.
//
// Every trigger, local or received from the network, is scheduled on a
// fixed musical grid: the start time is the next multiple of the grid
// quantum after the engine's current time (see NextGridTime). Clients do
// not synchronize clocks; they only agree on the grid.
//
// The engine is a software Mixer modelled on a small subset of the Web
// Audio API: buffer sources with a start time, gain parameters automated
// with SetTargetAtTime, and an equal-power stereo panner. The Mixer is an
// io.Reader of interleaved float32 frames so any output backend can pull
// from it; OtoOutput plays it on the default sound device.
package audio
