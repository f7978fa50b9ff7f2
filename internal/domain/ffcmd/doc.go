// Package ffcmd describes ffmpeg invocations as values.
//
// A Job holds inputs, filters, stream maps and codec settings. Nothing in
// this package touches the filesystem or starts a process; the ffmpeg
// adapter resolves a Job into an argument slice with Args right before
// handing it to the process runner.
package ffcmd
