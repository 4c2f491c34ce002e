// Package version identifies the running build.
package version

const (
	AppName = "wavebot"
	Version = "0.3.0"
)
