//go:build !darwin && !linux

package opengl

import "errors"

func LibraryPaths() []string { return nil }

// Open is only available where the GL library can be opened directly; use
// Load with the window system's proc address lookup instead.
func Open(paths ...string) (*Driver, error) {
	return nil, errors.New("opengl: opening the GL library is not supported on this platform")
}
