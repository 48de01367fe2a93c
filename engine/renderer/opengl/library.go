//go:build darwin || linux

package opengl

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// LibraryPaths are tried in order by Open when no path is given.
func LibraryPaths() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/System/Library/Frameworks/OpenGL.framework/OpenGL"}
	}
	return []string{"libGL.so.1", "libGL.so", "libOpenGL.so.0"}
}

// Open loads the system GL library and resolves entry points from its
// exports. A context must already be current. Windowed applications
// should prefer Load with the window system's proc address lookup.
func Open(paths ...string) (*Driver, error) {
	if len(paths) == 0 {
		paths = LibraryPaths()
	}
	var lib uintptr
	var err error
	for _, path := range paths {
		lib, err = purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opengl: dlopen: %w", err)
	}
	return Load(func(name string) uintptr {
		addr, err := purego.Dlsym(lib, name)
		if err != nil {
			return 0
		}
		return addr
	})
}
