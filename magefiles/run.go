//go:build mage

package main

import (
	"fmt"
	"strconv"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed in a window.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "assets/config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed for a number of frames without a window.
func (Run) Headless(frames int) error {
	mg.Deps(Build.Shaders)
	args := []string{"run", ".", "-config", "assets/config.toml", "-headless", "-frames", strconv.Itoa(frames)}
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
