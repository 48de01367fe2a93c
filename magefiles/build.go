//go:build mage

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"

	"github.com/spaghettifunk/anima-gl/engine/assets/loaders"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/systems"
)

type Build mg.Namespace

// Compiles every shader under assets/shaders with the headless driver and
// reports the driver log of each one that fails.
func (Build) Shaders() error {
	return validateShaders("assets/shaders")
}

// Builds the engine binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-gl", "."), withStream()); err != nil {
		return err
	}
	return nil
}

type Test mg.Namespace

// Runs every package test.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the tests that need no window or GL library, with cgo off so glfw
// cannot sneak into the headless path.
func (Test) Headless() error {
	pkgs := []string{
		"./engine/renderer/...",
		"./engine/systems/...",
		"./engine/assets/...",
	}
	if _, err := executeCmd("go", withArgs(append([]string{"test"}, pkgs...)...), withEnv("CGO_ENABLED=0"), withStream()); err != nil {
		return err
	}
	return nil
}

func validateShaders(dir string) error {
	r, err := renderer.New(renderer.Config{Type: renderer.Headless})
	if err != nil {
		return err
	}
	var failed []error
	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		stage, err := loaders.StageOf(path)
		if err != nil {
			// not a shader source
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		count++
		if err := systems.CompileSource(r.Context(), stage, string(src)); err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d shaders checked, %d failed\n", count, len(failed))
	return errors.Join(failed...)
}
