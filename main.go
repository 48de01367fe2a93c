/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-gl/engine"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/testbed"
)

func main() {
	configPath := flag.String("config", "assets/config.toml", "path of the TOML configuration")
	headless := flag.Bool("headless", false, "render with the in-memory driver, without a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames, 0 runs until the window closes")
	flag.Parse()

	config, err := engine.LoadApplicationConfig(*configPath)
	if err != nil {
		core.LogError("failed to load configuration: %s", err)
		os.Exit(1)
	}
	if *headless {
		config.Renderer.Backend = string(renderer.Headless)
	}

	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}
	e.SetFrameLimit(*frames)

	if err := e.Initialize(); err != nil {
		core.LogError("failed to initialize: %s", err)
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the GL context belongs to this goroutine, so signals only stop the loop
	go func() {
		<-sigCh
		e.Quit()
	}()

	// run engine
	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogError(runErr.Error())
		os.Exit(1)
	}
}
