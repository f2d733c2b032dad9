// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/hardware/device"
	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/modalflag"
	"github.com/gopher800/gopher800/monitor"
	"github.com/gopher800/gopher800/statsview"
	"github.com/gopher800/gopher800/version"
)

// the machine clock runs at 1.79MHz and the frame pump at 60Hz. one hundred
// and fourteen cycles per scanline, two hundred and sixty-two scanlines.
const cyclesPerFrame = 114 * 262
const frameDuration = time.Second / 60

func main() {
	os.Exit(launch(os.Stdout, os.Args[1:]))
}

func launch(output io.Writer, args []string) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes("RUN", "CHECK", "VERSION")

	log := md.AddBool("log", false, "echo log entries to stdout")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.Address))

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return 0
	case modalflag.ParseError:
		fmt.Fprintf(output, "* %v\n", err)
		return 10
	}

	if *log {
		logger.SetEcho(output, true)
	}

	if *stats {
		if !statsview.Available() {
			fmt.Fprintln(output, "* project not built with the statsview tag")
			return 10
		}
		statsview.Launch(output)
	}

	switch md.Mode() {
	case "RUN":
		return run(output, md)
	case "CHECK":
		return check(output, md)
	case "VERSION":
		vers, rev, _ := version.Version()
		fmt.Fprintf(output, "%s %s (%s)\n", version.ApplicationName, vers, rev)
		return 0
	}

	return 0
}

// run loads a description and drives the device clock until interrupted or
// the frame limit is reached.
func run(output io.Writer, md *modalflag.Modes) int {
	md.NewMode()

	reload := md.AddBool("reload", false, "recompile the description when it changes on disk")
	unsafe := md.AddBool("unsafe", false, "allow description options that reach outside the machine")
	frames := md.AddInt("frames", 0, "stop after this many frames (0 for no limit)")
	mon := md.AddBool("monitor", false, "drop into the interactive monitor instead of free-running")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return 0
	case modalflag.ParseError:
		fmt.Fprintf(output, "* %v\n", err)
		return 10
	}

	if len(md.RemainingArgs()) != 1 {
		fmt.Fprintln(output, "* a single description file is required")
		return 10
	}

	settings := device.Settings{
		Path:        md.GetArg(0),
		HotReload:   *reload,
		AllowUnsafe: *unsafe,
	}

	clk := clock.NewClock()
	dev, err := device.NewDevice(clk, settings)
	if err != nil {
		fmt.Fprintf(output, "* %v\n", err)
		return 10
	}
	defer dev.Shutdown()

	if *mon {
		m, err := monitor.NewMonitor(clk, dev)
		if err != nil {
			fmt.Fprintf(output, "* %v\n", err)
			return 10
		}
		m.Run()
		return 0
	}

	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	tck := time.NewTicker(frameDuration)
	defer tck.Stop()

	frame := 0
	for *frames == 0 || frame < *frames {
		select {
		case <-intChan:
			fmt.Fprintln(output, "")
			return 0
		case <-tck.C:
			clk.Advance(cyclesPerFrame)
			dev.VBlank()
			frame++
		}
	}

	return 0
}

// check compiles a description and reports the result. Nothing is run
// beyond the init hook.
func check(output io.Writer, md *modalflag.Modes) int {
	md.NewMode()

	unsafe := md.AddBool("unsafe", false, "allow description options that reach outside the machine")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return 0
	case modalflag.ParseError:
		fmt.Fprintf(output, "* %v\n", err)
		return 10
	}

	if len(md.RemainingArgs()) == 0 {
		fmt.Fprintln(output, "* at least one description file is required")
		return 10
	}

	failed := false
	for _, path := range md.RemainingArgs() {
		clk := clock.NewClock()
		dev, err := device.NewDevice(clk, device.Settings{Path: path, AllowUnsafe: *unsafe})
		if err != nil {
			fmt.Fprintf(output, "FAIL %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Fprintf(output, "ok   %s (%s)\n", path, dev.Name())
		dev.Shutdown()
	}

	if failed {
		return 10
	}
	return 0
}
