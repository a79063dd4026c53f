// Command syrendemo lists the graphics capabilities of the machine and
// renders a number of frames through the Direct3D 12 backend.
//
// Without -hwnd the frames are rendered on the emulated driver, which runs
// on every platform. Pass the handle of an existing window to render with
// the native driver on Windows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/backend/directx"
	"github.com/gogpu/syren/driver/emulated"
)

func main() {
	os.Exit(demo(os.Args[1:]))
}

// demo runs the command with args and returns the exit code. Deferred
// cleanup has run by the time it returns.
func demo(args []string) int {
	fs := flag.NewFlagSet("syrendemo", flag.ContinueOnError)
	var (
		width   = fs.Int("width", 800, "client area width")
		height  = fs.Int("height", 600, "client area height")
		frames  = fs.Int("frames", 60, "frames to render")
		hwnd    = fs.Uint64("hwnd", 0, "native window handle; 0 renders on the emulated driver")
		config  = fs.String("config", syren.DefaultConfigPath, "render config file")
		verbose = fs.Bool("v", false, "log initialisation stages")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	syren.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	defer syren.SetLogger(nil)

	opts := []syren.Option{syren.WithConfigPath(*config)}
	if *hwnd == 0 {
		drv := emulated.New(emulated.DefaultConfig())
		opts = append(opts, syren.WithBackendFactory(gputypes.BackendDX12,
			func(t backend.Target) backend.GraphicsBackend {
				return directx.New(t, directx.WithDriver(drv.Open))
			}))
		defer reportViolations(drv)
	}

	target := backend.Target{Window: uintptr(*hwnd), Width: *width, Height: *height}
	if err := run(context.Background(), target, *frames, opts); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}

// run initialises a renderer, prints the capabilities and renders frames.
func run(ctx context.Context, target backend.Target, frames int, opts []syren.Option) error {
	r := syren.New(target, opts...)
	defer r.Destroy(ctx)

	res := r.Initialise(ctx)
	fmt.Println(res.Message)
	if !res.OK() {
		return fmt.Errorf("initialise: %w", res.Cause())
	}

	if err := printCapabilities(r); err != nil {
		log.Printf("enumeration: %v", err)
	}

	for i := range frames {
		if res := r.Update(ctx); !res.OK() {
			return fmt.Errorf("frame %d: update: %w", i, res.Cause())
		}
		if res := r.Draw(ctx); !res.OK() {
			return fmt.Errorf("frame %d: %w", i, res.Cause())
		}
	}
	log.Printf("Rendered %d frames at %dx%d with %s", frames, target.Width, target.Height, r.API())
	return nil
}

// printCapabilities prints every adapter with its outputs and their modes.
func printCapabilities(r *syren.Renderer) error {
	adapters, res := r.Adapters()
	if !res.OK() {
		return res.Cause()
	}
	for _, a := range adapters {
		fmt.Printf("Adapter %d: %s (%s)\n", a.Index, a.Name, a.Type)
		outputs, res := r.Outputs(a.Index)
		if !res.OK() {
			return res.Cause()
		}
		for _, o := range outputs {
			fmt.Printf("  Output %d: %s\n", o.Index, o.DeviceName)
			modes, res := r.DisplayModes(a.Index, o.Index)
			if !res.OK() {
				return res.Cause()
			}
			for _, m := range modes {
				fmt.Printf("    %dx%d @ %d Hz\n", m.Width, m.Height, m.RefreshRate)
			}
		}
	}
	return nil
}

// reportViolations logs the protocol violations the emulated driver saw.
func reportViolations(drv *emulated.Driver) {
	for _, v := range drv.Violations() {
		log.Printf("protocol violation: %v", v)
	}
}
