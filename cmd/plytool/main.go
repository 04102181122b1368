// plytool inspects PLY meshes and checks the viewer's model sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Faultbox/archview/internal/assets"
	"github.com/Faultbox/archview/internal/config"
	"github.com/Faultbox/archview/internal/engine/model"
	"github.com/Faultbox/archview/internal/viewer"
	"github.com/Faultbox/archview/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "check":
		cmdCheck(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`plytool - PLY mesh utility for ArchView

Usage:
  plytool <command> [options]

Commands:
  info <file.ply>...                 Show format, element counts and bounds
  check [-config f] [-root dir]      Decode every model in the step sequence
  config [-config f] [-o file]       Write the effective config (user config dir by default)

Examples:
  plytool info Models/Mandibular.ply
  plytool check -root ./public
  plytool config -o archview.yaml`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: plytool info <file.ply>...")
		os.Exit(1)
	}

	failed := false
	for _, path := range args {
		ply, err := formats.ParsePLYFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		printInfo(os.Stdout, path, ply)
	}
	if failed {
		os.Exit(1)
	}
}

func printInfo(w io.Writer, path string, ply *formats.PLY) {
	lo, hi := ply.Bounds()
	fmt.Fprintf(w, "File:      %s\n", path)
	fmt.Fprintf(w, "Format:    %s %s\n", ply.Format, ply.Version)
	fmt.Fprintf(w, "Vertices:  %d\n", len(ply.Vertices))
	fmt.Fprintf(w, "Triangles: %d\n", len(ply.Faces))
	fmt.Fprintf(w, "Normals:   %s\n", yesNo(ply.HasNormals))
	fmt.Fprintf(w, "Colors:    %s\n", yesNo(ply.HasColors))
	fmt.Fprintf(w, "Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	fmt.Fprintln(w, "Elements:")
	for _, el := range ply.Elements {
		fmt.Fprintf(w, "  %-10s %8d  (%d properties)\n", el.Name, el.Count, len(el.Properties))
	}
	fmt.Fprintln(w)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (defaults when empty)")
	root := fs.String("root", "", "Directory containing Models/ (overrides config)")
	timeout := fs.Duration("timeout", time.Minute, "Overall timeout")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Models.Root = *root
	}
	seq, err := viewer.SequenceFromConfig(cfg.Models.Steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mgr := assets.NewManager(cfg.Models.Root)
	results := checkSteps(ctx, mgr, seq)
	mgr.Close()
	if printResults(os.Stdout, results) > 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file to start from (defaults when empty)")
	out := fs.String("o", "", "Output file (user config dir when empty)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path, err := writeConfig(cfg, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// writeConfig saves cfg to out, or to the user config dir when out is empty.
func writeConfig(cfg *config.Config, out string) (string, error) {
	if out == "" {
		if err := cfg.Save(); err != nil {
			return "", err
		}
		return config.UserConfigFile(), nil
	}
	return out, cfg.SaveTo(out)
}

type checkResult struct {
	Step int
	Slot viewer.Slot
	Path string
	Mesh *model.Mesh
	Err  error
}

// checkSteps loads both assets of every step in order.
func checkSteps(ctx context.Context, loader viewer.Loader, seq *viewer.Sequence) []checkResult {
	results := make([]checkResult, 0, 2*seq.Len())
	for i, s := range seq.Steps() {
		for _, slot := range []viewer.Slot{viewer.Mandibular, viewer.Maxillary} {
			path := s.Path(slot)
			mesh, err := loader.Load(ctx, path)
			results = append(results, checkResult{Step: i, Slot: slot, Path: path, Mesh: mesh, Err: err})
		}
	}
	return results
}

// printResults writes one line per asset and returns the failure count.
func printResults(w io.Writer, results []checkResult) int {
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(w, "FAIL  week %d  %-10s  %s: %v\n", r.Step+1, r.Slot, r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "ok    week %d  %-10s  %s (%d vertices, %d triangles)\n",
			r.Step+1, r.Slot, r.Path, len(r.Mesh.Vertices), r.Mesh.TriangleCount())
	}
	fmt.Fprintf(w, "\n%d assets, %d failed\n", len(results), failures)
	return failures
}
