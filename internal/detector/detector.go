// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detector runs the external mesh-mesh collision tool. The tool is
// a black box: it reads a GLB model and writes a CSV of colliding node
// pairs with columns source and target (and optionally percentage).
package detector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/hra-relations/internal/container"
	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/pkg/types"
)

const (
	placeholderModel  = "{model}"
	placeholderOutput = "{output}"

	// containerDataDir is where the scratch directory is mounted.
	containerDataDir = "/data"
)

// Detector writes the collisions found in modelPath to outputCSV.
type Detector interface {
	Name() string
	Detect(ctx context.Context, modelPath, outputCSV string) error
}

// New builds the detector described by cfg. Tool output is streamed to log.
func New(cfg types.DetectorConfig, log io.Writer) (Detector, error) {
	switch cfg.Mode {
	case types.DetectorCommand, "":
		if len(cfg.Command) == 0 {
			return nil, fmt.Errorf("detector command is empty")
		}
		return &CommandDetector{Argv: cfg.Command, Exec: container.HostExecutor{}, Log: log}, nil
	case types.DetectorContainer:
		if cfg.Image == "" {
			return nil, fmt.Errorf("detector image is required in container mode")
		}
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(cfg.Image); err != nil {
			return nil, err
		}
		return &ContainerDetector{Runtime: rt, Image: cfg.Image, Log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported detector mode %q: use command or container", cfg.Mode)
	}
}

// CommandDetector runs the tool as a host process.
type CommandDetector struct {
	// Argv is the command line; {model} and {output} are substituted. When
	// neither placeholder appears the two paths are appended.
	Argv []string
	Exec container.Executor
	Log  io.Writer
}

func (d *CommandDetector) Name() string { return "command" }

func (d *CommandDetector) Detect(ctx context.Context, modelPath, outputCSV string) error {
	argv := expandArgv(d.Argv, modelPath, outputCSV)
	log := logWriter(d.Log)
	if err := d.Exec.Run(ctx, argv[0], argv[1:], log, log); err != nil {
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return checkOutput(outputCSV)
}

func expandArgv(argv []string, model, output string) []string {
	out := make([]string, len(argv))
	substituted := false
	for i, a := range argv {
		if strings.Contains(a, placeholderModel) || strings.Contains(a, placeholderOutput) {
			substituted = true
		}
		a = strings.ReplaceAll(a, placeholderModel, model)
		out[i] = strings.ReplaceAll(a, placeholderOutput, output)
	}
	if !substituted {
		out = append(out, model, output)
	}
	return out
}

// ContainerDetector runs the tool inside a container image. The model and
// the output must live in the same directory, which is mounted at /data.
type ContainerDetector struct {
	Runtime container.Runtime
	Image   string
	Log     io.Writer
}

func (d *ContainerDetector) Name() string { return d.Runtime.Name() }

func (d *ContainerDetector) Detect(ctx context.Context, modelPath, outputCSV string) error {
	dir, err := filepath.Abs(filepath.Dir(modelPath))
	if err != nil {
		return fmt.Errorf("resolving scratch dir: %w", err)
	}
	outDir, err := filepath.Abs(filepath.Dir(outputCSV))
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}
	if dir != outDir {
		return fmt.Errorf("model and output must share a directory (%s vs %s)", dir, outDir)
	}

	spec := container.RunSpec{
		Image:   d.Image,
		Mounts:  []container.Mount{{Host: dir, Container: containerDataDir}},
		WorkDir: containerDataDir,
		Args: []string{
			containerDataDir + "/" + filepath.Base(modelPath),
			containerDataDir + "/" + filepath.Base(outputCSV),
		},
		Stdout: logWriter(d.Log),
		Stderr: logWriter(d.Log),
	}
	if err := d.Runtime.Run(ctx, spec); err != nil {
		return err
	}
	return checkOutput(outputCSV)
}

// logWriter discards tool output when no log is set.
func logWriter(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func checkOutput(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("collision tool produced no output at %s: %w", path, err)
	}
	return nil
}

// ReadCollisions parses the tool's output CSV. Terms are left empty; the
// caller maps node names to ontology terms.
func ReadCollisions(path string) ([]types.Collision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collisions: %w", err)
	}
	defer f.Close()

	t, err := relations.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := t.Has("source", "target"); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]types.Collision, 0, len(t.Rows))
	for _, row := range t.Rows {
		c := types.Collision{Source: row["source"], Target: row["target"]}
		if p := row["percentage"]; p != "" {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing percentage %q: %w", p, err)
			}
			c.Percentage = v
		}
		out = append(out, c)
	}
	return out, nil
}
