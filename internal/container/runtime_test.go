// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runFunc       func(name string, args []string, stdout, stderr io.Writer) error
	lastBin       string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, stdout, stderr io.Writer) error {
	m.lastBin = name
	if m.runFunc != nil {
		return m.runFunc(name, args, stdout, stderr)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := DetectRuntimeWith(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "hra-glb-mesh-collisions:latest",
			cmds:  map[string]bool{"docker image inspect hra-glb-mesh-collisions:latest": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "hra-glb-mesh-collisions:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "hra-glb-mesh-collisions:latest",
			cmds:  map[string]bool{"podman image exists hra-glb-mesh-collisions:latest": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "hra-glb-mesh-collisions:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			rt := tt.mkRT(exec)
			err := rt.ImageExists(tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	spec := RunSpec{
		Image:   "ghcr.io/hubmapconsortium/hra-glb-mesh-collisions:latest",
		Mounts:  []Mount{{Host: "/tmp/work", Container: "/data"}},
		WorkDir: "/data",
		Args:    []string{"/data/model.glb", "/data/collisions.csv"},
	}
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		runFunc func(string, []string, io.Writer, io.Writer) error
		wantBin string
		wantOut string
		wantErr bool
	}{
		{
			name: "docker run streams output",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			runFunc: func(name string, args []string, stdout, stderr io.Writer) error {
				_, _ = stdout.Write([]byte("12 collisions"))
				return nil
			},
			wantBin: "docker",
			wantOut: "12 collisions",
		},
		{
			name: "podman run streams output",
			mkRT: func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			runFunc: func(name string, args []string, stdout, stderr io.Writer) error {
				_, _ = stdout.Write([]byte("12 collisions"))
				return nil
			},
			wantBin: "podman",
			wantOut: "12 collisions",
		},
		{
			name: "run failure returns wrapped error",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			runFunc: func(string, []string, io.Writer, io.Writer) error {
				return errors.New("container exited with code 1")
			},
			wantBin: "docker",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runFunc: tt.runFunc}
			rt := tt.mkRT(exec)
			var out bytes.Buffer
			s := spec
			s.Stdout = &out
			err := rt.Run(context.Background(), s)
			if exec.lastBin != tt.wantBin {
				t.Errorf("ran %q, want %q", exec.lastBin, tt.wantBin)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), spec.Image) {
					t.Errorf("error should mention image, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.String(); got != tt.wantOut {
				t.Errorf("got output %q, want %q", got, tt.wantOut)
			}
		})
	}
}

func TestRunArgs(t *testing.T) {
	got := runArgs(RunSpec{
		Image:   "collide:1",
		Mounts:  []Mount{{Host: "/w", Container: "/data"}, {Host: "/m", Container: "/models", ReadOnly: true}},
		WorkDir: "/data",
		Args:    []string{"in.glb", "out.csv"},
	})
	want := []string{"run", "--rm", "-v", "/w:/data", "-v", "/m:/models:ro", "-w", "/data", "collide:1", "in.glb", "out.csv"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("runArgs = %v, want %v", got, want)
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	docker := newDockerRuntime(exec)
	if docker.Name() != "docker" {
		t.Errorf("docker runtime name = %q, want %q", docker.Name(), "docker")
	}
	podman := newPodmanRuntime(exec)
	if podman.Name() != "podman" {
		t.Errorf("podman runtime name = %q, want %q", podman.Name(), "podman")
	}
}
