package config

import (
	"os"
	"path/filepath"
	"testing"
)

const samplePipeline = `
name: deploy
stages:
  - name: checkout
    command: git
    args: ["pull", "--ff-only"]
  - name: static-check
    command: golangci-lint
    args: ["run"]
    blocking: false
  - name: run-tests
    command: go
    args: ["test", "./..."]
    blocking: false
  - name: build-artifact
    command: make
    args: ["build"]
`

/**
 * Test pipeline parsing and the blocking default
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Stages without an explicit blocking flag default to blocking
 * - Explicit blocking:false is preserved for best-effort stages
 */
func TestParsePipeline(t *testing.T) {
	spec, err := ParsePipeline([]byte(samplePipeline))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(spec.Stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(spec.Stages))
	}
	if !spec.Stages[0].IsBlocking() {
		t.Error("checkout must default to blocking")
	}
	if spec.Stages[1].IsBlocking() {
		t.Error("static-check must be best-effort")
	}
	if spec.Stages[2].IsBlocking() {
		t.Error("run-tests must be best-effort")
	}
	if !spec.Stages[3].IsBlocking() {
		t.Error("build-artifact must default to blocking")
	}
	if spec.Stages[3].Command != "make" {
		t.Errorf("unexpected build command: %s", spec.Stages[3].Command)
	}
}

func TestParsePipelineValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty stages", "name: deploy\nstages: []\n"},
		{"missing name", "stages:\n  - command: make\n"},
		{"missing command", "stages:\n  - name: build\n"},
		{"duplicate name", "stages:\n  - name: build\n    command: make\n  - name: build\n    command: make\n"},
		{"bad yaml", "stages: [\n"},
	}
	for _, tc := range cases {
		if _, err := ParsePipeline([]byte(tc.yaml)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

/**
 * Test loading the pipeline definition from disk
 * @param {*testing.T} t - Testing framework instance
 */
func TestLoadPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(samplePipeline), 0644); err != nil {
		t.Fatalf("failed to write pipeline file: %v", err)
	}

	spec, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if spec.Name != "deploy" {
		t.Errorf("unexpected pipeline name: %s", spec.Name)
	}

	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
