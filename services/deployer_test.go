package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deploy-keeper/internal/config"
)

/**
 * Test local deployer installs the artifact and launches a new instance
 * @param {*testing.T} t - Testing framework instance
 */
func TestLocalDeployerInstallsArtifact(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{}}})
	launched := 0
	lc.launch = func(ctx context.Context) (string, error) {
		launched++
		return "4242", nil
	}

	srcDir := t.TempDir()
	dstDir := t.TempDir()
	artifact := filepath.Join(srcDir, "predict-backend")
	if err := os.WriteFile(artifact, []byte("binary"), 0755); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	d := &LocalDeployer{target: config.TargetConfig{Type: "local", Path: dstDir}, lifecycle: lc}
	if err := d.Deploy(context.Background(), artifact); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	installed := filepath.Join(dstDir, "predict-backend")
	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("artifact not installed: %v", err)
	}
	if string(data) != "binary" {
		t.Errorf("installed artifact content mismatch: %q", data)
	}
	if launched != 1 {
		t.Errorf("expected 1 launch, got %d", launched)
	}
}

/**
 * Test SSH deployer transfers the artifact then activates remotely
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Records the external commands instead of executing them
 * - Verifies scp happens before ssh and both address user@host
 */
func TestSSHDeployerCommands(t *testing.T) {
	var commands []string
	d := &SSHDeployer{
		target: config.TargetConfig{
			Type: "ssh",
			Host: "10.0.0.5",
			User: "deploy",
			Path: "/opt/predict-backend",
		},
		runner: func(ctx context.Context, name string, args ...string) error {
			commands = append(commands, name+" "+strings.Join(args, " "))
			return nil
		},
	}

	if err := d.Deploy(context.Background(), "dist/predict-backend"); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %v", commands)
	}
	if !strings.HasPrefix(commands[0], "scp dist/predict-backend deploy@10.0.0.5:/opt/predict-backend") {
		t.Errorf("unexpected transfer command: %s", commands[0])
	}
	if !strings.HasPrefix(commands[1], "ssh deploy@10.0.0.5") {
		t.Errorf("unexpected activation command: %s", commands[1])
	}
	if !strings.Contains(commands[1], "restart.sh") {
		t.Errorf("expected default activation script, got: %s", commands[1])
	}
}

/**
 * Test deployer factory rejects an ssh target without host
 * @param {*testing.T} t - Testing framework instance
 */
func TestNewDeployerValidation(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{}}})

	if _, err := NewDeployer(config.DeployConfig{Target: config.TargetConfig{Type: "ssh"}}, lc); err == nil {
		t.Error("expected error for ssh target without host")
	}
	if _, err := NewDeployer(config.DeployConfig{Target: config.TargetConfig{Type: "ftp"}}, lc); err == nil {
		t.Error("expected error for unknown target type")
	}
	if _, err := NewDeployer(config.DeployConfig{}, lc); err != nil {
		t.Errorf("empty target type must default to local, got %v", err)
	}
}
