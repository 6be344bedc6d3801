package utils

import "testing"

/**
 * Test launch command template rendering
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Command and each argument are rendered against the same data
 * - Plain strings without template variables pass through unchanged
 */
func TestGetCommandLine(t *testing.T) {
	data := struct {
		Port int
		Name string
	}{Port: 8001, Name: "predict-backend"}

	command, args, err := GetCommandLine("/opt/{{.Name}}/bin/server",
		[]string{"--port", "{{.Port}}", "--quiet"}, data)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if command != "/opt/predict-backend/bin/server" {
		t.Errorf("unexpected command: %s", command)
	}
	if len(args) != 3 || args[0] != "--port" || args[1] != "8001" || args[2] != "--quiet" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestGetCommandLineBadTemplate(t *testing.T) {
	if _, _, err := GetCommandLine("{{.Port", nil, nil); err == nil {
		t.Error("expected error for unterminated template")
	}
	if _, _, err := GetCommandLine("server", []string{"{{.Port"}, nil); err == nil {
		t.Error("expected error for bad arg template")
	}
}
