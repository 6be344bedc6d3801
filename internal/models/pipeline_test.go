package models

import "testing"

/**
 * Test branch extraction from webhook refs
 * @param {*testing.T} t - Testing framework instance
 */
func TestWebhookEventBranchName(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"refs/heads/master", "master"},
		{"refs/heads/feature/retry-fix", "feature/retry-fix"},
		{"refs/tags/v1.2.0", ""},
		{"", ""},
		{"refs/heads/", ""},
	}
	for _, tc := range cases {
		e := &WebhookEvent{Ref: tc.ref}
		if got := e.BranchName(); got != tc.want {
			t.Errorf("BranchName(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestBindingKindAndString(t *testing.T) {
	port := Binding{Port: 8001}
	if port.Kind() != BindingPort || port.String() != "port:8001" {
		t.Errorf("unexpected port binding: %s %s", port.Kind(), port)
	}

	ctr := Binding{Container: "predict-backend"}
	if ctr.Kind() != BindingContainer || ctr.String() != "container:predict-backend" {
		t.Errorf("unexpected container binding: %s %s", ctr.Kind(), ctr)
	}
}
