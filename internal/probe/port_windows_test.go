//go:build windows

package probe

import "testing"

/**
 * Test netstat output parsing dedupes IPv4/IPv6 rows of one process
 * @param {*testing.T} t - Testing framework instance
 */
func TestParseNetstat(t *testing.T) {
	out := []byte(`
  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:8001           0.0.0.0:0              LISTENING       4242
  TCP    127.0.0.1:8999         0.0.0.0:0              LISTENING       77
  TCP    [::]:8001              [::]:0                 LISTENING       4242
  TCP    10.0.0.2:8001          10.0.0.9:51000         ESTABLISHED     4242
`)
	pids := parseNetstat(out, 8001)
	if len(pids) != 1 || pids[0] != "4242" {
		t.Errorf("unexpected pids: %v", pids)
	}

	if pids := parseNetstat(out, 9000); len(pids) != 0 {
		t.Errorf("expected no pids for unused port, got %v", pids)
	}
}
