package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"testing"
	"time"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/env"
	"deploy-keeper/internal/models"
)

// fakeProbe 按预设顺序返回探测结果，最后一个结果保持不变
type fakeProbe struct {
	results [][]string
	calls   int
}

func (p *fakeProbe) Find(ctx context.Context) ([]string, error) {
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx], nil
}

func testServiceConfig(port int, host string) config.ServiceConfig {
	return config.ServiceConfig{
		Name:    "predict-backend",
		Command: "predict-backend",
		Binding: models.Binding{Port: port},
		Host:    host,
		Health: config.HealthConfig{
			Path:           "/health",
			MaxAttempts:    3,
			Interval:       time.Millisecond,
			RequestTimeout: time.Second,
		},
		Escalation: []config.EscalationStep{
			{Signal: "SIGTERM", Wait: 5 * time.Second},
			{Signal: "SIGKILL", Wait: 2 * time.Second},
		},
	}
}

func newTestController(t *testing.T, cfg config.ServiceConfig, probe *fakeProbe) *LifecycleController {
	t.Helper()
	env.KeeperDir = t.TempDir()

	lc, err := NewLifecycleController(cfg)
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	lc.probe = probe
	lc.sleep = func(time.Duration) {}
	return lc
}

// healthServer 返回一个健康端点及其host和端口
func healthServer(t *testing.T, status int) (*httptest.Server, string, int) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("failed to split host port: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return server, host, port
}

/**
 * Test starting on an occupied binding without replace is rejected
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Probe reports an existing listener on the binding
 * - Verifies ErrAlreadyRunning and that no launch is attempted
 */
func TestStartAlreadyRunning(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{"4242"}}})

	launched := false
	lc.launch = func(ctx context.Context) (string, error) {
		launched = true
		return "1", nil
	}

	_, err := lc.Start(context.Background(), false)
	if !errors.Is(err, models.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if launched {
		t.Error("launch must not run while the binding is occupied")
	}
}

/**
 * Test successful start confirms health and reports running
 * @param {*testing.T} t - Testing framework instance
 */
func TestStartConfirmsHealth(t *testing.T) {
	server, host, port := healthServer(t, http.StatusOK)
	defer server.Close()

	lc := newTestController(t, testServiceConfig(port, host), &fakeProbe{results: [][]string{{}}})
	lc.launch = func(ctx context.Context) (string, error) { return "4242", nil }

	state, err := lc.Start(context.Background(), false)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state.Status != models.StatusRunning {
		t.Errorf("expected running, got %s", state.Status)
	}
	if state.ID != "4242" {
		t.Errorf("expected instance id 4242, got %s", state.ID)
	}
}

/**
 * Test start reports unconfirmed when health budget is exhausted
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Health endpoint keeps failing after launch
 * - Verifies ErrStartUnconfirmed with the instance left in starting state
 */
func TestStartUnconfirmed(t *testing.T) {
	server, host, port := healthServer(t, http.StatusInternalServerError)
	defer server.Close()

	lc := newTestController(t, testServiceConfig(port, host), &fakeProbe{results: [][]string{{}}})
	lc.launch = func(ctx context.Context) (string, error) { return "4242", nil }
	lc.checker.sleep = func(time.Duration) {}

	state, err := lc.Start(context.Background(), false)
	if !errors.Is(err, models.ErrStartUnconfirmed) {
		t.Fatalf("expected ErrStartUnconfirmed, got %v", err)
	}
	if state == nil || state.Status != models.StatusStarting {
		t.Errorf("expected instance left in starting state, got %+v", state)
	}
}

/**
 * Test stopping a free binding is an idempotent no-op
 * @param {*testing.T} t - Testing framework instance
 */
func TestStopAbsentIsNoop(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{}}})

	terminated := 0
	lc.terminate = func(ctx context.Context, id, signal string) error {
		terminated++
		return nil
	}

	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("stop on free binding must succeed, got %v", err)
	}
	if terminated != 0 {
		t.Errorf("expected no signals sent, got %d", terminated)
	}
}

/**
 * Test stop escalates from graceful to forced termination
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Instance survives SIGTERM, disappears after SIGKILL
 * - Verifies signals are sent in ladder order
 */
func TestStopEscalation(t *testing.T) {
	probe := &fakeProbe{results: [][]string{
		{"4242"}, // initial probe
		{"4242"}, // survives SIGTERM
		{},       // gone after SIGKILL
	}}
	lc := newTestController(t, testServiceConfig(8001, "localhost"), probe)

	var signals []string
	lc.terminate = func(ctx context.Context, id, signal string) error {
		signals = append(signals, signal)
		return nil
	}

	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(signals) != 2 || signals[0] != "SIGTERM" || signals[1] != "SIGKILL" {
		t.Errorf("expected [SIGTERM SIGKILL], got %v", signals)
	}
}

/**
 * Test stop reports failure when the ladder is exhausted
 * @param {*testing.T} t - Testing framework instance
 */
func TestStopFailed(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{"4242"}}})
	lc.terminate = func(ctx context.Context, id, signal string) error { return nil }

	err := lc.Stop(context.Background())
	if !errors.Is(err, models.ErrStopFailed) {
		t.Fatalf("expected ErrStopFailed, got %v", err)
	}
}

/**
 * Test restart aborts when the old instance cannot be stopped
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Old instance survives the whole escalation ladder
 * - Verifies no new instance is launched on top of the occupied binding
 */
func TestRestartAbortsOnStopFailure(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{"4242"}}})
	lc.terminate = func(ctx context.Context, id, signal string) error { return nil }

	launched := false
	lc.launch = func(ctx context.Context) (string, error) {
		launched = true
		return "1", nil
	}

	_, err := lc.Restart(context.Background())
	if !errors.Is(err, models.ErrStopFailed) {
		t.Fatalf("expected ErrStopFailed, got %v", err)
	}
	if launched {
		t.Error("restart must not launch while the binding is occupied")
	}
}

/**
 * Test replace stops the old instance before launching the new one
 * @param {*testing.T} t - Testing framework instance
 */
func TestStartWithReplace(t *testing.T) {
	server, host, port := healthServer(t, http.StatusOK)
	defer server.Close()

	probe := &fakeProbe{results: [][]string{
		{"1111"}, // occupied at start
		{"1111"}, // still occupied at stop entry
		{},       // released after SIGTERM
	}}
	lc := newTestController(t, testServiceConfig(port, host), probe)

	var signals []string
	lc.terminate = func(ctx context.Context, id, signal string) error {
		signals = append(signals, signal)
		return nil
	}
	lc.launch = func(ctx context.Context) (string, error) { return "2222", nil }

	state, err := lc.Start(context.Background(), true)
	if err != nil {
		t.Fatalf("start with replace failed: %v", err)
	}
	if len(signals) == 0 {
		t.Error("expected the old instance to be signaled first")
	}
	if state.ID != "2222" {
		t.Errorf("expected new instance id 2222, got %s", state.ID)
	}
}

/**
 * Test status reports absent when the binding is free
 * @param {*testing.T} t - Testing framework instance
 */
func TestStatusAbsent(t *testing.T) {
	lc := newTestController(t, testServiceConfig(8001, "localhost"), &fakeProbe{results: [][]string{{}}})

	detail, err := lc.Status(context.Background())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if detail.Status != models.StatusAbsent {
		t.Errorf("expected absent, got %s", detail.Status)
	}
	if detail.Healthy {
		t.Error("absent instance must not be reported healthy")
	}
}

/**
 * Test a successful restart binds exactly one new instance
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Old instance releases the binding on SIGTERM, then the new one launches
 * - Verifies the post-restart instance id differs from the pre-restart id
 * - Verifies launch happens only once, after the binding was released
 */
func TestRestartReplacesInstance(t *testing.T) {
	server, host, port := healthServer(t, http.StatusOK)
	defer server.Close()

	probe := &fakeProbe{results: [][]string{
		{"1111"}, // stop: old instance holds the binding
		{},       // released after SIGTERM
		{},       // start: binding free
	}}
	lc := newTestController(t, testServiceConfig(port, host), probe)

	var signals []string
	lc.terminate = func(ctx context.Context, id, signal string) error {
		if id != "1111" {
			t.Errorf("expected signal for old instance 1111, got %s", id)
		}
		signals = append(signals, signal)
		return nil
	}
	launches := 0
	lc.launch = func(ctx context.Context) (string, error) {
		launches++
		return "2222", nil
	}

	state, err := lc.Restart(context.Background())
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if state.Status != models.StatusRunning {
		t.Errorf("expected running, got %s", state.Status)
	}
	if state.ID == "1111" {
		t.Error("post-restart instance must not keep the old identifier")
	}
	if state.ID != "2222" {
		t.Errorf("expected new instance id 2222, got %s", state.ID)
	}
	if launches != 1 {
		t.Errorf("expected exactly one launch, got %d", launches)
	}
	if len(signals) != 1 || signals[0] != "SIGTERM" {
		t.Errorf("expected a single SIGTERM, got %v", signals)
	}
}

func countOpenFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Fatalf("failed to read fd table: %v", err)
	}
	return len(entries)
}

/**
 * Test launching does not leak the service log descriptor
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Spawns many short-lived instances and compares the process fd count
 * - The parent must close its copy of the log file after each spawn
 */
func TestLaunchClosesServiceLog(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("fd accounting relies on /proc")
	}
	cfg := testServiceConfig(8001, "localhost")
	cfg.Command = "true"
	cfg.Args = nil
	lc := newTestController(t, cfg, &fakeProbe{results: [][]string{{}}})

	before := countOpenFDs(t)
	for i := 0; i < 20; i++ {
		if _, err := lc.launchInstance(context.Background()); err != nil {
			t.Fatalf("launch failed: %v", err)
		}
	}
	after := countOpenFDs(t)
	if after > before+3 {
		t.Errorf("descriptor count grew from %d to %d across launches", before, after)
	}
}
