package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deploy-keeper/internal/models"
)

/**
 * Test health poll succeeds on first attempt
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Mock server returns 200 immediately
 * - Verifies Healthy outcome with exactly one request and no sleep
 */
func TestPollHealthyFirstAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hc := NewHealthChecker(time.Second)
	sleeps := 0
	hc.sleep = func(time.Duration) { sleeps++ }

	res := hc.Poll(context.Background(), server.URL, 5, time.Second)
	if res.Outcome != models.Healthy {
		t.Fatalf("expected healthy, got %s (%s)", res.Outcome, res.Reason)
	}
	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", res.Attempts)
	}
	if sleeps != 0 {
		t.Errorf("expected no sleep before first success, got %d", sleeps)
	}
}

/**
 * Test health poll short-circuits once the endpoint recovers
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Mock server fails twice then returns 200 on the third request
 * - Verifies success is reported after 3 attempts with 2 interval sleeps
 * - Verifies no further requests are sent after the first 200
 */
func TestPollRecoversWithinBudget(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hc := NewHealthChecker(time.Second)
	sleeps := 0
	hc.sleep = func(time.Duration) { sleeps++ }

	res := hc.Poll(context.Background(), server.URL, 5, time.Second)
	if res.Outcome != models.Healthy {
		t.Fatalf("expected healthy, got %s (%s)", res.Outcome, res.Reason)
	}
	if res.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", res.Attempts)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
	if sleeps != 2 {
		t.Errorf("expected 2 sleeps, got %d", sleeps)
	}
}

/**
 * Test health poll gives up after the attempt budget
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Mock server always returns 500
 * - Verifies Unhealthy outcome after exactly maxAttempts requests
 * - Verifies total sleeps are bounded by (maxAttempts-1)
 */
func TestPollBudgetExhausted(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hc := NewHealthChecker(time.Second)
	sleeps := 0
	hc.sleep = func(time.Duration) { sleeps++ }

	res := hc.Poll(context.Background(), server.URL, 4, time.Second)
	if res.Outcome != models.Unhealthy {
		t.Fatalf("expected unhealthy, got %s", res.Outcome)
	}
	if requests != 4 {
		t.Errorf("expected 4 requests, got %d", requests)
	}
	if sleeps != 3 {
		t.Errorf("expected 3 sleeps, got %d", sleeps)
	}
	if res.Reason == "" {
		t.Error("expected failure reason to carry the last error")
	}
}

/**
 * Test non-200 success statuses are not treated as healthy
 * @param {*testing.T} t - Testing framework instance
 */
func TestPollOnlyStatus200IsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	hc := NewHealthChecker(time.Second)
	hc.sleep = func(time.Duration) {}

	res := hc.Poll(context.Background(), server.URL, 2, time.Millisecond)
	if res.Outcome != models.Unhealthy {
		t.Fatalf("expected unhealthy for status 202, got %s", res.Outcome)
	}
}

/**
 * Test poll stops early when context is canceled
 * @param {*testing.T} t - Testing framework instance
 */
func TestPollContextCanceled(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	hc := NewHealthChecker(time.Second)
	hc.sleep = func(time.Duration) { cancel() }

	res := hc.Poll(ctx, server.URL, 10, time.Millisecond)
	if res.Outcome != models.Unhealthy {
		t.Fatalf("expected unhealthy, got %s", res.Outcome)
	}
	if requests >= 10 {
		t.Errorf("expected early exit after cancel, got %d requests", requests)
	}
}
