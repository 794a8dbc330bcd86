package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("ok", stubChecker{err: nil})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	manager.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != StatusHealthy {
		t.Fatalf("expected healthy status, got %s", resp.Status)
	}

	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}

	if resp.Checks["ok"] != StatusHealthy {
		t.Fatalf("expected ok check to be healthy, got %s", resp.Checks["ok"])
	}
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("db", CheckerFunc(func(context.Context) error { return errors.New("down") }))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	manager.HealthHandler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp struct {
		Success bool                   `json:"success"`
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Success {
		t.Fatal("expected success=false")
	}
	if resp.Code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected SERVICE_UNAVAILABLE error code, got %s", resp.Code)
	}

	checks, ok := resp.Details["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks in error details")
	}

	if status, ok := checks["db"].(string); !ok || status != StatusUnhealthy {
		t.Fatalf("expected db check to be unhealthy, got %v", checks["db"])
	}
}

func TestProbeHandlersWithoutCheckers(t *testing.T) {
	manager := NewHealthManager("dev")

	for name, handler := range map[string]http.HandlerFunc{
		"live":    manager.LivenessHandler,
		"ready":   manager.ReadinessHandler,
		"startup": manager.StartupHandler,
	} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/health/"+name, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", name, rec.Code)
		}

		var resp ProbeResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: failed to decode response: %v", name, err)
		}
		if resp.Status != StatusHealthy {
			t.Fatalf("%s: expected healthy, got %s", name, resp.Status)
		}
	}
}

func TestCancelledContextMarksChecksAsTimeout(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("db", stubChecker{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checks, status := manager.Check(ctx)
	if checks["db"] != StatusTimeout {
		t.Fatalf("expected timeout, got %s", checks["db"])
	}
	if status != StatusDegraded {
		t.Fatalf("expected degraded status, got %s", status)
	}
}

func TestDetermineOverallStatusTreatsTimeoutAsDegraded(t *testing.T) {
	status := determineOverallStatus(map[string]string{
		"db": StatusTimeout,
	})

	if status != StatusDegraded {
		t.Fatalf("expected degraded status, got %s", status)
	}
}
