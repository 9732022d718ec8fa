package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSPreflightAllowsAnyOrigin(t *testing.T) {
	handler := newTestHandler(t)

	request := httptest.NewRequest(http.MethodOptions, "/api/create", http.NoBody)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	request.Header.Set("Access-Control-Request-Headers", "Content-Type")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}

	if recorder.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected any origin to be allowed, got %q", recorder.Header().Get("Access-Control-Allow-Origin"))
	}

	allowMethods := recorder.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allowMethods, http.MethodPut) {
		t.Fatalf("expected Access-Control-Allow-Methods to include PUT, got %q", allowMethods)
	}
}
