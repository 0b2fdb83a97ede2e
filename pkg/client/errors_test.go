package client

import (
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{"unauthorized", http.StatusUnauthorized, ErrorClassAuth},
		{"forbidden", http.StatusForbidden, ErrorClassAuth},
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"too many requests", http.StatusTooManyRequests, ErrorClassClient},
		{"server error", http.StatusInternalServerError, ErrorClassServer},
		{"bad gateway", http.StatusBadGateway, ErrorClassServer},
		{"redirect", http.StatusFound, ErrorClassUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{
		StatusCode: 500,
		Body:       `{"error": "boom"}`,
		Page:       1,
		ErrorClass: ErrorClassServer,
	}

	expected := `API error on page 1: 500 - {"error": "boom"}`
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestUpstreamError_IsUnauthorized(t *testing.T) {
	if !(&UpstreamError{StatusCode: 401}).IsUnauthorized() {
		t.Error("401 should be unauthorized")
	}
	if (&UpstreamError{StatusCode: 403}).IsUnauthorized() {
		t.Error("403 should not count as unauthorized")
	}
}
