package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("test message", errors.New("inner error"))

	if err.Error() != "validation: test message (inner error)" {
		t.Errorf("Expected 'validation: test message (inner error)', got '%s'", err.Error())
	}

	if err.Unwrap().Error() != "inner error" {
		t.Errorf("Expected 'inner error', got '%s'", err.Unwrap().Error())
	}
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("config issue", nil)

	if err.Error() != "config: config issue" {
		t.Errorf("Expected 'config: config issue', got '%s'", err.Error())
	}
}

func TestNetworkError(t *testing.T) {
	err := NewNetworkError("network issue", errors.New("connection failed"))

	if err.Error() != "network: network issue (connection failed)" {
		t.Errorf("Expected 'network: network issue (connection failed)', got '%s'", err.Error())
	}
}

func TestProcessingError(t *testing.T) {
	err := NewProcessingError("processing failed", nil)

	if err.Error() != "processing: processing failed" {
		t.Errorf("Expected 'processing: processing failed', got '%s'", err.Error())
	}
}

func TestBackendError(t *testing.T) {
	err := NewBackendError(404, "Crop 'rice' not found")

	if err.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", err.StatusCode)
	}
	if err.Error() != "backend: Crop 'rice' not found" {
		t.Errorf("Unexpected message '%s'", err.Error())
	}
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("assign crop: %w", NewNetworkError("dial", errors.New("refused")))

	if !IsType(wrapped, NetworkError) {
		t.Error("Expected wrapped network error to match")
	}
	if IsType(wrapped, BackendError) {
		t.Error("Expected wrapped network error not to match backend type")
	}
	if IsType(errors.New("plain"), NetworkError) {
		t.Error("Expected plain error not to match")
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", NewBackendError(500, "disk full"))

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("Expected AppError to be found")
	}
	if appErr.Message != "disk full" {
		t.Errorf("Expected 'disk full', got '%s'", appErr.Message)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("Expected plain error not to match")
	}
}
