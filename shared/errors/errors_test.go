package errors

import (
	"net/http"
	"testing"
)

func TestToStatusCode(t *testing.T) {
	cases := map[string]int{
		"not_found":   http.StatusNotFound,
		"bad_request": http.StatusBadRequest,
		"unavailable": http.StatusServiceUnavailable,
		"whatever":    http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToStatusCode(code); got != want {
			t.Fatalf("ToStatusCode(%q) = %d, want %d", code, got, want)
		}
	}
}

func TestCodeForStatus(t *testing.T) {
	if got := CodeForStatus(http.StatusBadRequest); got != "bad_request" {
		t.Fatalf("unexpected code %q", got)
	}
	if got := CodeForStatus(http.StatusNotFound); got != "not_found" {
		t.Fatalf("unexpected code %q", got)
	}
}
