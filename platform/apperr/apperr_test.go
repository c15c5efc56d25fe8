package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Gone("x"), http.StatusGone},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{Upstream("x", errors.New("boom")), http.StatusBadGateway},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestGetKindSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("redeem: %w", Gone("expired"))
	if !Is(err, KindGone) {
		t.Fatalf("expected KindGone, got %d", GetKind(err))
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for plain errors")
	}
}

func TestWrappedCauseStaysOutOfMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Upstream("provider unavailable", cause)

	if err.Message != "provider unavailable" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "provider unavailable: dial tcp: connection refused" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
