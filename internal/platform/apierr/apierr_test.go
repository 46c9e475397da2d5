package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/summit-backend/internal/pkg/errors"
)

func TestFromMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("thread x: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("empty: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("continues: %w", pkgerrors.ErrConflict), http.StatusConflict, "conflict"},
		{pkgerrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{Forbidden(errors.New("nope")), http.StatusForbidden, "forbidden"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := From(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("From(%v) = %d/%s, want %d/%s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
	if msg := From(errors.New("pq: secret detail")).Error(); msg != "internal error" {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}
