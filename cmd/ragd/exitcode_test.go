package main

import (
	"errors"
	"testing"

	"github.com/llmc/ragcore/internal/ragerr"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"config error", ragerr.Config("bad config", nil), 2},
		{"path traversal", ragerr.PathTraversal("escapes repo root"), 2},
		{"not found", ragerr.NotFound("no such symbol"), 2},
		{"budget exceeded", ragerr.BudgetExceeded("daily cap reached"), 2},
		{"index unavailable", ragerr.IndexUnavailable("no index yet"), 2},
		{"store error", ragerr.Store("disk full", nil), 1},
		{"internal", ragerr.Internal("unexpected", nil), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
