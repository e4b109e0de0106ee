package main

import "github.com/llmc/ragcore/internal/ragerr"

// exitCode maps an error to the CLI boundary's exit code contract: 0
// success, 2 user/policy/path error, 1 unexpected failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	re, ok := err.(*ragerr.Error)
	if !ok {
		return 1
	}
	switch re.Code {
	case ragerr.CodeConfig, ragerr.CodePathTraversal, ragerr.CodeNotFound,
		ragerr.CodeBudgetExceeded, ragerr.CodeIndexUnavailable:
		return 2
	default:
		return 1
	}
}
