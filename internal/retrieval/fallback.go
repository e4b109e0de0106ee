package retrieval

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/llmc/ragcore/internal/logging"
)

// localFallbackTimeout bounds a single ripgrep invocation so a query never
// hangs the boundary on a huge or network-mounted repository.
const localFallbackTimeout = 10 * time.Second

// localFallbackLineLimit is the default cap on matched lines when a query
// doesn't specify Limit, keeping a LOCAL_FALLBACK response cheap to render.
const localFallbackLineLimit = 50

// localFallbackScan runs a live ripgrep search over repoRoot when the index
// is stale or missing, returning raw matches with no graph enrichment
// (spec's LOCAL_FALLBACK: "returns raw matches without graph enrichment").
func localFallbackScan(ctx context.Context, repoRoot string, q Query) ([]Item, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = localFallbackLineLimit
	}

	ctx, cancel := context.WithTimeout(ctx, localFallbackTimeout)
	defer cancel()

	args := []string{
		"--line-number", "--no-heading", "--with-filename", "--color=never",
		"-i", "-m", strconv.Itoa(limit),
	}
	for _, pattern := range []string{".git", "node_modules", "vendor", "dist", "build", "__pycache__"} {
		args = append(args, "-g", "!"+pattern)
	}
	if q.Path != "" {
		args = append(args, "-g", q.Path)
	}
	args = append(args, regexp.QuoteMeta(q.Text), repoRoot)

	cmd := exec.CommandContext(ctx, "rg", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil // no matches, not an error
		}
		logging.For(logging.CategoryRetrieval).Warnw("local fallback scan failed", "err", err)
		return nil, fmt.Errorf("local fallback scan failed: %w", err)
	}

	return parseRipgrepMatches(string(out), limit), nil
}

// parseRipgrepMatches parses "file:line:content" lines into Items. Scores
// are left at zero: ranking raw grep hits would imply a precision the scan
// doesn't have.
func parseRipgrepMatches(output string, limit int) []Item {
	var items []Item
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() && len(items) < limit {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNum, _ := strconv.Atoi(parts[1])
		items = append(items, Item{
			Path:      parts[0],
			StartLine: lineNum,
			EndLine:   lineNum,
			Summary:   strings.TrimSpace(parts[2]),
		})
	}
	return items
}
