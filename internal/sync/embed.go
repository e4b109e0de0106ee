package sync

import (
	"context"
	"time"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/types"
)

// embedCooldown is applied to a span after a failed embed attempt, the same
// shape as the enrichment engine's per-attempt cooldown but on its own much
// shorter scale: embedding failures are almost always transient (a model
// endpoint hiccup), not a structural problem with the span.
const embedCooldown = 15 * time.Second

// drainEmbedQueue pulls up to limit pending EMBED work items, batches them
// through the configured embedding engine, and writes the resulting vectors.
// A batch failure (e.g. the backend is unreachable) cools every item in the
// batch down rather than spinning on it every cycle.
func (c *Controller) drainEmbedQueue(ctx context.Context, limit int) (int, error) {
	log := logging.For(logging.CategoryEmbedding)

	items, err := c.Store.Pending(types.WorkEmbed, limit, embedCooldown)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	var resolvedItems []types.WorkItem
	var texts []string
	for _, item := range items {
		span, err := c.Store.GetSpan(item.SpanHash)
		if err != nil {
			log.Warnw("pending embed item references missing span", "span_hash", item.SpanHash, "err", err)
			continue
		}
		resolvedItems = append(resolvedItems, item)
		texts = append(texts, span.Content)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := c.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		cooldown := time.Now().Add(embedCooldown)
		for _, item := range resolvedItems {
			_ = c.Store.RecordAttempt(item.ID, cooldown)
		}
		return 0, err
	}

	done := 0
	for i, item := range resolvedItems {
		if i >= len(vectors) {
			break
		}
		if err := c.Store.WriteEmbedding(types.Embedding{
			SpanHash: item.SpanHash, ModelID: c.Embedder.Name(), Vector: vectors[i],
		}); err != nil {
			log.Warnw("failed to write embedding", "span_hash", item.SpanHash, "err", err)
			_ = c.Store.RecordAttempt(item.ID, time.Now().Add(embedCooldown))
			continue
		}
		_ = c.Store.CompleteWorkItem(item.ID)
		done++
	}
	return done, nil
}
