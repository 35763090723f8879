package memory

import (
	"context"
	"log/slog"

	"github.com/ensembleai/ensemble/pkg/core"
)

// LongTerm is the optional vector-indexed layer over the message store,
// used for retrieval-augmented action context. Backend failures degrade to
// "no retrieval": a round never aborts because the vector store is down.
type LongTerm struct {
	store      VectorStore
	embedder   Embedder
	collection string
	ready      bool
}

// NewLongTerm creates the long-term layer over a vector store and embedder.
func NewLongTerm(store VectorStore, embedder Embedder, collection string) *LongTerm {
	return &LongTerm{
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// Initialize ensures the collection exists, probing the embedder once for
// the vector dimension. A failure leaves the layer degraded but usable.
func (lt *LongTerm) Initialize(ctx context.Context) error {
	vec, err := lt.embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return err
	}
	if err := lt.store.CreateCollection(ctx, lt.collection, uint64(len(vec))); err != nil {
		// Creation races with an existing collection; a working search
		// means it is usable.
		if _, searchErr := lt.store.Search(ctx, lt.collection, vec, 1, 0); searchErr != nil {
			return err
		}
	}
	lt.ready = true
	return nil
}

// Index embeds the message content and inserts it into the vector index.
// Failures are logged and swallowed.
func (lt *LongTerm) Index(ctx context.Context, msg core.Message) {
	if !lt.ready {
		return
	}
	vector, err := lt.embedder.Embed(ctx, msg.Content)
	if err != nil {
		slog.WarnContext(ctx, "longterm.index.embed_failed",
			slog.String("message_id", msg.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	point := Point{
		ID:     msg.ID,
		Vector: vector,
		Payload: map[string]any{
			"content":   msg.Content,
			"role":      msg.Role,
			"cause_by":  msg.CauseBy,
			"timestamp": msg.Timestamp,
		},
	}
	if err := lt.store.Upsert(ctx, lt.collection, []Point{point}); err != nil {
		slog.WarnContext(ctx, "longterm.index.upsert_failed",
			slog.String("message_id", msg.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Recall returns up to k message contents nearest to the query, or nil
// when the layer is degraded or the backend fails.
func (lt *LongTerm) Recall(ctx context.Context, query string, k int) []string {
	if !lt.ready || k <= 0 {
		return nil
	}
	vector, err := lt.embedder.Embed(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "longterm.recall.embed_failed", slog.String("error", err.Error()))
		return nil
	}
	results, err := lt.store.Search(ctx, lt.collection, vector, k, 0.6)
	if err != nil {
		slog.WarnContext(ctx, "longterm.recall.search_failed", slog.String("error", err.Error()))
		return nil
	}
	var matches []string
	for _, r := range results {
		if content, ok := r.Point.Payload["content"].(string); ok {
			matches = append(matches, content)
		}
	}
	return matches
}
