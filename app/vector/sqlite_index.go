package vector

import (
	"container/heap"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"aiflash/app/database"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Index = (*SQLiteIndex)(nil)

type entry struct {
	doc       Document
	embedding []float32
}

// SQLiteIndex is a brute-force cosine similarity index. Vectors are
// normalized on insert, persisted as float32 blobs and kept in memory
// for search. Suitable for collections up to the tens of thousands.
type SQLiteIndex struct {
	db      *database.DB
	mu      sync.RWMutex
	entries map[string]entry
}

func NewSQLiteIndex(db *database.DB) (*SQLiteIndex, error) {
	idx := &SQLiteIndex{
		db:      db,
		entries: make(map[string]entry),
	}

	if err := idx.load(); err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	slog.Debug("Vector index loaded", "documents", len(idx.entries))

	return idx, nil
}

func (s *SQLiteIndex) load() error {
	rows, err := s.db.Query("SELECT content_id, document, embedding FROM vectors")
	if err != nil {
		return fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, docJSON string
		var blob []byte
		if err := rows.Scan(&id, &docJSON, &blob); err != nil {
			return fmt.Errorf("failed to scan vector row: %w", err)
		}

		var doc Document
		if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
			slog.Warn("Skipping vector row with invalid document", "content_id", id, "error", err)
			continue
		}

		s.entries[id] = entry{doc: doc, embedding: decodeVector(blob)}
	}

	return rows.Err()
}

func (s *SQLiteIndex) Upsert(ctx context.Context, doc Document, embedding []float32) error {
	if doc.ContentID == "" {
		return fmt.Errorf("document has no content id")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("document has no embedding")
	}

	normalized := normalize(embedding)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vectors (content_id, document, embedding, published_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (content_id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			published_at = excluded.published_at
	`, doc.ContentID, string(docJSON), encodeVector(normalized), doc.PublishedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to persist vector: %w", err)
	}

	s.mu.Lock()
	s.entries[doc.ContentID] = entry{doc: doc, embedding: normalized}
	s.mu.Unlock()

	return nil
}

func (s *SQLiteIndex) Search(ctx context.Context, query []float32, topK int, since time.Time) ([]Hit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if topK <= 0 {
		return nil, nil
	}

	normalized := normalize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	h := &hitHeap{}
	heap.Init(h)

	for _, e := range s.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !since.IsZero() && e.doc.PublishedAt.Before(since) {
			continue
		}
		if len(e.embedding) != len(normalized) {
			continue
		}

		score := dot(normalized, e.embedding)
		if h.Len() < topK {
			heap.Push(h, Hit{Document: e.doc, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = Hit{Document: e.doc, Score: score}
			heap.Fix(h, 0)
		}
	}

	hits := make([]Hit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(Hit)
	}

	return hits, nil
}

func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vectors WHERE content_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()

	return nil
}

func (s *SQLiteIndex) IDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]bool, len(s.entries))
	for id := range s.entries {
		ids[id] = true
	}

	return ids
}

func (s *SQLiteIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// hitHeap is a min-heap on score so the weakest of the current top K
// sits at the root.
type hitHeap []Hit

func (h hitHeap) Len() int            { return len(h) }
func (h hitHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h hitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x interface{}) { *h = append(*h, x.(Hit)) }
func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out
}

// dot over unit vectors equals cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
