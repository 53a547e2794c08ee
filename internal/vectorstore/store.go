// Package vectorstore keeps a small persistent collection of embedded
// documents and answers nearest-neighbour queries over it.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const (
	DefaultDir        = "vectorstore"
	DefaultCollection = "portfolio"

	dataDir      = "chromem"
	manifestFile = "embedders.json"
	lockFile     = ".lock"

	addConcurrency = 1
)

var (
	// ErrLocked is returned when another process holds the index directory.
	ErrLocked = errors.New("vector store is locked by another process")
	// ErrEmbedderMismatch is returned when a collection is reopened with a
	// different embedder than the one that indexed it.
	ErrEmbedderMismatch = errors.New("collection was indexed with a different embedder")
)

// Embedder turns texts into vectors. Implementations must return one vector
// per input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

type Result struct {
	Document
	Score float64
}

type Options struct {
	Dir        string
	Collection string
	Embedder   Embedder
	Logger     *zap.Logger
}

// Collection is a named set of documents inside a store directory.
type Collection struct {
	coll     *chromem.Collection
	lock     *flock.Flock
	name     string
	embedder Embedder
	logger   *zap.Logger
}

// Open locks the store directory, loads the persisted index and gets or
// creates the collection. The caller must Close the collection to release
// the lock.
func Open(ctx context.Context, opts Options) (*Collection, error) {
	if opts.Embedder == nil {
		return nil, errors.New("embedder is required")
	}

	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = DefaultDir
	}

	name := strings.TrimSpace(opts.Collection)
	if name == "" {
		name = DefaultCollection
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir %q: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store dir %q: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	if err := register(filepath.Join(dir, manifestFile), name, opts.Embedder.Name()); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, dataDir), false)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening index in %q: %w", dir, err)
	}

	coll, err := db.GetOrCreateCollection(name, map[string]string{"embedder": opts.Embedder.Name()}, embeddingFunc(opts.Embedder))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}

	return &Collection{
		coll:     coll,
		lock:     lock,
		name:     name,
		embedder: opts.Embedder,
		logger:   logger.With(zap.String("collection", name), zap.String("embedder", opts.Embedder.Name())),
	}, nil
}

// register records which embedder a collection was created with. The index
// does not persist embedding functions, so the manifest keeps that pairing.
func register(path, collection, embedder string) error {
	manifest := map[string]string{}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	if existing, ok := manifest[collection]; ok {
		if existing != embedder {
			return fmt.Errorf("%w: %s uses %q, got %q", ErrEmbedderMismatch, collection, existing, embedder)
		}
		return nil
	}

	manifest[collection] = embedder
	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func embeddingFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one text", len(vectors))
		}
		return vectors[0], nil
	}
}

func (c *Collection) Name() string {
	return c.name
}

// Count returns the number of documents in the collection.
func (c *Collection) Count(_ context.Context) (int, error) {
	return c.coll.Count(), nil
}

// Add embeds the documents in one batch and stores them. A document whose id
// is already present replaces the stored one.
func (c *Collection) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			return fmt.Errorf("document %d has an empty id", i)
		}
		texts[i] = doc.Content
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	batch := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		batch[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  metadata,
			Embedding: vectors[i],
		}
	}

	if err := c.coll.AddDocuments(ctx, batch, addConcurrency); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	c.logger.Debug("documents added", zap.Int("count", len(docs)))
	return nil
}

// Query returns up to n documents ordered by descending cosine similarity to
// text.
func (c *Collection) Query(ctx context.Context, text string, n int) ([]Result, error) {
	count := c.coll.Count()
	if n <= 0 || count == 0 {
		return []Result{}, nil
	}
	if n > count {
		n = count
	}

	found, err := c.coll.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.name, err)
	}

	results := make([]Result, 0, len(found))
	for _, r := range found {
		results = append(results, Result{
			Document: Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Score:    float64(r.Similarity),
		})
	}

	c.logger.Debug("query finished", zap.Int("results", len(results)))
	return results, nil
}

// Close releases the directory lock. The index writes through on every Add,
// so there is nothing to flush.
func (c *Collection) Close() error {
	if c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}
