// Package portfolio indexes the portfolio catalogue and finds the entries
// closest to a job's required skills.
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spigell/cold-mailer/internal/vectorstore"
	"go.uber.org/zap"
)

const (
	// MaxMatches is the number of links returned per job.
	MaxMatches = 2

	linkKey = "links"
)

// Collection is the part of the vector index the store relies on.
type Collection interface {
	Count(ctx context.Context) (int, error)
	Add(ctx context.Context, docs []vectorstore.Document) error
	Query(ctx context.Context, text string, n int) ([]vectorstore.Result, error)
}

type Store struct {
	collection Collection
	entries    []Entry
	logger     *zap.Logger
}

func New(collection Collection, entries []Entry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		collection: collection,
		entries:    entries,
		logger:     logger,
	}
}

func (s *Store) Entries() []Entry {
	return s.entries
}

// EnsureLoaded indexes the catalogue when the collection is empty and is a
// no-op otherwise. It returns the number of documents added.
func (s *Store) EnsureLoaded(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking portfolio index: %w", err)
	}

	if count > 0 {
		s.logger.Debug("portfolio already indexed", zap.Int("documents", count))
		return 0, nil
	}

	docs := make([]vectorstore.Document, 0, len(s.entries))
	for _, entry := range s.entries {
		docs = append(docs, vectorstore.Document{
			ID:       uuid.NewString(),
			Content:  entry.TechStack,
			Metadata: map[string]string{linkKey: entry.Link},
		})
	}

	if err := s.collection.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("indexing portfolio: %w", err)
	}

	s.logger.Info("portfolio indexed", zap.Int("documents", len(docs)))
	return len(docs), nil
}

// Match returns the links of the entries nearest to skills, nearest first.
//
// Match never fails: with no skills, an empty index or a query error it
// returns an empty slice and the email is drafted without portfolio links.
// Query errors are logged as warnings.
func (s *Store) Match(ctx context.Context, skills []string) []string {
	query := joinSkills(skills)
	if query == "" {
		return []string{}
	}

	results, err := s.collection.Query(ctx, query, MaxMatches)
	if err != nil {
		s.logger.Warn("portfolio match failed, continuing without links",
			zap.Strings("skills", skills),
			zap.Error(err),
		)
		return []string{}
	}

	links := make([]string, 0, len(results))
	for _, r := range results {
		if link := strings.TrimSpace(r.Metadata[linkKey]); link != "" {
			links = append(links, link)
		}
	}

	s.logger.Debug("portfolio matched",
		zap.String("query", query),
		zap.Strings("links", links),
	)

	return links
}

func joinSkills(skills []string) string {
	parts := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			parts = append(parts, skill)
		}
	}
	return strings.Join(parts, ", ")
}
