package services

import (
	"context"
	"log/slog"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// SearchService runs owner-scoped course search.
type SearchService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates the search service.
func NewSearchService(st *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{store: st, logger: logger.With("component", "search_service")}
}

// Search matches the query against the user's finished courses and chapters
// and logs the search to the ledger. Queries shorter than two characters are
// rejected.
func (s *SearchService) Search(ctx context.Context, userID, query string) ([]store.SearchResult, error) {
	if len(query) < 2 {
		return nil, NewValidationError("query", "must be at least 2 characters")
	}
	results, err := s.store.Search.Search(ctx, userID, query, 20)
	if err != nil {
		return nil, err
	}
	if err := s.store.Usage.Log(ctx, &models.UsageEvent{
		UserID: userID, Action: models.ActionSearch, Details: query,
	}); err != nil {
		s.logger.Warn("failed to log search event", "error", err)
	}
	return results, nil
}
