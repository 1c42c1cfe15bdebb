package providers

import "context"

// SuggestionProvider completes partial queries from a search index
type SuggestionProvider interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}
