package github

import (
	"context"
	"errors"
)

// DefaultMaxSubResourceItems caps sub-resources fetched fully within one step
const DefaultMaxSubResourceItems = 100

// Page is one page of a paginated listing
type Page[T any] struct {
	Items     []T
	HasMore   bool
	EndCursor string
}

// PageFunc fetches the page starting after cursor. An empty cursor is the first page.
type PageFunc[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// ErrMissingCursor is returned when a page reports more results but carries no
// cursor past the current one
var ErrMissingCursor = errors.New("page reports more results but no end cursor")

// FetchAll follows cursors until the listing is exhausted or limit items were
// collected. A limit of zero or less means no cap.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], limit int) ([]T, error) {
	var (
		items  []T
		cursor string
	)

	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if !page.HasMore {
			return items, nil
		}
		if page.EndCursor == "" || page.EndCursor == cursor {
			return nil, ErrMissingCursor
		}
		cursor = page.EndCursor
	}
}
