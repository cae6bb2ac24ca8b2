// Package pagination computes bounded, cursor-addressed windows over a
// group's message log. Windows stay correct under concurrent inserts because
// cursors encode the ordering key of a message, never its position: a cursor
// issued before an insert still seeks to the same comparison point after it.
package pagination

import (
	"fmt"

	"chat-graph/contract"
	"chat-graph/domain"
	"chat-graph/errors"

	"github.com/samber/lo"
)

// DefaultPageSize applies when neither First nor Last is given.
const DefaultPageSize = 20

// Paginate resolves a connection query over the group's messages, ordered
// (CreatedAt DESC, ID DESC). Exactly one of First/After or Last/Before may
// drive the window; one extra row is fetched to settle the page-info flag on
// the open side of the window.
func Paginate(store contract.MessageStore, groupID string, page domain.PageArgs) (domain.MessageConnection, error) {
	if err := validate(page); err != nil {
		return domain.MessageConnection{}, err
	}
	if page.Last != nil || page.Before != nil {
		return backward(store, groupID, page)
	}
	return forward(store, groupID, page)
}

// validate rejects conflicting or malformed arguments before any storage
// access happens.
func validate(page domain.PageArgs) error {
	if page.First != nil && page.Last != nil {
		return fmt.Errorf("%w: first and last are mutually exclusive", errors.ErrValidation)
	}
	if page.First != nil && *page.First < 0 {
		return fmt.Errorf("%w: first must not be negative", errors.ErrValidation)
	}
	if page.Last != nil && *page.Last < 0 {
		return fmt.Errorf("%w: last must not be negative", errors.ErrValidation)
	}
	if page.After != nil && page.Before != nil {
		return fmt.Errorf("%w: after and before are mutually exclusive", errors.ErrValidation)
	}
	if page.First != nil && page.Before != nil {
		return fmt.Errorf("%w: first paginates forward, use it with after", errors.ErrValidation)
	}
	if page.Last != nil && page.After != nil {
		return fmt.Errorf("%w: last paginates backward, use it with before", errors.ErrValidation)
	}
	if page.After != nil {
		if _, _, err := page.After.Decode(); err != nil {
			return err
		}
	}
	if page.Before != nil {
		if _, _, err := page.Before.Decode(); err != nil {
			return err
		}
	}
	return nil
}

func forward(store contract.MessageStore, groupID string, page domain.PageArgs) (domain.MessageConnection, error) {
	size := lo.FromPtrOr(page.First, DefaultPageSize)
	messages, err := store.ListBefore(groupID, page.After, size+1)
	if err != nil {
		return domain.MessageConnection{}, err
	}

	hasNext := len(messages) > size
	if hasNext {
		messages = messages[:size]
	}
	return domain.MessageConnection{
		Edges: edges(messages),
		PageInfo: domain.PageInfo{
			HasNextPage: hasNext,
			// A consumed cursor means at least its own message precedes
			// the window.
			HasPreviousPage: page.After != nil,
		},
	}, nil
}

func backward(store contract.MessageStore, groupID string, page domain.PageArgs) (domain.MessageConnection, error) {
	size := lo.FromPtrOr(page.Last, DefaultPageSize)
	messages, err := store.ListAfter(groupID, page.Before, size+1)
	if err != nil {
		return domain.MessageConnection{}, err
	}

	hasPrevious := len(messages) > size
	if hasPrevious {
		messages = messages[:size]
	}
	// ListAfter walks oldest first; the connection is newest first.
	messages = lo.Reverse(messages)
	return domain.MessageConnection{
		Edges: edges(messages),
		PageInfo: domain.PageInfo{
			HasNextPage:     page.Before != nil,
			HasPreviousPage: hasPrevious,
		},
	}, nil
}

func edges(messages []domain.Message) []domain.MessageEdge {
	return lo.Map(messages, func(m domain.Message, _ int) domain.MessageEdge {
		return domain.EdgeFor(m)
	})
}
