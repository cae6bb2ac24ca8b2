package domain

import (
	"encoding/base64"
	"fmt"
	"time"

	"chat-graph/errors"
)

// Cursor is an opaque, order-preserving token addressing one message position.
// It encodes (CreatedAt, ID) zero-padded so that byte comparison of the
// decoded form equals comparison of the ordering key. Cursors are immutable
// once issued; later inserts never change what an issued cursor points at.
type Cursor string

// cursorFormat pads unix-nano timestamps and ids to a fixed width so
// lexicographic order matches numeric order.
const cursorFormat = "%019d:%019d"

func NewCursor(at time.Time, id int64) Cursor {
	raw := fmt.Sprintf(cursorFormat, at.UnixNano(), id)
	return Cursor(base64.RawURLEncoding.EncodeToString([]byte(raw)))
}

// CursorFor builds the cursor of a message from its own ordering key,
// never from its position in a slice.
func CursorFor(m Message) Cursor {
	return NewCursor(m.CreatedAt, m.ID)
}

// Decode returns the (CreatedAt unix-nano, ID) pair the cursor encodes.
// A malformed token is a validation failure, detected before any storage
// access.
func (c Cursor) Decode() (at int64, id int64, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed cursor: %v", errors.ErrValidation, err)
	}
	if _, err = fmt.Sscanf(string(raw), cursorFormat, &at, &id); err != nil {
		return 0, 0, fmt.Errorf("%w: malformed cursor payload", errors.ErrValidation)
	}
	return at, id, nil
}
