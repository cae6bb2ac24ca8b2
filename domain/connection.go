package domain

// Relay-style paginated response shape for a group's messages.

type MessageEdge struct {
	Node   Message
	Cursor Cursor
}

type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
}

type MessageConnection struct {
	Edges    []MessageEdge
	PageInfo PageInfo
}

// PageArgs is the connection input of a messages query. Exactly one of
// First/After or Last/Before may be used; both First and Last set is a
// validation failure.
type PageArgs struct {
	First  *int
	After  *Cursor
	Last   *int
	Before *Cursor
}

// EdgeFor pairs a message with its own cursor.
func EdgeFor(m Message) MessageEdge {
	return MessageEdge{Node: m, Cursor: CursorFor(m)}
}
