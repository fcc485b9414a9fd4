package models

import "encoding/json"

// Document is the single live mind map of one user. Data is an opaque JSON
// payload; the server never inspects it. UpdatedAt is the version stamp and
// strictly increases with every accepted push.
type Document struct {
	UserID    int64
	Data      json.RawMessage
	UpdatedAt int64
}
