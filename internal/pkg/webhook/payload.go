package webhook

import (
	"encoding/json"
)

// Payload is the Instagram webhook envelope. Change values stay raw so the
// fragment stored for audit is byte-identical to what the platform sent.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups changes for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Changes []Change `json:"changes"`
}

// Change is one field notification inside an entry.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// commentValue is the parsed shape of a "comments" change value.
type commentValue struct {
	ID    string `json:"id"`
	Media struct {
		ID string `json:"id"`
	} `json:"media"`
	From struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id"`
}

// Candidate is one extracted comment ready for processing.
type Candidate struct {
	CommentID string
	MediaID   string
	AccountID string
	UserID    string
	Username  string
	Text      string
	ParentID  string
	Timestamp int64
	// Raw is the original change value fragment, kept for audit/replay.
	Raw json.RawMessage
}
