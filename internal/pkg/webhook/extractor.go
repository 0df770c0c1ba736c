package webhook

import (
	"encoding/json"
	"log"
)

// ExtractComments walks the payload and returns every valid comment
// candidate in delivery order. A candidate missing comment ID, account ID,
// author ID or author username is dropped with a warning; one malformed
// entry never aborts the batch. A comment authored by the account itself
// (the business replying under its own media) is dropped silently to
// prevent forwarding loops.
func ExtractComments(payload *Payload) []Candidate {
	var candidates []Candidate

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "comments" {
				continue
			}

			var value commentValue
			if err := json.Unmarshal(change.Value, &value); err != nil {
				log.Printf("Incomplete comment data, skipping: %v", err)
				continue
			}

			if value.ID == "" || entry.ID == "" || value.From.ID == "" || value.From.Username == "" {
				log.Printf("Incomplete comment data, skipping: comment_id=%q account_id=%q user_id=%q username=%q",
					value.ID, entry.ID, value.From.ID, value.From.Username)
				continue
			}

			// Loop prevention, not an error.
			if value.From.ID == entry.ID {
				continue
			}

			candidates = append(candidates, Candidate{
				CommentID: value.ID,
				MediaID:   value.Media.ID,
				AccountID: entry.ID,
				UserID:    value.From.ID,
				Username:  value.From.Username,
				Text:      value.Text,
				ParentID:  value.ParentID,
				Timestamp: entry.Time,
				Raw:       change.Value,
			})
		}
	}

	return candidates
}
