package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MessageID identifies a message in its folder. Mail backends report it as
// either a JSON string or a number.
type MessageID string

// UnmarshalJSON accepts both "42" and 42
func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid message id %s: %w", string(data), err)
	}
	*id = MessageID(n.String())
	return nil
}

// Address is a sender or recipient
type Address struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// Envelope represents the header summary of an email message
type Envelope struct {
	ID      MessageID `json:"id"`
	Date    string    `json:"date"`
	From    Address   `json:"from"`
	Subject string    `json:"subject"`
	Flags   []string  `json:"flags,omitempty"`
}

// Seen reports whether the message carries the Seen flag
func (e Envelope) Seen() bool {
	for _, f := range e.Flags {
		if f == "Seen" || f == `\Seen` {
			return true
		}
	}
	return false
}

// ScoreResult represents the outcome of scoring one envelope
type ScoreResult struct {
	Confidence int
	Blocked    bool
	Reasons    []string
}

// Candidate is an envelope that passed the blocklist and threshold
type Candidate struct {
	ID         MessageID `json:"id"`
	Date       string    `json:"date"`
	From       Address   `json:"from"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Confidence int       `json:"confidence"`
	Reasons    []string  `json:"reasons"`
}

// SessionState is the last proposal, kept so replies can address items by
// their 1-based position
type SessionState struct {
	Generation   string      `json:"generation"`
	CreatedAt    time.Time   `json:"createdAt"`
	Account      string      `json:"account"`
	RulesPath    string      `json:"rulesPath"`
	SourceFolder string      `json:"sourceFolder"`
	TargetFolder string      `json:"targetFolder"`
	Items        []Candidate `json:"items"`
}

// Item returns the candidate at a 1-based position
func (s *SessionState) Item(position int) (Candidate, bool) {
	if position < 1 || position > len(s.Items) {
		return Candidate{}, false
	}
	return s.Items[position-1], true
}

// ListQuery selects envelopes from a folder, newest first
type ListQuery struct {
	Account  string
	Folder   string
	PageSize int
	// On limits results to one local date (YYYY-MM-DD) when set
	On string
	// Unseen limits results to messages without the Seen flag
	Unseen bool
}

// MoveRequest relocates messages between folders
type MoveRequest struct {
	Account      string
	SourceFolder string
	TargetFolder string
	IDs          []MessageID
}
