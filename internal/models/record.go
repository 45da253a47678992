package models

import (
	"encoding/json"
	"strings"
)

// Record is one entry of the submission wall as the front-end reads it.
// Records without a SubmissionID are legacy or manually seeded entries.
type Record struct {
	SubmissionID string `json:"submissionId,omitempty" firestore:"submissionId,omitempty"`
	Name         string `json:"name,omitempty" firestore:"name,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Timestamp    string `json:"timestamp,omitempty" firestore:"timestamp,omitempty"`
	Likes        int    `json:"likes" firestore:"likes"`

	// Init marks the sentinel used to seed an otherwise empty store document.
	Init bool `json:"init,omitempty" firestore:"-"`

	// DocID is the backend key of a record loaded from a per-record store.
	DocID string `json:"-" firestore:"-"`

	// Extra holds keys the wall does not know about. They are written back
	// unchanged so whole-document saves never drop them.
	Extra map[string]json.RawMessage `json:"-" firestore:"-"`
}

// recordFields has Record's fields without its JSON methods.
type recordFields Record

var recordKeys = []string{"submissionId", "name", "imageUrl", "timestamp", "likes", "init"}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// encoding/json matches field names case-insensitively.
	for key := range raw {
		for _, known := range recordKeys {
			if strings.EqualFold(key, known) {
				delete(raw, key)
				break
			}
		}
	}

	*r = Record(fields)
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(recordFields(r))
	if err != nil || len(r.Extra) == 0 {
		return known, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Visible reports whether the record should be shown to end users.
func (r Record) Visible() bool {
	return !r.Init && r.ImageURL != ""
}

// ActiveStatus is the upstream status of a live submission.
const ActiveStatus = "ACTIVE"

// Submission is a form submission as returned by the polling API.
type Submission struct {
	ID        string            `json:"id"`
	FormID    string            `json:"form_id,omitempty"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"created_at"`
	Answers   map[string]Answer `json:"answers"`
}

// IsActive compares the status case-insensitively.
func (s Submission) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), ActiveStatus)
}

// Answer is a single question's answer. The Answer payload is a string,
// a list of strings, or an object depending on the question type.
type Answer struct {
	Name   string          `json:"name,omitempty"`
	Text   string          `json:"text,omitempty"`
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer,omitempty"`
}
