package source

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/models"
)

// Fields are the values a record is built from.
type Fields struct {
	Name     string
	ImageURL string
}

var textTypes = map[string]bool{
	"control_textbox":  true,
	"control_textarea": true,
	"control_fullname": true,
}

const fileType = "control_fileupload"

// Extract picks the display name and image locator out of a submission.
// Configured field names win; otherwise the first free-text answer and
// the first file-upload answer in question order are used.
func Extract(sub models.Submission, fields config.FieldMap) Fields {
	ids := questionIDs(sub.Answers)

	var out Fields
	for _, key := range fields.NameKeys {
		if a, ok := lookup(sub.Answers, ids, key); ok {
			if out.Name = answerText(a.Answer); out.Name != "" {
				break
			}
		}
	}
	for _, key := range fields.ImageKeys {
		if a, ok := lookup(sub.Answers, ids, key); ok {
			if out.ImageURL = answerFile(a.Answer); out.ImageURL != "" {
				break
			}
		}
	}

	for _, id := range ids {
		a := sub.Answers[id]
		if out.Name == "" && textTypes[a.Type] {
			out.Name = answerText(a.Answer)
		}
		if out.ImageURL == "" && a.Type == fileType {
			out.ImageURL = answerFile(a.Answer)
		}
	}
	return out
}

// lookup matches a configured key against the question id, the question's
// unique name, or the "q<id>_<name>" form used by webhook payloads.
func lookup(answers map[string]models.Answer, ids []string, key string) (models.Answer, bool) {
	if a, ok := answers[key]; ok {
		return a, true
	}
	for _, id := range ids {
		a := answers[id]
		if a.Name == key || "q"+id+"_"+a.Name == key {
			return a, true
		}
	}
	return models.Answer{}, false
}

// questionIDs returns the answer keys in numeric order.
func questionIDs(answers map[string]models.Answer) []string {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if (errA == nil) != (errB == nil) {
			return errA == nil
		}
		return ids[i] < ids[j]
	})
	return ids
}

func answerText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var name struct {
		First  string `json:"first"`
		Middle string `json:"middle"`
		Last   string `json:"last"`
	}
	if err := json.Unmarshal(raw, &name); err == nil {
		return joinNonEmpty(name.First, name.Middle, name.Last)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

func answerFile(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				return item
			}
		}
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
