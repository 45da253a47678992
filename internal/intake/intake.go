// Package intake decodes the form provider's webhook deliveries.
package intake

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Lllllllleong/submissionwall/internal/config"
	"github.com/Lllllllleong/submissionwall/internal/models"
)

const maxBodyBytes = 32 << 20

// Payload is what a webhook delivery contributes to a record.
type Payload struct {
	SubmissionID string
	Name         string
	ImageURL     string
}

var idKeys = []string{"submissionID", "submission_id", "submissionId"}

// Parse reads a multipart, URL-encoded or JSON webhook body.
func Parse(r *http.Request, fields config.FieldMap) (*Payload, error) {
	values, err := decodeBody(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	// The provider nests the answers as a JSON string in rawRequest.
	if raw, ok := values["rawRequest"]; ok {
		answers, err := decodeRawRequest(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: rawRequest: %v", models.ErrInvalidInput, err)
		}
		for k, v := range answers {
			values[k] = v
		}
	}

	return &Payload{
		SubmissionID: firstText(values, idKeys),
		Name:         extractName(values, fields.NameKeys),
		ImageURL:     extractImage(values, fields.ImageKeys),
	}, nil
}

func decodeBody(r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, err
		}
		return normalize(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return normalize(r.PostForm), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(body, &values); err == nil {
		return values, nil
	}
	form, err := url.ParseQuery(string(body))
	if err != nil || len(form) == 0 {
		return nil, fmt.Errorf("unsupported body of type %q", mediaType)
	}
	return normalize(form), nil
}

func decodeRawRequest(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", raw)
	}
}

var bracketKey = regexp.MustCompile(`^(.+)\[([^\]]*)\]$`)

// normalize folds "key[0]" entries into lists and "key[first]" entries
// into objects, matching the shape of JSON deliveries.
func normalize(form map[string][]string) map[string]any {
	out := map[string]any{}
	lists := map[string]map[int]string{}
	for key, vals := range form {
		if len(vals) == 0 {
			continue
		}
		m := bracketKey.FindStringSubmatch(key)
		if m == nil {
			out[key] = vals[0]
			continue
		}
		base, sub := m[1], m[2]
		if idx, err := strconv.Atoi(sub); err == nil {
			if lists[base] == nil {
				lists[base] = map[int]string{}
			}
			lists[base][idx] = vals[0]
			continue
		}
		if sub == "" {
			items := make([]any, 0, len(vals))
			for _, v := range vals {
				items = append(items, v)
			}
			out[base] = items
			continue
		}
		obj, _ := out[base].(map[string]any)
		if obj == nil {
			obj = map[string]any{}
			out[base] = obj
		}
		obj[sub] = vals[0]
	}
	for base, byIndex := range lists {
		idxs := make([]int, 0, len(byIndex))
		for i := range byIndex {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		items := make([]any, 0, len(idxs))
		for _, i := range idxs {
			items = append(items, byIndex[i])
		}
		out[base] = items
	}
	return out
}

var questionKey = regexp.MustCompile(`^q(\d+)_`)

// questionKeys returns the "q<n>_<label>" keys in question order.
func questionKeys(values map[string]any) []string {
	type qk struct {
		n   int
		key string
	}
	var keys []qk
	for key := range values {
		m := questionKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		keys = append(keys, qk{n: n, key: key})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].n != keys[j].n {
			return keys[i].n < keys[j].n
		}
		return keys[i].key < keys[j].key
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}

func extractName(values map[string]any, configured []string) string {
	for _, key := range configured {
		if name := textValue(values[key]); name != "" {
			return name
		}
	}
	for _, key := range questionKeys(values) {
		if name := textValue(values[key]); name != "" && !looksLikeURL(name) {
			return name
		}
	}
	return ""
}

func extractImage(values map[string]any, configured []string) string {
	for _, key := range configured {
		if u := fileValue(values[key]); u != "" {
			return u
		}
		if s, ok := values[key].(string); ok && looksLikeURL(s) {
			return strings.TrimSpace(s)
		}
	}
	for _, key := range questionKeys(values) {
		if u := fileValue(values[key]); u != "" {
			return u
		}
	}
	return ""
}

func firstText(values map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := values[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// textValue reads a free-text answer: a string, or a full-name object.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		var parts []string
		for _, k := range []string{"prefix", "first", "middle", "last", "suffix"} {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// fileValue reads a file-upload answer: the first URL of a list.
func fileValue(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	for _, item := range list {
		if s, ok := item.(string); ok && looksLikeURL(s) {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func looksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
