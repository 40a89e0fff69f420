package domain

import (
	"fmt"
	"time"
)

// EntryLabel is the node label every account entry carries in the graph.
const EntryLabel = "AccountEntry"

// Entry is a unit of content stored as a node in the graph.
type Entry struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Desc      *string    `json:"desc"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Patch field names. Only these keys are ever written by an update.
const (
	FieldTitle = "title"
	FieldDesc  = "desc"
	FieldTags  = "tags"
)

// Patch is a partial update keyed by field name. A key that is present
// means "the caller supplied this field", even when its value is nil.
type Patch map[string]any

// Sanitize drops unknown keys and checks the type of every known one.
// A nil desc is kept so the property gets removed; a nil title or tags is
// rejected.
func (p Patch) Sanitize() (map[string]any, error) {
	out := make(map[string]any, 3)
	for key, value := range p {
		switch key {
		case FieldTitle:
			title, ok := value.(string)
			if !ok || title == "" {
				return nil, fmt.Errorf("%s must be a non-empty string", FieldTitle)
			}
			out[key] = title
		case FieldDesc:
			switch v := value.(type) {
			case nil:
				out[key] = nil
			case string:
				out[key] = v
			case *string:
				if v == nil {
					out[key] = nil
				} else {
					out[key] = *v
				}
			default:
				return nil, fmt.Errorf("%s must be a string or null", FieldDesc)
			}
		case FieldTags:
			tags, err := toStrings(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", FieldTags, err)
			}
			out[key] = tags
		}
	}
	return out, nil
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			tags = append(tags, s)
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", value)
	}
}
