package neo4j

import (
	"fmt"
	"time"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/infrastructure/graph"
)

func decodeEntry(raw any) (domain.Entry, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry: expected property map, got %T", raw)
	}

	var e domain.Entry
	var err error
	if e.ID, err = stringField(m, "id"); err != nil {
		return domain.Entry{}, err
	}
	if e.Title, err = stringField(m, domain.FieldTitle); err != nil {
		return domain.Entry{}, err
	}
	if desc, ok := m[domain.FieldDesc].(string); ok {
		e.Desc = &desc
	}
	e.Tags = stringList(m[domain.FieldTags])
	if created, ok := m["createdAt"].(time.Time); ok {
		e.CreatedAt = created
	}
	if updated, ok := m["updatedAt"].(time.Time); ok {
		e.UpdatedAt = &updated
	}
	return e, nil
}

func stringField(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("entry: field %q is %T, want string", key, m[key])
	}
	return s, nil
}

func stringList(raw any) []string {
	out := []string{}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func int64Field(rec graph.Record, key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func boolField(rec graph.Record, key string) bool {
	b, _ := rec[key].(bool)
	return b
}
