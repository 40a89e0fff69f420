package tree

import (
	"fmt"

	"github.com/google/uuid"

	"devaccountbook-backend/internal/domain"
)

// Folder turns a raw record into a TreeNode.
type Folder struct {
	// NewKey supplies row keys for records without an id.
	NewKey func() string
}

// NewFolder returns a Folder that keys id-less records with a random uuid.
func NewFolder() *Folder {
	return &Folder{NewKey: uuid.NewString}
}

// Fold converts root, which must be a map. Every field holding a non-empty
// list of maps is a child collection and is flattened into Children, in
// sorted field order. id, title, desc and tags fill the typed fields; all
// other fields are copied into Props. Sibling records with the same id are
// kept apart.
func (f *Folder) Fold(root Value) (*domain.TreeNode, error) {
	if root.Kind() != MapValue {
		return nil, fmt.Errorf("tree: root must be a record, got kind %d", root.Kind())
	}
	return f.fold(root), nil
}

func (f *Folder) fold(record Value) *domain.TreeNode {
	node := &domain.TreeNode{
		Tags:     []string{},
		Children: []*domain.TreeNode{},
	}

	for _, key := range record.Keys() {
		field, _ := record.Field(key)

		if field.IsNodeList() {
			for _, child := range field.Items() {
				node.Children = append(node.Children, f.fold(child))
			}
			continue
		}

		switch key {
		case "id":
			node.ID = fmt.Sprint(field.Any())
		case domain.FieldTitle:
			if s, ok := field.Any().(string); ok {
				node.Title = s
				continue
			}
			f.setProp(node, key, field)
		case domain.FieldDesc:
			if s, ok := field.Any().(string); ok {
				node.Desc = &s
				continue
			}
			if field.Any() != nil {
				f.setProp(node, key, field)
			}
		case domain.FieldTags:
			if tags, ok := stringItems(field); ok {
				node.Tags = tags
				continue
			}
			f.setProp(node, key, field)
		default:
			f.setProp(node, key, field)
		}
	}

	if node.ID != "" {
		node.Key = node.ID
	} else {
		node.Key = f.NewKey()
	}
	return node
}

func (f *Folder) setProp(node *domain.TreeNode, key string, field Value) {
	if node.Props == nil {
		node.Props = map[string]any{}
	}
	node.Props[key] = field.Any()
}

func stringItems(v Value) ([]string, bool) {
	if v.Kind() != ListValue {
		return nil, false
	}
	out := make([]string, 0, len(v.Items()))
	for _, item := range v.Items() {
		s, ok := item.Any().(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
