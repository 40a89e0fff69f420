package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the closed vocabulary of relation types. The zero value is not a
// valid kind.
type Kind uint8

const (
	KindRelatesTo Kind = iota + 1
	KindInfluences
	KindBlocks
	KindDuplicates
)

// TreeKind is the hierarchical relation followed when building trees.
const TreeKind = KindRelatesTo

// kindLabels is the only place a Kind turns into query text.
var kindLabels = map[Kind]string{
	KindRelatesTo:  "RELATES_TO",
	KindInfluences: "INFLUENCES",
	KindBlocks:     "BLOCKS",
	KindDuplicates: "DUPLICATES",
}

var labelKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindLabels))
	for k, label := range kindLabels {
		m[label] = k
	}
	return m
}()

// ParseKind resolves a relationship type label into a Kind.
func ParseKind(label string) (Kind, bool) {
	k, ok := labelKinds[label]
	return k, ok
}

// Label returns the relationship type literal for k, and false when k is
// outside the closed set.
func (k Kind) Label() (string, bool) {
	label, ok := kindLabels[k]
	return label, ok
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalJSON encodes the kind as its label.
func (k Kind) MarshalJSON() ([]byte, error) {
	label, ok := k.Label()
	if !ok {
		return nil, fmt.Errorf("invalid relation kind %d", uint8(k))
	}
	return json.Marshal(label)
}

// UnmarshalJSON accepts only labels from the closed set.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, ok := ParseKind(label)
	if !ok {
		return fmt.Errorf("invalid relation kind %q", label)
	}
	*k = parsed
	return nil
}

// KindLabels lists every valid label in ascending order.
func KindLabels() []string {
	labels := make([]string, 0, len(kindLabels))
	for _, label := range kindLabels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Well-known relation property keys. None of them is required.
const (
	PropNote      = "note"
	PropCreatedAt = "createdAt"
	PropUpdatedAt = "updatedAt"
)

// Props is the open bag of auxiliary relation metadata.
type Props map[string]any

// Relation is a directed, typed edge between two entries.
type Relation struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Kind   Kind   `json:"kind"`
	Props  Props  `json:"props"`
}

// Relations groups the edges touching one entry.
type Relations struct {
	Outgoing []Relation `json:"outgoing"`
	Incoming []Relation `json:"incoming"`
}
