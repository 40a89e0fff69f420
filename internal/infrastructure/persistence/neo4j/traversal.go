package neo4j

import (
	"fmt"
	"sort"
	"strings"

	"devaccountbook-backend/internal/domain"
)

// Traversal selects the primitive used to walk the hierarchy.
type Traversal string

const (
	// TraversalCypher expands variable-length paths and joins them here.
	TraversalCypher Traversal = "cypher"
	// TraversalAPOC delegates the nesting to apoc.paths.toJsonTree.
	TraversalAPOC Traversal = "apoc"
)

// Depth bounds for tree traversal.
const (
	DefaultTreeDepth = 5
	MaxTreeDepth     = 10
)

// childKey is the field the nested child records live under. It matches
// the lower-cased relationship key apoc emits.
var childKey = strings.ToLower(mustLabel(domain.TreeKind))

func mustLabel(k domain.Kind) string {
	label, ok := k.Label()
	if !ok {
		panic(fmt.Sprintf("kind %d has no label", k))
	}
	return label
}

// pathTrie joins root-anchored paths into nested records. Paths sharing a
// prefix share that branch; the same entry reached through different
// parents stays in each branch.
type pathTrie struct {
	props    map[string]any
	children map[string]*pathTrie
	order    []string
}

func newPathTrie(props map[string]any) *pathTrie {
	return &pathTrie{props: props, children: map[string]*pathTrie{}}
}

func (t *pathTrie) insert(path []map[string]any) {
	node := t
	for _, props := range path {
		id := fmt.Sprint(props["id"])
		child, ok := node.children[id]
		if !ok {
			child = newPathTrie(props)
			node.children[id] = child
			node.order = append(node.order, id)
		}
		node = child
	}
}

// record renders the trie in the same shape apoc produces.
func (t *pathTrie) record() map[string]any {
	out := make(map[string]any, len(t.props)+1)
	for k, v := range t.props {
		out[k] = v
	}
	if len(t.children) == 0 {
		return out
	}

	ids := append([]string(nil), t.order...)
	sort.Strings(ids)
	kids := make([]any, 0, len(ids))
	for _, id := range ids {
		kids = append(kids, t.children[id].record())
	}
	out[childKey] = kids
	return out
}

// joinPaths builds the nested record for rootID from a set of node
// sequences. It returns nil when no path starts at the root.
func joinPaths(rootID string, paths [][]map[string]any) map[string]any {
	var root *pathTrie
	for _, path := range paths {
		if len(path) == 0 || fmt.Sprint(path[0]["id"]) != rootID {
			continue
		}
		if root == nil {
			root = newPathTrie(path[0])
		}
		root.insert(path[1:])
	}
	if root == nil {
		return nil
	}
	return root.record()
}
