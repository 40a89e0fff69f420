package domain

// TreeNode is a read-only nested view of an entry and what it relates to.
// It is rebuilt on every request and never stored.
type TreeNode struct {
	ID       string         `json:"id"`
	Key      string         `json:"key"`
	Title    string         `json:"title"`
	Desc     *string        `json:"desc"`
	Tags     []string       `json:"tags"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*TreeNode    `json:"children"`
}
