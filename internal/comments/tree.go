package comments

import (
	"sort"

	"unisphere/internal/models"
)

// Node is a comment with its derived author and ordered replies. Trees held
// by a Synchronizer are replaced wholesale and must be treated as read-only.
type Node struct {
	models.Comment
	Author  *models.Author `json:"author"`
	Replies []*Node        `json:"replies"`
}

func newNode(c models.Comment) *Node {
	return &Node{Comment: c, Replies: []*Node{}}
}

// BuildTree assembles a flat comment set into a forest. Rows are expected in
// ascending created_at order; out-of-order input is stably re-sorted. A row
// whose parent is absent from the set becomes a root.
func BuildTree(rows []models.Comment) []*Node {
	roots, _ := buildTree(rows)
	return roots
}

// buildTree also reports the ids promoted to the root because their parent
// was missing or formed a cycle.
func buildTree(rows []models.Comment) ([]*Node, []string) {
	if !sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) }) {
		sorted := make([]models.Comment, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
		rows = sorted
	}

	nodes := make(map[string]*Node, len(rows))
	order := make(map[string]int, len(rows))
	for i, row := range rows {
		if _, dup := nodes[row.ID]; dup {
			continue
		}
		nodes[row.ID] = newNode(row)
		order[row.ID] = i
	}

	roots := make([]*Node, 0)
	parentOf := make(map[string]*Node)
	var promoted []string
	for i, row := range rows {
		if order[row.ID] != i {
			continue
		}
		n := nodes[row.ID]
		if row.ParentCommentID != nil && *row.ParentCommentID != row.ID {
			if parent, ok := nodes[*row.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, n)
				parentOf[row.ID] = parent
				continue
			}
			promoted = append(promoted, row.ID)
		}
		roots = append(roots, n)
	}

	// Nodes on a parent cycle are unreachable from any root. Detach the
	// earliest of each cycle from its parent and promote it.
	reached := make(map[string]bool, len(nodes))
	mark := func(from *Node) {
		stack := []*Node{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[n.ID] {
				continue
			}
			reached[n.ID] = true
			stack = append(stack, n.Replies...)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	if len(reached) == len(nodes) {
		return roots, promoted
	}

	for i, row := range rows {
		if order[row.ID] != i || reached[row.ID] {
			continue
		}
		n := nodes[row.ID]
		if parent := parentOf[row.ID]; parent != nil {
			parent.Replies = removeNode(parent.Replies, n)
		}
		roots = append(roots, n)
		promoted = append(promoted, row.ID)
		mark(n)
	}
	sort.SliceStable(roots, func(i, j int) bool { return order[roots[i].ID] < order[roots[j].ID] })
	return roots, promoted
}

func removeNode(list []*Node, target *Node) []*Node {
	out := list[:0]
	for _, n := range list {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits every node in pre-order without recursion. Returning false from
// fn skips the node's replies.
func Walk(roots []*Node, fn func(n *Node) bool) {
	stack := make([]*Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Replies) - 1; i >= 0; i-- {
			stack = append(stack, n.Replies[i])
		}
	}
}

// Count returns the number of nodes in the forest.
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node) bool {
		total++
		return true
	})
	return total
}
