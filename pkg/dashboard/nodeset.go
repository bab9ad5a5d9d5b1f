package dashboard

import "sprouthub/pkg/domain"

// NodeSet is the node map keyed by node id. Iteration follows the order in
// which ids first appeared in the snapshot.
type NodeSet struct {
	ids   []string
	nodes map[string]domain.Node
}

func NewNodeSet(nodes ...domain.Node) NodeSet {
	set := NodeSet{nodes: make(map[string]domain.Node, len(nodes))}
	for _, n := range nodes {
		if _, ok := set.nodes[n.NodeID]; !ok {
			set.ids = append(set.ids, n.NodeID)
		}
		set.nodes[n.NodeID] = n
	}
	return set
}

func (s NodeSet) Len() int {
	return len(s.ids)
}

func (s NodeSet) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s NodeSet) Has(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s NodeSet) Get(id string) (domain.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s NodeSet) First() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[0], true
}

func (s NodeSet) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.nodes[id])
	}
	return out
}
