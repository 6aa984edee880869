package pick

// None marks the absence of a hovered entity.
const None = -1

// Kind distinguishes enter from leave transitions.
type Kind int

const (
	Enter Kind = iota
	Leave
)

func (k Kind) String() string {
	if k == Enter {
		return "enter"
	}
	return "leave"
}

// Transition is one hover change.
type Transition struct {
	Kind Kind
	Edge bool
	ID   int
}

// Hover tracks the hovered node and edge. Node hover has priority: while a
// node is hovered no edge is.
type Hover struct {
	node int
	edge int
}

// NewHover returns a tracker with nothing hovered.
func NewHover() *Hover { return &Hover{node: None, edge: None} }

// Node returns the hovered node.
func (h *Hover) Node() (int, bool) { return h.node, h.node != None }

// Edge returns the hovered edge.
func (h *Hover) Edge() (int, bool) { return h.edge, h.edge != None }

// SetNode moves the node hover to id, or clears it when id is [None]. A move
// between two nodes yields a leave followed by an enter.
func (h *Hover) SetNode(id int) []Transition {
	if id < 0 {
		id = None
	}
	if id == h.node {
		return nil
	}
	var out []Transition
	if h.node != None {
		out = append(out, Transition{Kind: Leave, ID: h.node})
	}
	h.node = id
	if id != None {
		out = append(out, Transition{Kind: Enter, ID: id})
	}
	return out
}

// SetEdge moves the edge hover to id. While a node is hovered the target is
// forced to [None], so a hovered edge is left instead.
func (h *Hover) SetEdge(id int) []Transition {
	if id < 0 || h.node != None {
		id = None
	}
	if id == h.edge {
		return nil
	}
	var out []Transition
	if h.edge != None {
		out = append(out, Transition{Kind: Leave, Edge: true, ID: h.edge})
	}
	h.edge = id
	if id != None {
		out = append(out, Transition{Kind: Enter, Edge: true, ID: id})
	}
	return out
}

// Reset forgets both hovers without producing transitions. It is used when
// the graph is swapped and the old ids no longer mean anything.
func (h *Hover) Reset() {
	h.node, h.edge = None, None
}
