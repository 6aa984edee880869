package graph

// NodeFlags is the decoded form of a node flags byte.
type NodeFlags struct {
	Hidden      bool
	Highlighted bool
	ForceLabel  bool
	Type        uint8 // 0-3
}

// EdgeFlags is the decoded form of an edge flags byte.
type EdgeFlags struct {
	Hidden     bool
	ForceLabel bool
	Type       uint8 // 0-7
}

const (
	nodeTypeMask = 0b11
	edgeTypeMask = 0b111
)

// EncodeNodeFlags packs f into a byte. Type bits beyond the two available are
// dropped.
func EncodeNodeFlags(f NodeFlags) uint8 {
	return bit(f.Hidden) | bit(f.Highlighted)<<1 | bit(f.ForceLabel)<<2 | (f.Type&nodeTypeMask)<<3
}

// DecodeNodeFlags unpacks a node flags byte.
func DecodeNodeFlags(b uint8) NodeFlags {
	return NodeFlags{
		Hidden:      b&1 == 1,
		Highlighted: (b>>1)&1 == 1,
		ForceLabel:  (b>>2)&1 == 1,
		Type:        (b >> 3) & nodeTypeMask,
	}
}

// EncodeEdgeFlags packs f into a byte. Type bits beyond the three available
// are dropped.
func EncodeEdgeFlags(f EdgeFlags) uint8 {
	return bit(f.Hidden) | bit(f.ForceLabel)<<1 | (f.Type&edgeTypeMask)<<2
}

// DecodeEdgeFlags unpacks an edge flags byte.
func DecodeEdgeFlags(b uint8) EdgeFlags {
	return EdgeFlags{
		Hidden:     b&1 == 1,
		ForceLabel: (b>>1)&1 == 1,
		Type:       (b >> 2) & edgeTypeMask,
	}
}

func bit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
