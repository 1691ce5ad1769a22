package expr

import "fmt"

// Node is the interface for all expression AST nodes. The set of
// implementations is closed: TimeNode, ScalarNode and BinaryNode.
type Node interface {
	fmt.Stringer
	node()
}

// Operator identifies the operation of a BinaryNode.
type Operator int

const (
	OpSum Operator = iota
	OpSubtract
	OpMult
	OpDiv
	OpEquals
)

// String returns the operator's source symbol.
func (op Operator) String() string {
	switch op {
	case OpSum:
		return "+"
	case OpSubtract:
		return "-"
	case OpMult:
		return "*"
	case OpDiv:
		return "/"
	case OpEquals:
		return "="
	default:
		return "?"
	}
}

// TimeNode is a time literal.
type TimeNode struct {
	Hours   int
	Minutes int
}

func (n *TimeNode) node() {}

func (n *TimeNode) String() string { return fmt.Sprintf("%d:%02d", n.Hours, n.Minutes) }

// ScalarNode is an integer literal.
type ScalarNode struct {
	Value int64
}

func (n *ScalarNode) node() {}

func (n *ScalarNode) String() string { return fmt.Sprintf("%d", n.Value) }

// BinaryNode applies Op to Left and Right.
type BinaryNode struct {
	Op    Operator
	Left  Node
	Right Node
}

func (n *BinaryNode) node() {}

// String renders the node fully parenthesized, e.g. (1:00 - (0:30 - 0:10)).
// The root of a comparison is rendered without parentheses.
func (n *BinaryNode) String() string {
	if n.Op == OpEquals {
		return fmt.Sprintf("%s = %s", n.Left, n.Right)
	}
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}
