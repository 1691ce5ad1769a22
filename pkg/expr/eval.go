package expr

import (
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Calculate tokenizes, parses and evaluates a complete expression.
func Calculate(input string) (types.Value, error) {
	node, err := ParseExpression(input)
	if err != nil {
		return types.Value{}, err
	}
	return Evaluate(node)
}

// Evaluate evaluates an expression node. Both children of a binary node are
// evaluated, left first, before the operator's type rule is checked.
func Evaluate(node Node) (types.Value, error) {
	switch n := node.(type) {
	case *TimeNode:
		return types.NewClock(n.Hours, n.Minutes), nil
	case *ScalarNode:
		return types.NewScalar(float64(n.Value)), nil
	case *BinaryNode:
		return evalBinary(n)
	default:
		return types.Value{}, types.NewInternalError("Unknown node type: %T", node)
	}
}

func evalBinary(n *BinaryNode) (types.Value, error) {
	left, err := Evaluate(n.Left)
	if err != nil {
		return types.Value{}, err
	}
	right, err := Evaluate(n.Right)
	if err != nil {
		return types.Value{}, err
	}

	if n.Op != OpEquals && (!left.IsNumeric() || !right.IsNumeric()) {
		return types.Value{}, types.NewTypeError("Cannot apply " + n.Op.String() + " to a comparison result")
	}

	switch n.Op {
	case OpDiv:
		return evalDivide(left, right)
	case OpMult:
		return evalMultiply(left, right)
	case OpSum:
		if left.Type() != right.Type() {
			return types.Value{}, types.NewTypeError("Cannot sum time and scalar")
		}
		return withType(left.Type(), left.Number()+right.Number()), nil
	case OpSubtract:
		if left.Type() != right.Type() {
			return types.Value{}, types.NewTypeError("Cannot subtract time and scalar")
		}
		return withType(left.Type(), left.Number()-right.Number()), nil
	case OpEquals:
		return evalEquals(left, right)
	default:
		return types.Value{}, types.NewInternalError("Unknown operator: %d", int(n.Op))
	}
}

func evalDivide(left, right types.Value) (types.Value, error) {
	if right.Type() != types.TypeScalar {
		return types.Value{}, types.NewTypeError("Can only divide by scalar")
	}
	if right.Number() == 0 {
		return types.Value{}, types.NewZeroDivisionError()
	}
	return withType(left.Type(), left.Number()/right.Number()), nil
}

func evalMultiply(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeTime && right.Type() == types.TypeTime {
		return types.Value{}, types.NewTypeError("Cannot multiply time with time")
	}
	product := left.Number() * right.Number()
	if left.Type() == types.TypeScalar && right.Type() == types.TypeScalar {
		return types.NewScalar(product), nil
	}
	return types.NewTime(product), nil
}

func evalEquals(left, right types.Value) (types.Value, error) {
	if left.Type() != right.Type() {
		return types.Value{}, types.NewTypeError("Cannot compare time with scalar")
	}
	return types.NewBool(left.Equal(right)), nil
}

// withType builds a numeric value carrying the given tag.
func withType(t types.ValueType, n float64) types.Value {
	if t == types.TypeTime {
		return types.NewTime(n)
	}
	return types.NewScalar(n)
}
