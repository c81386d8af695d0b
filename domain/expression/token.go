// Package expression turns infix arithmetic expressions into Reverse Polish
// Notation and evaluates them, recording every binary operation performed.
package expression

import (
	"fmt"
	"math"
	"strconv"
)

// Operator is one of the four supported binary operators.
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

// ParseOperator converts a single-character symbol into an Operator.
func ParseOperator(symbol string) (Operator, error) {
	if len(symbol) == 1 {
		switch op := Operator(symbol[0]); op {
		case OpAdd, OpSub, OpMul, OpDiv:
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, symbol)
}

// Precedence returns the binding strength of the operator.
func (o Operator) Precedence() int {
	switch o {
	case OpAdd, OpSub:
		return 1
	case OpMul, OpDiv:
		return 2
	default:
		return 0
	}
}

// Apply performs the operation directly. Results outside the float64 range
// are reported as ErrOverflow.
func (o Operator) Apply(a, b float64) (float64, error) {
	switch o {
	case OpAdd:
		return Finite(a + b)
	case OpSub:
		return Finite(a - b)
	case OpMul:
		return Finite(a * b)
	case OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return Finite(a / b)
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrInternal, byte(o))
	}
}

// Finite returns v, or ErrOverflow if v is infinite or NaN.
func Finite(v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrOverflow
	}
	return v, nil
}

func (o Operator) String() string {
	return string(rune(o))
}

// Kind identifies the variant held by a Token.
type Kind int

const (
	KindNumber Kind = iota
	KindOperator
	KindLeftParen
	KindRightParen
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindOperator:
		return "operator"
	case KindLeftParen:
		return "("
	case KindRightParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token is a lexical unit of an expression. Value is set for numbers and Op
// for operators; parentheses carry neither.
type Token struct {
	Kind  Kind
	Value float64
	Op    Operator
}

// Number returns a number token.
func Number(v float64) Token {
	return Token{Kind: KindNumber, Value: v}
}

// Op returns an operator token.
func Op(o Operator) Token {
	return Token{Kind: KindOperator, Op: o}
}

// LeftParen returns an opening parenthesis token.
func LeftParen() Token {
	return Token{Kind: KindLeftParen}
}

// RightParen returns a closing parenthesis token.
func RightParen() Token {
	return Token{Kind: KindRightParen}
}

func (t Token) String() string {
	switch t.Kind {
	case KindNumber:
		return strconv.FormatFloat(t.Value, 'g', -1, 64)
	case KindOperator:
		return t.Op.String()
	default:
		return t.Kind.String()
	}
}
