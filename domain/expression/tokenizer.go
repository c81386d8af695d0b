package expression

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Normalize strips whitespace and rewrites every unary minus into a
// parenthesised subtraction from zero, so "5 * -2" becomes "5*(0-2)".
// A minus is unary when it starts the expression or follows an operator or
// an opening parenthesis, and is directly followed by a number.
func Normalize(expr string) string {
	src := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)

	var b strings.Builder
	b.Grow(len(src) + 8)

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '-' && unaryPosition(src, i) && i+1 < len(src) && isNumberByte(src[i+1]) {
			end := i + 1
			for end < len(src) && isNumberByte(src[end]) {
				end++
			}
			b.WriteString("(0-")
			b.WriteString(src[i+1 : end])
			b.WriteByte(')')
			i = end - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unaryPosition(src string, i int) bool {
	if i == 0 {
		return true
	}
	switch src[i-1] {
	case '+', '-', '*', '/', '(':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '.'
}

// Tokenize normalizes expr and splits it into tokens in source order.
func Tokenize(expr string) ([]Token, error) {
	src := Normalize(expr)
	if src == "" {
		return nil, ErrEmptyExpression
	}

	tokens := make([]Token, 0, len(src))
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isNumberByte(c):
			n, width, err := scanNumber(src[i:])
			if err != nil {
				return nil, fmt.Errorf("%w at position %d", err, i)
			}
			tokens = append(tokens, Number(n))
			i += width
		case c == '(':
			tokens = append(tokens, LeftParen())
			i++
		case c == ')':
			tokens = append(tokens, RightParen())
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, Op(Operator(c)))
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, c, i)
		}
	}
	return tokens, nil
}

// scanNumber reads the longest prefix of s made of digits with at most one
// decimal point. At least one digit is required, and a second decimal point
// inside the run is a syntax error.
func scanNumber(s string) (float64, int, error) {
	end, digits, dot := 0, 0, false
	for end < len(s) {
		c := s[end]
		if isDigit(c) {
			digits++
		} else if c == '.' {
			if dot {
				return 0, 0, fmt.Errorf("%w: malformed number %q", ErrSyntax, numberRun(s))
			}
			dot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return 0, 0, fmt.Errorf("%w: malformed number %q", ErrSyntax, s[:end])
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, 0, fmt.Errorf("%w: number %q", ErrOverflow, s[:end])
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed number %q", ErrSyntax, s[:end])
	}
	return v, end, nil
}

// numberRun returns the prefix of s made of digits and decimal points.
func numberRun(s string) string {
	end := 0
	for end < len(s) && isNumberByte(s[end]) {
		end++
	}
	return s[:end]
}
