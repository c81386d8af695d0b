package expression

// ToRPN reorders infix tokens into postfix order using the Shunting-Yard
// algorithm. Operators of equal precedence are left-associative.
func ToRPN(tokens []Token) ([]Token, error) {
	output := make([]Token, 0, len(tokens))
	stack := make([]Token, 0, len(tokens)/2+1)

	for _, tok := range tokens {
		switch tok.Kind {
		case KindNumber:
			output = append(output, tok)
		case KindOperator:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Kind != KindOperator || top.Op.Precedence() < tok.Op.Precedence() {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)
		case KindLeftParen:
			stack = append(stack, tok)
		case KindRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Kind == KindLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, ErrMismatchedParentheses
			}
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Kind != KindOperator {
			return nil, ErrMismatchedParentheses
		}
		output = append(output, top)
	}
	return output, nil
}
