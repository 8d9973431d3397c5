package identity

import "github.com/elmtools/elmls/internal/ast"

// findFunctionOrValue descends into e looking for the innermost
// functionOrValue node whose range contains pos. Sub-expressions are entered
// only when the position lies inside their range.
func findFunctionOrValue(e ast.Expression, pos ast.Position) (ast.Expression, bool) {
	if !e.Range.Contains(pos) {
		return ast.Expression{}, false
	}

	for _, child := range ast.ChildExpressions(e) {
		if found, ok := findFunctionOrValue(child, pos); ok {
			return found, true
		}
	}

	// Let declarations carry nested bodies of their own; only the one whose
	// range contains the position is entered.
	if e.Kind == ast.ExprLet {
		for _, d := range e.LetDecls {
			if !d.Range.Contains(pos) {
				continue
			}
			switch d.Kind {
			case ast.DeclFunction:
				if found, ok := findFunctionOrValue(d.Function.Expression, pos); ok {
					return found, true
				}
			case ast.DeclDestructuring:
				if found, ok := findFunctionOrValue(d.Destructuring.Expression, pos); ok {
					return found, true
				}
			}
		}
	}

	if e.Kind == ast.ExprFunctionOrValue {
		return e, true
	}
	return ast.Expression{}, false
}
