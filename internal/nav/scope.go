package nav

import "github.com/elmtools/elmls/internal/ast"

// scopeEntry is one lexical binder: the name it introduces and the range of
// the binding site a jump should land on.
type scopeEntry struct {
	name string
	rng  ast.Range
}

// scope is the ordered list of binders visible at a point in a declaration.
// Shadowing is implicit by order: lookup scans from the end, so the last
// binder wins.
type scope []scopeEntry

func (s scope) lookup(name string) (ast.Range, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].name == name {
			return s[i].rng, true
		}
	}
	return ast.Range{}, false
}

func (s scope) withPatterns(patterns ...ast.Pattern) scope {
	out := s
	for _, p := range patterns {
		out = append(out, patternBinders(p)...)
	}
	return out
}

// withLetDeclarations extends the scope with the names bound by every let
// declaration: function name nodes and destructured pattern binders.
func (s scope) withLetDeclarations(decls []ast.Declaration) scope {
	out := s
	for _, d := range decls {
		switch d.Kind {
		case ast.DeclFunction:
			out = append(out, scopeEntry{name: d.Function.Name, rng: d.Function.NameRange})
		case ast.DeclDestructuring:
			out = append(out, patternBinders(d.Destructuring.Pattern)...)
		}
	}
	return out
}

// patternBinders flattens the names a pattern binds, pairing each with the
// range a definition jump should target.
func patternBinders(p ast.Pattern) []scopeEntry {
	switch p.Kind {
	case ast.PatternVar:
		return []scopeEntry{{name: p.Name, rng: p.Range}}
	case ast.PatternAs:
		var entries []scopeEntry
		if p.Inner != nil {
			entries = patternBinders(*p.Inner)
		}
		return append(entries, scopeEntry{name: p.As, rng: p.Range})
	case ast.PatternTuple, ast.PatternList:
		var entries []scopeEntry
		for _, item := range p.Items {
			entries = append(entries, patternBinders(item)...)
		}
		return entries
	case ast.PatternUncons:
		var entries []scopeEntry
		if p.Head != nil {
			entries = append(entries, patternBinders(*p.Head)...)
		}
		if p.Tail != nil {
			entries = append(entries, patternBinders(*p.Tail)...)
		}
		return entries
	case ast.PatternNamed:
		var entries []scopeEntry
		for _, sub := range p.SubPatterns {
			entries = append(entries, patternBinders(sub)...)
		}
		return entries
	case ast.PatternRecord:
		entries := make([]scopeEntry, 0, len(p.FieldNames))
		for _, f := range p.FieldNames {
			entries = append(entries, scopeEntry{name: f, rng: p.Range})
		}
		return entries
	case ast.PatternParenthesized:
		if p.Parenthesized != nil {
			return patternBinders(*p.Parenthesized)
		}
		return nil
	default:
		return nil
	}
}

// namedPatternAt finds the innermost constructor pattern whose name token
// contains pos.
func namedPatternAt(p ast.Pattern, pos ast.Position) (ast.Pattern, bool) {
	if !p.Range.Contains(pos) {
		return ast.Pattern{}, false
	}
	switch p.Kind {
	case ast.PatternNamed:
		for _, sub := range p.SubPatterns {
			if found, ok := namedPatternAt(sub, pos); ok {
				return found, true
			}
		}
		if p.NameRange.Contains(pos) {
			return p, true
		}
	case ast.PatternTuple, ast.PatternList:
		for _, item := range p.Items {
			if found, ok := namedPatternAt(item, pos); ok {
				return found, true
			}
		}
	case ast.PatternUncons:
		if p.Head != nil {
			if found, ok := namedPatternAt(*p.Head, pos); ok {
				return found, true
			}
		}
		if p.Tail != nil {
			if found, ok := namedPatternAt(*p.Tail, pos); ok {
				return found, true
			}
		}
	case ast.PatternAs:
		if p.Inner != nil {
			return namedPatternAt(*p.Inner, pos)
		}
	case ast.PatternParenthesized:
		if p.Parenthesized != nil {
			return namedPatternAt(*p.Parenthesized, pos)
		}
	}
	return ast.Pattern{}, false
}
