package ast

// ToDeclarationName returns the name a top-level Declaration introduces, and
// the kind of symbol it is, or ("", false) for declarations that bind no
// single name (destructuring, infix).
func ToDeclarationName(d Declaration) (name string, kind SymbolKind, ok bool) {
	switch d.Kind {
	case DeclFunction:
		return d.Function.Name, KindValue, true
	case DeclTypeAlias:
		return d.TypeAlias.Name, KindType, true
	case DeclTypeDecl:
		return d.TypeDecl.Name, KindType, true
	case DeclPort:
		return d.Port.Name, KindValue, true
	default:
		return "", KindValue, false
	}
}

// DeclNameRange returns the range of a declaration's own name node, if it
// has one.
func DeclNameRange(d Declaration) (Range, bool) {
	switch d.Kind {
	case DeclFunction:
		return d.Function.NameRange, true
	case DeclTypeAlias:
		return d.TypeAlias.NameRange, true
	case DeclTypeDecl:
		return d.TypeDecl.NameRange, true
	case DeclPort:
		return d.Port.NameRange, true
	default:
		return Range{}, false
	}
}

// Constructors returns the value constructors introduced by d, empty unless
// d is a DeclTypeDecl.
func Constructors(d Declaration) []ValueConstructor {
	if d.Kind != DeclTypeDecl || d.TypeDecl == nil {
		return nil
	}
	return d.TypeDecl.Constructors
}

// ToModuleName returns the dotted module name a Module's header declares.
func ToModuleName(m *Module) string {
	return m.Header.ModuleName
}

// FindDeclarationByName returns the first declaration in m that introduces
// name as a value or type. It matches on the name only, whatever the kind;
// constructors are not searched (see FindConstructor).
func FindDeclarationByName(m *Module, name string) (Declaration, bool) {
	for _, d := range m.Declarations {
		if n, _, ok := ToDeclarationName(d); ok && n == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// FindConstructor returns the first declaration defining a constructor named
// name, and the constructor itself.
func FindConstructor(m *Module, name string) (Declaration, ValueConstructor, bool) {
	for _, d := range m.Declarations {
		for _, c := range Constructors(d) {
			if c.Name == name {
				return d, c, true
			}
		}
	}
	return Declaration{}, ValueConstructor{}, false
}

// DeclarationRange returns the enclosing range of declaration d.
func DeclarationRange(d Declaration) Range {
	return d.Range
}

// ChildExpressions lists the direct sub-expressions of e a position-directed
// walk descends through. Let declarations are not included; walkers handle
// their nested bodies and binders explicitly.
func ChildExpressions(e Expression) []Expression {
	switch e.Kind {
	case ExprApplication:
		return append(derefExprs(e.AppFunction), e.AppArgs...)
	case ExprOperatorApplication:
		return derefExprs(e.Left, e.Right)
	case ExprIfBlock:
		return derefExprs(e.IfCond, e.IfThen, e.IfElse)
	case ExprCase:
		children := derefExprs(e.CaseScrutinee)
		for _, b := range e.CaseBranches {
			children = append(children, b.Body)
		}
		return children
	case ExprLambda:
		return derefExprs(e.LambdaBody)
	case ExprParenthesized, ExprNegation:
		return derefExprs(e.Inner)
	case ExprTupled, ExprList:
		return e.Items
	case ExprLet:
		return derefExprs(e.LetBody)
	case ExprRecord, ExprRecordUpdate:
		children := make([]Expression, 0, len(e.RecordSetters))
		for _, s := range e.RecordSetters {
			children = append(children, s.Value)
		}
		return children
	case ExprRecordAccess:
		return derefExprs(e.RecordAccessTarget)
	default:
		return nil
	}
}

// ChildTypeAnnotations lists the direct sub-annotations of t.
func ChildTypeAnnotations(t TypeAnnotation) []TypeAnnotation {
	switch t.Kind {
	case TypeTyped:
		return t.TypedArgs
	case TypeFunction:
		var children []TypeAnnotation
		if t.FunctionLeft != nil {
			children = append(children, *t.FunctionLeft)
		}
		if t.FunctionRight != nil {
			children = append(children, *t.FunctionRight)
		}
		return children
	case TypeTupled:
		return t.TupledTypes
	case TypeRecord, TypeGenericRecord:
		children := make([]TypeAnnotation, 0, len(t.RecordFields))
		for _, f := range t.RecordFields {
			children = append(children, f.Type)
		}
		return children
	default:
		return nil
	}
}

// ChildPatterns lists the direct sub-patterns of p.
func ChildPatterns(p Pattern) []Pattern {
	switch p.Kind {
	case PatternNamed:
		return p.SubPatterns
	case PatternTuple, PatternList:
		return p.Items
	case PatternUncons:
		var children []Pattern
		if p.Head != nil {
			children = append(children, *p.Head)
		}
		if p.Tail != nil {
			children = append(children, *p.Tail)
		}
		return children
	case PatternAs:
		if p.Inner != nil {
			return []Pattern{*p.Inner}
		}
	case PatternParenthesized:
		if p.Parenthesized != nil {
			return []Pattern{*p.Parenthesized}
		}
	}
	return nil
}

func derefExprs(exprs ...*Expression) []Expression {
	out := make([]Expression, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}
