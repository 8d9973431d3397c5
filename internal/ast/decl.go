package ast

// DeclarationKind tags the closed set of top-level declaration shapes.
type DeclarationKind int

const (
	// DeclFunction is a value/function binding, with an optional signature
	// and doc comment.
	DeclFunction DeclarationKind = iota
	// DeclTypeAlias is `type alias N ... = ...`.
	DeclTypeAlias
	// DeclTypeDecl is a custom type: `type N ... = Ctor1 ... | Ctor2 ...`.
	DeclTypeDecl
	// DeclPort is `port name : T`.
	DeclPort
	// DeclDestructuring is an anonymous top-level pattern binding.
	DeclDestructuring
	// DeclInfix declares operator associativity/precedence.
	DeclInfix
)

// Declaration is one top-level binding in a Module.
type Declaration struct {
	Kind  DeclarationKind
	Range Range

	// DeclFunction
	Function *FunctionDeclaration

	// DeclTypeAlias
	TypeAlias *TypeAliasDeclaration

	// DeclTypeDecl
	TypeDecl *TypeDeclDeclaration

	// DeclPort
	Port *PortDeclaration

	// DeclDestructuring
	Destructuring *DestructuringDeclaration

	// DeclInfix
	Infix *InfixDeclaration
}

// FunctionDeclaration is a named value binding.
type FunctionDeclaration struct {
	DocComment *string
	Signature  *TypeSignature
	Name       string
	NameRange  Range
	Arguments  []Pattern
	Expression Expression
}

// TypeSignature is the optional `name : Type` annotation preceding a
// function's implementation.
type TypeSignature struct {
	Name      string
	NameRange Range
	Type      TypeAnnotation
	Range     Range
}

// TypeAliasDeclaration is `type alias N generics = annotation`.
type TypeAliasDeclaration struct {
	DocComment *string
	Name       string
	NameRange  Range
	Generics   []string
	Type       TypeAnnotation
}

// TypeDeclDeclaration is a custom type with one or more constructors.
type TypeDeclDeclaration struct {
	DocComment   *string
	Name         string
	NameRange    Range
	Generics     []string
	Constructors []ValueConstructor
}

// ValueConstructor is one `Ctor arg1 arg2` alternative of a custom type.
type ValueConstructor struct {
	Name      string
	NameRange Range
	Arguments []TypeAnnotation
}

// PortDeclaration is a `port name : T` signature with no body.
type PortDeclaration struct {
	Name      string
	NameRange Range
	Type      TypeAnnotation
}

// DestructuringDeclaration is an anonymous top-level pattern = expression
// binding.
type DestructuringDeclaration struct {
	Pattern    Pattern
	Expression Expression
}

// InfixDeclaration declares an operator's associativity, precedence, and the
// function it aliases.
type InfixDeclaration struct {
	Operator   string
	Precedence int
	Function   string
}

// TypeAnnotationKind tags the closed set of type-annotation shapes.
type TypeAnnotationKind int

const (
	// TypeGeneric is a lowercase type variable.
	TypeGeneric TypeAnnotationKind = iota
	// TypeUnit is `()`.
	TypeUnit
	// TypeTyped is `Module.Name arg1 arg2`.
	TypeTyped
	// TypeFunction is `L -> R`.
	TypeFunction
	// TypeTupled is `( a, b )`.
	TypeTupled
	// TypeRecord is `{ f : T, ... }`.
	TypeRecord
	// TypeGenericRecord is `{ r | f : T, ... }`.
	TypeGenericRecord
)

// TypeAnnotation is one node of a type signature, alias body, constructor
// argument, or port signature.
type TypeAnnotation struct {
	Kind  TypeAnnotationKind
	Range Range

	// TypeGeneric
	GenericName string

	// TypeTyped
	ModuleParts []string
	TypedName   string
	TypedArgs   []TypeAnnotation

	// TypeFunction
	FunctionLeft  *TypeAnnotation
	FunctionRight *TypeAnnotation

	// TypeTupled
	TupledTypes []TypeAnnotation

	// TypeRecord / TypeGenericRecord
	RecordGeneric string
	RecordFields  []RecordField
}

// RecordField is one `name : T` entry of a record type annotation.
type RecordField struct {
	Name string
	Type TypeAnnotation
}
