package nav

import (
	"fmt"
	"strings"

	"github.com/elmtools/elmls/internal/ast"
)

// RenderTypeAnnotation renders a type annotation structurally: generics as
// their variable name, unit as (), typed as Module.Name args, functions as
// L -> R with parentheses around a left-hand function, tuples as ( a, b ),
// records as { f : T } and generic records as { r | f : T }.
func RenderTypeAnnotation(t ast.TypeAnnotation) string {
	switch t.Kind {
	case ast.TypeGeneric:
		return t.GenericName
	case ast.TypeUnit:
		return "()"
	case ast.TypeTyped:
		name := qualifiedTypeName(t)
		if len(t.TypedArgs) == 0 {
			return name
		}
		parts := []string{name}
		for _, arg := range t.TypedArgs {
			parts = append(parts, renderArgument(arg))
		}
		return strings.Join(parts, " ")
	case ast.TypeFunction:
		left, right := "", ""
		if t.FunctionLeft != nil {
			left = RenderTypeAnnotation(*t.FunctionLeft)
			if t.FunctionLeft.Kind == ast.TypeFunction {
				left = "(" + left + ")"
			}
		}
		if t.FunctionRight != nil {
			right = RenderTypeAnnotation(*t.FunctionRight)
		}
		return left + " -> " + right
	case ast.TypeTupled:
		parts := make([]string, 0, len(t.TupledTypes))
		for _, item := range t.TupledTypes {
			parts = append(parts, RenderTypeAnnotation(item))
		}
		return "( " + strings.Join(parts, ", ") + " )"
	case ast.TypeRecord:
		return "{ " + renderFields(t.RecordFields) + " }"
	case ast.TypeGenericRecord:
		return "{ " + t.RecordGeneric + " | " + renderFields(t.RecordFields) + " }"
	default:
		return ""
	}
}

// renderArgument parenthesizes arguments that would otherwise bind wrong:
// functions and applied types.
func renderArgument(t ast.TypeAnnotation) string {
	rendered := RenderTypeAnnotation(t)
	if t.Kind == ast.TypeFunction || (t.Kind == ast.TypeTyped && len(t.TypedArgs) > 0) {
		return "(" + rendered + ")"
	}
	return rendered
}

func renderFields(fields []ast.RecordField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+" : "+RenderTypeAnnotation(f.Type))
	}
	return strings.Join(parts, ", ")
}

func qualifiedTypeName(t ast.TypeAnnotation) string {
	if len(t.ModuleParts) == 0 {
		return t.TypedName
	}
	return strings.Join(t.ModuleParts, ".") + "." + t.TypedName
}

// renderCustomType reconstructs the `type N = C1 a | C2` block a hover shows
// for a custom type declared in project source.
func renderCustomType(td *ast.TypeDeclDeclaration) string {
	header := "type " + td.Name
	if len(td.Generics) > 0 {
		header += " " + strings.Join(td.Generics, " ")
	}
	var b strings.Builder
	b.WriteString(header)
	for i, c := range td.Constructors {
		sep := "    | "
		if i == 0 {
			sep = "    = "
		}
		b.WriteString("\n" + sep + renderConstructor(c))
	}
	return b.String()
}

func renderConstructor(c ast.ValueConstructor) string {
	parts := []string{c.Name}
	for _, arg := range c.Arguments {
		parts = append(parts, renderArgument(arg))
	}
	return strings.Join(parts, " ")
}

func fence(body string) string {
	return "```elm\n" + body + "\n```"
}

func moduleFooter(module string) string {
	return fmt.Sprintf("*%s*", module)
}

// cleanDocComment strips the {-| ... -} markers off a documentation comment.
func cleanDocComment(doc string) string {
	doc = strings.TrimSpace(doc)
	doc = strings.TrimPrefix(doc, "{-|")
	doc = strings.TrimSuffix(doc, "-}")
	return strings.TrimSpace(doc)
}
