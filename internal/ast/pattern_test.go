package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefinitionNames(t *testing.T) {
	varP := func(name string) Pattern { return Pattern{Kind: PatternVar, Name: name} }

	cases := map[string]struct {
		reason  string
		pattern Pattern
		want    []string
	}{
		"Wildcard": {
			reason:  "A wildcard binds nothing.",
			pattern: Pattern{Kind: PatternWildcard},
		},
		"Var": {
			reason:  "A var binds itself.",
			pattern: varP("model"),
			want:    []string{"model"},
		},
		"As": {
			reason: "An as-pattern binds its inner binders plus the alias.",
			pattern: Pattern{Kind: PatternAs, As: "whole", Inner: &Pattern{
				Kind: PatternTuple, Items: []Pattern{varP("a"), varP("b")},
			}},
			want: []string{"a", "b", "whole"},
		},
		"Uncons": {
			reason: "An uncons binds head and tail binders.",
			pattern: Pattern{Kind: PatternUncons,
				Head: &Pattern{Kind: PatternVar, Name: "hd"},
				Tail: &Pattern{Kind: PatternVar, Name: "tl"},
			},
			want: []string{"hd", "tl"},
		},
		"NamedSubpatterns": {
			reason: "A constructor pattern binds its sub-pattern binders, not its own name.",
			pattern: Pattern{Kind: PatternNamed, QualifiedName: "SetName",
				SubPatterns: []Pattern{varP("name")},
			},
			want: []string{"name"},
		},
		"Record": {
			reason:  "A record pattern binds each field name.",
			pattern: Pattern{Kind: PatternRecord, FieldNames: []string{"name", "age"}},
			want:    []string{"name", "age"},
		},
		"Parenthesized": {
			reason:  "Parentheses are transparent.",
			pattern: Pattern{Kind: PatternParenthesized, Parenthesized: &Pattern{Kind: PatternVar, Name: "x"}},
			want:    []string{"x"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, DefinitionNames(tc.pattern)); diff != "" {
				t.Errorf("\n%s\nDefinitionNames(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}
