package api

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/kinds"
	"github.com/graphql-go/graphql/language/visitor"
)

// MaxQueryDepth is the deepest nesting of selection sets an operation may use.
// Top-level fields sit at depth 0.
const MaxQueryDepth = 5

// depthLimitRule rejects operations whose selections nest deeper than
// MaxQueryDepth. Introspection fields are not counted.
func depthLimitRule(context *graphql.ValidationContext) *graphql.ValidationRuleInstance {
	return &graphql.ValidationRuleInstance{
		VisitorOpts: &visitor.VisitorOptions{
			KindFuncMap: map[string]visitor.NamedVisitFuncs{
				kinds.OperationDefinition: {
					Kind: func(p visitor.VisitFuncParams) (string, interface{}) {
						op, ok := p.Node.(*ast.OperationDefinition)
						if !ok || op == nil {
							return visitor.ActionNoChange, nil
						}
						name := ""
						if op.Name != nil {
							name = op.Name.Value
						}
						w := depthWalker{
							context:   context,
							operation: name,
							maxDepth:  MaxQueryDepth,
							inPath:    make(map[string]bool),
						}
						if _, err := w.selectionSetDepth(op.SelectionSet, 0); err != nil {
							context.ReportError(gqlerrors.NewError(err.Error(), []ast.Node{err.field}, "", nil, []int{}, nil))
						}
						return visitor.ActionNoChange, nil
					},
				},
			},
		},
	}
}

type depthWalker struct {
	context   *graphql.ValidationContext
	operation string
	maxDepth  int
	// fragments currently being expanded, guards against cycles that
	// NoFragmentCycles reports separately
	inPath map[string]bool
}

// depthExceeded points at the first field that sits past the limit
type depthExceeded struct {
	message string
	field   *ast.Field
}

func (e *depthExceeded) Error() string {
	return e.message
}

func (w *depthWalker) exceeded(field *ast.Field) *depthExceeded {
	return &depthExceeded{
		message: fmt.Sprintf("'%s' exceeds maximum operation depth of %d", w.operation, w.maxDepth),
		field:   field,
	}
}

// selectionSetDepth returns how many levels below depth the selection set reaches
func (w *depthWalker) selectionSetDepth(set *ast.SelectionSet, depth int) (int, *depthExceeded) {
	if set == nil {
		return 0, nil
	}

	max := 0
	for _, selection := range set.Selections {
		d, err := w.selectionDepth(selection, depth)
		if err != nil {
			return 0, err
		}
		if d > max {
			max = d
		}
	}
	return max, nil
}

func (w *depthWalker) selectionDepth(selection ast.Selection, depth int) (int, *depthExceeded) {
	switch s := selection.(type) {
	case *ast.Field:
		if s.Name != nil && strings.HasPrefix(s.Name.Value, "__") {
			return 0, nil
		}
		if depth > w.maxDepth {
			return 0, w.exceeded(s)
		}
		if s.SelectionSet == nil || len(s.SelectionSet.Selections) == 0 {
			return 0, nil
		}
		child, err := w.selectionSetDepth(s.SelectionSet, depth+1)
		if err != nil {
			return 0, err
		}
		return 1 + child, nil

	case *ast.InlineFragment:
		return w.selectionSetDepth(s.SelectionSet, depth)

	case *ast.FragmentSpread:
		if s.Name == nil {
			return 0, nil
		}
		name := s.Name.Value
		fragment := w.context.Fragment(name)
		if fragment == nil || w.inPath[name] {
			return 0, nil
		}
		w.inPath[name] = true
		defer delete(w.inPath, name)
		return w.selectionSetDepth(fragment.SelectionSet, depth)
	}
	return 0, nil
}
