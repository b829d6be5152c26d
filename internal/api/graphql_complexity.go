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

const (
	fieldCost        = 1
	listFieldCost    = 10
	mutationBaseCost = 10
	// multipliers stop growing here so deeply nested lists cannot overflow
	maxMultiplier = 1_000_000
)

// complexityLimitRule returns a validation rule that rejects operations whose
// estimated cost exceeds max. List fields cost more and multiply the cost of
// everything selected beneath them.
func complexityLimitRule(max int) graphql.ValidationRuleFn {
	return func(context *graphql.ValidationContext) *graphql.ValidationRuleInstance {
		return &graphql.ValidationRuleInstance{
			VisitorOpts: &visitor.VisitorOptions{
				KindFuncMap: map[string]visitor.NamedVisitFuncs{
					kinds.OperationDefinition: {
						Kind: func(p visitor.VisitFuncParams) (string, interface{}) {
							op, ok := p.Node.(*ast.OperationDefinition)
							if !ok || op == nil {
								return visitor.ActionNoChange, nil
							}
							cost := operationComplexity(context, op)
							if cost > max {
								context.ReportError(gqlerrors.NewError(
									fmt.Sprintf("query complexity %d exceeds maximum of %d", cost, max),
									[]ast.Node{op}, "", nil, []int{}, nil,
								))
							}
							return visitor.ActionNoChange, nil
						},
					},
				},
			},
		}
	}
}

// operationComplexity estimates the cost of executing op
func operationComplexity(context *graphql.ValidationContext, op *ast.OperationDefinition) int {
	schema := context.Schema()

	var root *graphql.Object
	base := 0
	switch op.Operation {
	case ast.OperationTypeMutation:
		root = schema.MutationType()
		base = mutationBaseCost
	case ast.OperationTypeSubscription:
		root = schema.SubscriptionType()
	default:
		root = schema.QueryType()
	}
	if root == nil {
		return base
	}

	c := complexityCounter{context: context, inPath: make(map[string]bool)}
	return base + c.selectionSet(root, op.SelectionSet, 1)
}

type complexityCounter struct {
	context *graphql.ValidationContext
	inPath  map[string]bool
}

func (c *complexityCounter) selectionSet(parent graphql.Type, set *ast.SelectionSet, multiplier int) int {
	if set == nil {
		return 0
	}
	total := 0
	for _, selection := range set.Selections {
		total += c.selection(parent, selection, multiplier)
	}
	return total
}

func (c *complexityCounter) selection(parent graphql.Type, selection ast.Selection, multiplier int) int {
	switch s := selection.(type) {
	case *ast.Field:
		if s.Name == nil || strings.HasPrefix(s.Name.Value, "__") {
			return 0
		}
		obj, ok := parent.(*graphql.Object)
		if !ok {
			return 0
		}
		def, ok := obj.Fields()[s.Name.Value]
		if !ok || def == nil {
			return 0
		}

		cost := fieldCost
		childMultiplier := multiplier
		if isListType(def.Type) {
			cost = listFieldCost
			childMultiplier = clampMultiplier(multiplier * listFieldCost)
		}
		return cost*multiplier + c.selectionSet(unwrapType(def.Type), s.SelectionSet, childMultiplier)

	case *ast.InlineFragment:
		target := parent
		if s.TypeCondition != nil && s.TypeCondition.Name != nil {
			if t := c.context.Schema().Type(s.TypeCondition.Name.Value); t != nil {
				target = t
			}
		}
		return c.selectionSet(target, s.SelectionSet, multiplier)

	case *ast.FragmentSpread:
		if s.Name == nil {
			return 0
		}
		name := s.Name.Value
		fragment := c.context.Fragment(name)
		if fragment == nil || c.inPath[name] {
			return 0
		}
		c.inPath[name] = true
		defer delete(c.inPath, name)

		target := parent
		if fragment.TypeCondition != nil && fragment.TypeCondition.Name != nil {
			if t := c.context.Schema().Type(fragment.TypeCondition.Name.Value); t != nil {
				target = t
			}
		}
		return c.selectionSet(target, fragment.SelectionSet, multiplier)
	}
	return 0
}

func isListType(t graphql.Type) bool {
	if nonNull, ok := t.(*graphql.NonNull); ok {
		t = nonNull.OfType
	}
	_, ok := t.(*graphql.List)
	return ok
}

// unwrapType strips List and NonNull wrappers
func unwrapType(t graphql.Type) graphql.Type {
	for {
		switch wrapped := t.(type) {
		case *graphql.List:
			t = wrapped.OfType
		case *graphql.NonNull:
			t = wrapped.OfType
		default:
			return t
		}
	}
}

func clampMultiplier(m int) int {
	if m > maxMultiplier {
		return maxMultiplier
	}
	return m
}
