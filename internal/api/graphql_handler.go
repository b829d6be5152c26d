package api

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/fluxbase-eu/socialgraph/internal/middleware"
	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/kinds"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/graphql-go/graphql/language/visitor"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// Rejection reasons recorded when a request never reaches execution
const (
	rejectSyntax     = "syntax"
	rejectDepth      = "depth"
	rejectComplexity = "complexity"
	rejectValidation = "validation"
)

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema  graphql.Schema
	store   *store.Client
	config  *config.GraphQLConfig
	metrics *observability.Metrics
	rules   []graphql.ValidationRuleFn
}

// GraphQLRequest represents a GraphQL HTTP request body
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response body
type GraphQLResponse struct {
	Data   interface{}    `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message    string                 `json:"message"`
	Locations  []GraphQLErrorLocation `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLErrorLocation represents the location of a GraphQL error in the query
type GraphQLErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// NewGraphQLHandler creates a new GraphQL handler. metrics may be nil.
func NewGraphQLHandler(client *store.Client, cfg *config.GraphQLConfig, metrics *observability.Metrics) *GraphQLHandler {
	// A non-empty rule list replaces the specified rules, so start from them
	rules := append([]graphql.ValidationRuleFn{}, graphql.SpecifiedRules...)
	rules = append(rules, depthLimitRule)
	if cfg.MaxComplexity > 0 {
		rules = append(rules, complexityLimitRule(cfg.MaxComplexity))
	}
	if !cfg.Introspection {
		rules = append(rules, noIntrospectionRule)
	}

	return &GraphQLHandler{
		schema:  graphqlSchema,
		store:   client,
		config:  cfg,
		metrics: metrics,
		rules:   rules,
	}
}

// HandleGraphQL handles POST / and POST /api/v1/graphql requests
func (h *GraphQLHandler) HandleGraphQL(c *fiber.Ctx) error {
	var req GraphQLRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(GraphQLResponse{
			Errors: []GraphQLError{{
				Message: "Invalid JSON in request body",
			}},
		})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(GraphQLResponse{
			Errors: []GraphQLError{{
				Message: "Query string is required",
			}},
		})
	}

	if req.OperationName != "" {
		c.Locals("graphql_operation", req.OperationName)
		middleware.SetSpanAttributes(c, attribute.String("graphql.operation.name", req.OperationName))
	}

	result := h.Execute(c.UserContext(), req)

	return c.JSON(GraphQLResponse{
		Data:   result.Data,
		Errors: convertErrors(result.Errors),
	})
}

// Execute parses, validates and runs one request. Parse and validation
// errors end the request before any resolver runs.
func (h *GraphQLHandler) Execute(ctx context.Context, req GraphQLRequest) *graphql.Result {
	startTime := time.Now()
	ctx, span := observability.StartGraphQLSpan(ctx, req.OperationName)

	src := source.NewSource(&source.Source{
		Body: []byte(req.Query),
		Name: "GraphQL request",
	})
	doc, err := parser.Parse(parser.ParseParams{Source: src})
	if err != nil {
		h.reject(rejectSyntax)
		observability.EndSpan(span, err)
		return &graphql.Result{Errors: gqlerrors.FormatErrors(err)}
	}

	validation := graphql.ValidateDocument(&h.schema, doc, h.rules)
	if !validation.IsValid {
		h.reject(rejectionReason(validation.Errors))
		observability.EndSpan(span, validation.Errors[0])
		return &graphql.Result{Errors: validation.Errors}
	}

	opType := operationType(doc, req.OperationName)
	rc := NewRequestContext(h.store, h.metrics)
	rc.variables = req.Variables
	result := graphql.Execute(graphql.ExecuteParams{
		Schema:        h.schema,
		AST:           doc,
		OperationName: req.OperationName,
		Args:          req.Variables,
		Context:       withRequestContext(ctx, rc),
	})

	duration := time.Since(startTime)
	if h.metrics != nil {
		h.metrics.RecordGraphQLOperation(opType, duration, result.HasErrors())
	}

	var spanErr error
	if result.HasErrors() {
		spanErr = result.Errors[0]
	}
	observability.EndSpan(span, spanErr)

	log.Debug().
		Str("operation", req.OperationName).
		Str("type", opType).
		Int("errors", len(result.Errors)).
		Dur("duration", duration).
		Msg("GraphQL query executed")

	return result
}

func (h *GraphQLHandler) reject(reason string) {
	if h.metrics != nil {
		h.metrics.RecordGraphQLRejection(reason)
	}
	log.Debug().Str("reason", reason).Msg("GraphQL request rejected")
}

// HandleIntrospection handles GET /api/v1/graphql (returns introspection data)
func (h *GraphQLHandler) HandleIntrospection(c *fiber.Ctx) error {
	if !h.config.Introspection {
		return c.Status(fiber.StatusForbidden).JSON(GraphQLResponse{
			Errors: []GraphQLError{{
				Message: "Introspection is disabled",
			}},
		})
	}

	result := h.Execute(c.UserContext(), GraphQLRequest{
		Query:         introspectionQuery,
		OperationName: "IntrospectionQuery",
	})

	return c.JSON(GraphQLResponse{
		Data:   result.Data,
		Errors: convertErrors(result.Errors),
	})
}

// RegisterRoutes registers GraphQL routes with the Fiber app. Handlers run
// after the given middlewares (rate limiting).
func (h *GraphQLHandler) RegisterRoutes(app *fiber.App, middlewares ...fiber.Handler) {
	post := append(append([]fiber.Handler{}, middlewares...), h.HandleGraphQL)
	app.Post("/", post...)

	graphqlGroup := app.Group("/api/v1/graphql")
	graphqlGroup.Post("/", post...)
	graphqlGroup.Get("/", h.HandleIntrospection)
}

// convertErrors converts graphql-go errors to our format
func convertErrors(errors []gqlerrors.FormattedError) []GraphQLError {
	if len(errors) == 0 {
		return nil
	}

	result := make([]GraphQLError, len(errors))
	for i, err := range errors {
		gqlErr := GraphQLError{
			Message:    err.Message,
			Path:       err.Path,
			Extensions: err.Extensions,
		}
		if len(err.Locations) > 0 {
			gqlErr.Locations = make([]GraphQLErrorLocation, len(err.Locations))
			for j, loc := range err.Locations {
				gqlErr.Locations[j] = GraphQLErrorLocation{
					Line:   loc.Line,
					Column: loc.Column,
				}
			}
		}
		result[i] = gqlErr
	}
	return result
}

// rejectionReason classifies validation errors for metrics
func rejectionReason(errs []gqlerrors.FormattedError) string {
	for _, err := range errs {
		switch {
		case strings.Contains(err.Message, "exceeds maximum operation depth"):
			return rejectDepth
		case strings.HasPrefix(err.Message, "query complexity"):
			return rejectComplexity
		}
	}
	return rejectValidation
}

// operationType returns query, mutation or subscription for the operation
// that will run
func operationType(doc *ast.Document, operationName string) string {
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName == "" || (op.Name != nil && op.Name.Value == operationName) {
			if op.Operation == "" {
				return ast.OperationTypeQuery
			}
			return op.Operation
		}
	}
	return ast.OperationTypeQuery
}

// noIntrospectionRule rejects __schema and __type when introspection is off.
// __typename stays available.
func noIntrospectionRule(context *graphql.ValidationContext) *graphql.ValidationRuleInstance {
	return &graphql.ValidationRuleInstance{
		VisitorOpts: &visitor.VisitorOptions{
			KindFuncMap: map[string]visitor.NamedVisitFuncs{
				kinds.Field: {
					Kind: func(p visitor.VisitFuncParams) (string, interface{}) {
						field, ok := p.Node.(*ast.Field)
						if !ok || field.Name == nil {
							return visitor.ActionNoChange, nil
						}
						if name := field.Name.Value; name == "__schema" || name == "__type" {
							context.ReportError(gqlerrors.NewError(
								"GraphQL introspection is disabled",
								[]ast.Node{field}, "", nil, []int{}, nil,
							))
						}
						return visitor.ActionNoChange, nil
					},
				},
			},
		},
	}
}

const introspectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
    directives {
      name
      description
      locations
      args {
        ...InputValue
      }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}
`
