package api

import (
	"fmt"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// UUIDScalar represents a universally unique identifier in canonical string form
var UUIDScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "UUID",
	Description: "UUID scalar type represents a universally unique identifier",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case uuid.UUID:
			return v.String()
		case *uuid.UUID:
			if v == nil {
				return nil
			}
			return v.String()
		case string:
			if u, err := uuid.Parse(v); err == nil {
				return u.String()
			}
			return nil
		default:
			return nil
		}
	},
	// Returning nil makes graphql-go report the value as invalid
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			u, err := uuid.Parse(v)
			if err != nil {
				return nil
			}
			return u
		case uuid.UUID:
			return v
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			u, err := uuid.Parse(v.Value)
			if err != nil {
				return nil
			}
			return u
		default:
			return nil
		}
	},
})

// MemberTypeIDEnum lists the membership tiers
var MemberTypeIDEnum = graphql.NewEnum(graphql.EnumConfig{
	Name:        "MemberTypeId",
	Description: "Membership tier identifier",
	Values: graphql.EnumValueConfigMap{
		string(store.MemberTypeBasic): &graphql.EnumValueConfig{
			Value: store.MemberTypeBasic,
		},
		string(store.MemberTypeBusiness): &graphql.EnumValueConfig{
			Value: store.MemberTypeBusiness,
		},
	},
})

// Input types

var CreatePostInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreatePostInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"authorId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(UUIDScalar)},
		"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var ChangePostInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ChangePostInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"authorId": &graphql.InputObjectFieldConfig{Type: UUIDScalar},
		"title":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"content":  &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var CreateProfileInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateProfileInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"userId":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(UUIDScalar)},
		"memberTypeId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(MemberTypeIDEnum)},
		"isMale":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Boolean)},
		"yearOfBirth":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var ChangeProfileInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ChangeProfileInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"memberTypeId": &graphql.InputObjectFieldConfig{Type: MemberTypeIDEnum},
		"isMale":       &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"yearOfBirth":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

var CreateUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateUserInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"balance": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var ChangeUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ChangeUserInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"balance": &graphql.InputObjectFieldConfig{Type: graphql.Float},
	},
})

// objectTypes holds the object types, which reference each other. Fields are
// thunks so the types can be created before all of them exist.
type objectTypes struct {
	memberType *graphql.Object
	post       *graphql.Object
	profile    *graphql.Object
	user       *graphql.Object
}

func newObjectTypes() *objectTypes {
	t := &objectTypes{}

	t.memberType = graphql.NewObject(graphql.ObjectConfig{
		Name: "MemberType",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":                 &graphql.Field{Type: graphql.NewNonNull(MemberTypeIDEnum)},
				"discount":           &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
				"postsLimitPerMonth": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"profiles": &graphql.Field{
					Type:    nonNullList(t.profile),
					Resolve: resolveMemberTypeProfiles,
				},
			}
		}),
	})

	t.post = graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":       &graphql.Field{Type: graphql.NewNonNull(UUIDScalar)},
				"title":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"content":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"authorId": &graphql.Field{Type: graphql.NewNonNull(UUIDScalar)},
				"author": &graphql.Field{
					Type:    t.user,
					Resolve: resolvePostAuthor,
				},
			}
		}),
	})

	t.profile = graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":           &graphql.Field{Type: graphql.NewNonNull(UUIDScalar)},
				"isMale":       &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
				"yearOfBirth":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"userId":       &graphql.Field{Type: graphql.NewNonNull(UUIDScalar)},
				"memberTypeId": &graphql.Field{Type: graphql.NewNonNull(MemberTypeIDEnum)},
				"memberType": &graphql.Field{
					Type:    graphql.NewNonNull(t.memberType),
					Resolve: resolveProfileMemberType,
				},
				"user": &graphql.Field{
					Type:    t.user,
					Resolve: resolveProfileUser,
				},
			}
		}),
	})

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":      &graphql.Field{Type: graphql.NewNonNull(UUIDScalar)},
				"name":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"balance": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
				"profile": &graphql.Field{
					Type:    t.profile,
					Resolve: resolveUserProfile,
				},
				"posts": &graphql.Field{
					Type:    nonNullList(t.post),
					Resolve: resolveUserPosts,
				},
				"userSubscribedTo": &graphql.Field{
					Description: "Authors this user follows",
					Type:        nonNullList(t.user),
					Resolve:     resolveUserSubscribedTo,
				},
				"subscribedToUser": &graphql.Field{
					Description: "Users following this user",
					Type:        nonNullList(t.user),
					Resolve:     resolveSubscribedToUser,
				},
			}
		}),
	})

	return t
}

// nonNullList returns [T!]!
func nonNullList(t graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

// sourceOf returns the parent object of a field resolver. Parents arrive as
// pointers from single-row resolvers and as values from list resolvers.
func sourceOf[T any](p graphql.ResolveParams) (*T, error) {
	switch v := p.Source.(type) {
	case *T:
		if v != nil {
			return v, nil
		}
	case T:
		return &v, nil
	}
	var zero T
	return nil, fmt.Errorf("unexpected source %T for %T", p.Source, zero)
}
