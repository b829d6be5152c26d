package api

import (
	"fmt"
	"sort"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

func newMutationType(t *objectTypes) *graphql.Object {
	byUUID := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
	}
	edgeArgs := graphql.FieldConfigArgument{
		"userId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
		"authorId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
	}
	dto := func(input *graphql.InputObject) *graphql.ArgumentConfig {
		return &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)}
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutations",
		Fields: graphql.Fields{
			"createPost": &graphql.Field{
				Type:    t.post,
				Args:    graphql.FieldConfigArgument{"dto": dto(CreatePostInput)},
				Resolve: resolveCreatePost,
			},
			"changePost": &graphql.Field{
				Type: t.post,
				Args: graphql.FieldConfigArgument{
					"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
					"dto": dto(ChangePostInput),
				},
				Resolve: resolveChangePost,
			},
			"deletePost": &graphql.Field{
				Type:    graphql.NewNonNull(UUIDScalar),
				Args:    byUUID,
				Resolve: resolveDeletePost,
			},

			"createProfile": &graphql.Field{
				Type:    t.profile,
				Args:    graphql.FieldConfigArgument{"dto": dto(CreateProfileInput)},
				Resolve: resolveCreateProfile,
			},
			"changeProfile": &graphql.Field{
				Type: t.profile,
				Args: graphql.FieldConfigArgument{
					"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
					"dto": dto(ChangeProfileInput),
				},
				Resolve: resolveChangeProfile,
			},
			"deleteProfile": &graphql.Field{
				Type:    graphql.NewNonNull(UUIDScalar),
				Args:    byUUID,
				Resolve: resolveDeleteProfile,
			},

			"createUser": &graphql.Field{
				Type:    t.user,
				Args:    graphql.FieldConfigArgument{"dto": dto(CreateUserInput)},
				Resolve: resolveCreateUser,
			},
			"changeUser": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
					"dto": dto(ChangeUserInput),
				},
				Resolve: resolveChangeUser,
			},
			"deleteUser": &graphql.Field{
				Type:    graphql.NewNonNull(UUIDScalar),
				Args:    byUUID,
				Resolve: resolveDeleteUser,
			},

			"subscribeTo": &graphql.Field{
				Type:    graphql.NewNonNull(t.user),
				Args:    edgeArgs,
				Resolve: resolveSubscribeTo,
			},
			"unsubscribeFrom": &graphql.Field{
				Type:    graphql.NewNonNull(UUIDScalar),
				Args:    edgeArgs,
				Resolve: resolveUnsubscribeFrom,
			},
		},
	})
}

// =============================================================================
// Posts
// =============================================================================

func resolveCreatePost(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var create store.PostCreate
	if create.AuthorID, err = required[uuid.UUID](in, "authorId"); err != nil {
		return nil, err
	}
	if create.Title, err = required[string](in, "title"); err != nil {
		return nil, err
	}
	if create.Content, err = required[string](in, "content"); err != nil {
		return nil, err
	}

	post, err := rc.Store.Posts.Create(p.Context, create)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return post, nil
}

func resolveChangePost(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	if err := rc.rejectNulls(p, "dto", ChangePostInput); err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var patch store.PostPatch
	if patch.AuthorID, err = optionalFrom[uuid.UUID](in, "authorId"); err != nil {
		return nil, err
	}
	if patch.Title, err = optionalFrom[string](in, "title"); err != nil {
		return nil, err
	}
	if patch.Content, err = optionalFrom[string](in, "content"); err != nil {
		return nil, err
	}

	post, err := rc.Store.Posts.Update(p.Context, id, patch)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return post, nil
}

func resolveDeletePost(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	if _, err := rc.Store.Posts.Delete(p.Context, id); err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return id, nil
}

// =============================================================================
// Profiles
// =============================================================================

func resolveCreateProfile(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var create store.ProfileCreate
	if create.UserID, err = required[uuid.UUID](in, "userId"); err != nil {
		return nil, err
	}
	if create.MemberTypeID, err = required[store.MemberTypeID](in, "memberTypeId"); err != nil {
		return nil, err
	}
	if create.IsMale, err = required[bool](in, "isMale"); err != nil {
		return nil, err
	}
	if create.YearOfBirth, err = required[int](in, "yearOfBirth"); err != nil {
		return nil, err
	}

	profile, err := rc.Store.Profiles.Create(p.Context, create)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return profile, nil
}

func resolveChangeProfile(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	if err := rc.rejectNulls(p, "dto", ChangeProfileInput); err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var patch store.ProfilePatch
	if patch.MemberTypeID, err = optionalFrom[store.MemberTypeID](in, "memberTypeId"); err != nil {
		return nil, err
	}
	if patch.IsMale, err = optionalFrom[bool](in, "isMale"); err != nil {
		return nil, err
	}
	if patch.YearOfBirth, err = optionalFrom[int](in, "yearOfBirth"); err != nil {
		return nil, err
	}

	profile, err := rc.Store.Profiles.Update(p.Context, id, patch)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return profile, nil
}

func resolveDeleteProfile(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	if _, err := rc.Store.Profiles.Delete(p.Context, id); err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return id, nil
}

// =============================================================================
// Users
// =============================================================================

func resolveCreateUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var create store.UserCreate
	if create.Name, err = required[string](in, "name"); err != nil {
		return nil, err
	}
	if create.Balance, err = required[float64](in, "balance"); err != nil {
		return nil, err
	}

	user, err := rc.Store.Users.Create(p.Context, create)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	rc.Loader.PrimeUsers(*user)
	return user, nil
}

func resolveChangeUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	if err := rc.rejectNulls(p, "dto", ChangeUserInput); err != nil {
		return nil, err
	}
	in, err := argInput(p.Args, "dto")
	if err != nil {
		return nil, err
	}

	var patch store.UserPatch
	if patch.Name, err = optionalFrom[string](in, "name"); err != nil {
		return nil, err
	}
	if patch.Balance, err = optionalFrom[float64](in, "balance"); err != nil {
		return nil, err
	}

	rc.Loader.ForgetUser(id)
	user, err := rc.Store.Users.Update(p.Context, id, patch)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return user, nil
}

func resolveDeleteUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	rc.Loader.ForgetUser(id)
	if _, err := rc.Store.Users.Delete(p.Context, id); err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return id, nil
}

// =============================================================================
// Subscriptions
// =============================================================================

// resolveSubscribeTo makes userId follow authorId and returns the follower.
// A repeated call fails on the unique edge.
func resolveSubscribeTo(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	userID, err := argUUID(p.Args, "userId")
	if err != nil {
		return nil, err
	}
	authorID, err := argUUID(p.Args, "authorId")
	if err != nil {
		return nil, err
	}

	edge := store.Subscription{SubscriberID: userID, AuthorID: authorID}
	if _, err := rc.Store.Subscriptions.Create(p.Context, edge); err != nil {
		return nil, rc.resolveError(p.Context, err)
	}

	user, err := rc.Store.Users.FindFirst(p.Context, store.UserWhere{ID: &userID})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return user, nil
}

// resolveUnsubscribeFrom removes every matching edge. Removing nothing is
// not an error.
func resolveUnsubscribeFrom(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	userID, err := argUUID(p.Args, "userId")
	if err != nil {
		return nil, err
	}
	authorID, err := argUUID(p.Args, "authorId")
	if err != nil {
		return nil, err
	}

	where := store.SubscriptionWhere{SubscriberID: &userID, AuthorID: &authorID}
	if _, err := rc.Store.Subscriptions.DeleteMany(p.Context, where); err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return authorID, nil
}

// =============================================================================
// Argument helpers
// =============================================================================

func invalidArgument(name string, value interface{}) error {
	return &resolverError{
		code:    CodeInvalidInput,
		message: fmt.Sprintf("invalid value for %q: %v", name, value),
		err:     store.ErrInvalidInput,
	}
}

func argUUID(args map[string]interface{}, name string) (uuid.UUID, error) {
	return required[uuid.UUID](args, name)
}

func argMemberTypeID(args map[string]interface{}, name string) (store.MemberTypeID, error) {
	return required[store.MemberTypeID](args, name)
}

func argInput(args map[string]interface{}, name string) (map[string]interface{}, error) {
	return required[map[string]interface{}](args, name)
}

// required returns a coerced argument or input field that must be present
func required[T any](in map[string]interface{}, key string) (T, error) {
	var zero T
	raw, ok := in[key]
	if !ok || raw == nil {
		return zero, invalidArgument(key, raw)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, invalidArgument(key, raw)
	}
	return v, nil
}

// optionalFrom turns an input field into a patch value. An absent field
// leaves the column unchanged.
func optionalFrom[T any](in map[string]interface{}, key string) (store.Optional[T], error) {
	raw, ok := in[key]
	if !ok || raw == nil {
		return store.None[T](), nil
	}
	v, ok := raw.(T)
	if !ok {
		return store.None[T](), invalidArgument(key, raw)
	}
	return store.Some(v), nil
}

// rejectNulls fails when the client sent an explicit null for a field of the
// patch input arg. Coercion drops null input fields, so they are found in
// the argument AST and the raw request variables instead.
func (rc *RequestContext) rejectNulls(p graphql.ResolveParams, arg string, input *graphql.InputObject) error {
	if len(p.Info.FieldASTs) == 0 {
		return nil
	}
	fields := input.Fields()

	var nulls []string
	for _, a := range p.Info.FieldASTs[0].Arguments {
		if a.Name == nil || a.Name.Value != arg {
			continue
		}
		switch value := a.Value.(type) {
		case *ast.Variable:
			obj, _ := rc.variables[value.Name.Value].(map[string]interface{})
			for name, v := range obj {
				if _, known := fields[name]; known && v == nil {
					nulls = append(nulls, name)
				}
			}
		case *ast.ObjectValue:
			for _, f := range value.Fields {
				ref, ok := f.Value.(*ast.Variable)
				if !ok {
					continue
				}
				if v, present := rc.variables[ref.Name.Value]; present && v == nil {
					nulls = append(nulls, f.Name.Value)
				}
			}
		}
	}
	if len(nulls) == 0 {
		return nil
	}

	sort.Strings(nulls)
	return &resolverError{
		code:    CodeInvalidInput,
		message: fmt.Sprintf("%q cannot be null", nulls[0]),
		err:     store.ErrInvalidInput,
	}
}
