package api

import (
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
)

func newQueryType(t *objectTypes) *graphql.Object {
	byUUID := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(UUIDScalar)},
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"memberTypes": &graphql.Field{
				Type:    nonNullList(t.memberType),
				Resolve: resolveMemberTypes,
			},
			"memberType": &graphql.Field{
				Type: t.memberType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(MemberTypeIDEnum)},
				},
				Resolve: resolveMemberType,
			},
			"posts": &graphql.Field{
				Type:    nonNullList(t.post),
				Resolve: resolvePosts,
			},
			"post": &graphql.Field{
				Type:    t.post,
				Args:    byUUID,
				Resolve: resolvePost,
			},
			"users": &graphql.Field{
				Type:    nonNullList(t.user),
				Resolve: resolveUsers,
			},
			"user": &graphql.Field{
				Type:    t.user,
				Args:    byUUID,
				Resolve: resolveUser,
			},
			"profiles": &graphql.Field{
				Type:    nonNullList(t.profile),
				Resolve: resolveProfiles,
			},
			"profile": &graphql.Field{
				Type:    t.profile,
				Args:    byUUID,
				Resolve: resolveProfile,
			},
		},
	})
}

// nullIfNotFound turns a missing row into a null field value. Lookups by id
// on the query root and nullable relations return null rather than an error.
func nullIfNotFound[T any](rc *RequestContext, p graphql.ResolveParams, v *T, err error) (interface{}, error) {
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, rc.resolveError(p.Context, err)
	}
	return v, nil
}

// =============================================================================
// Query root
// =============================================================================

func resolveMemberTypes(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.MemberTypes.FindMany(p.Context, store.MemberTypeWhere{})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return items, nil
}

func resolveMemberType(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argMemberTypeID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	mt, err := rc.Loader.MemberType(p.Context, id)
	return nullIfNotFound(rc, p, mt, err)
}

func resolvePosts(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.Posts.FindMany(p.Context, store.PostWhere{})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return items, nil
}

func resolvePost(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	post, err := rc.Store.Posts.FindFirst(p.Context, store.PostWhere{ID: &id})
	return nullIfNotFound(rc, p, post, err)
}

func resolveUsers(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.Users.FindMany(p.Context, store.UserWhere{})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	rc.Loader.PrimeUsers(items...)
	return items, nil
}

func resolveUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	user, err := rc.Loader.User(p.Context, id)
	return nullIfNotFound(rc, p, user, err)
}

func resolveProfiles(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.Profiles.FindMany(p.Context, store.ProfileWhere{})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return items, nil
}

func resolveProfile(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	id, err := argUUID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	profile, err := rc.Store.Profiles.FindFirst(p.Context, store.ProfileWhere{ID: &id})
	return nullIfNotFound(rc, p, profile, err)
}

// =============================================================================
// Relation fields
// =============================================================================

func resolveMemberTypeProfiles(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	mt, err := sourceOf[store.MemberType](p)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.Profiles.FindMany(p.Context, store.ProfileWhere{MemberTypeID: &mt.ID})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return items, nil
}

func resolvePostAuthor(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	post, err := sourceOf[store.Post](p)
	if err != nil {
		return nil, err
	}
	user, err := rc.Loader.User(p.Context, post.AuthorID)
	return nullIfNotFound(rc, p, user, err)
}

func resolveProfileMemberType(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	profile, err := sourceOf[store.Profile](p)
	if err != nil {
		return nil, err
	}
	mt, err := rc.Loader.MemberType(p.Context, profile.MemberTypeID)
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return mt, nil
}

func resolveProfileUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	profile, err := sourceOf[store.Profile](p)
	if err != nil {
		return nil, err
	}
	user, err := rc.Loader.User(p.Context, profile.UserID)
	return nullIfNotFound(rc, p, user, err)
}

func resolveUserProfile(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	user, err := sourceOf[store.User](p)
	if err != nil {
		return nil, err
	}
	profile, err := rc.Store.Profiles.FindFirst(p.Context, store.ProfileWhere{UserID: &user.ID})
	return nullIfNotFound(rc, p, profile, err)
}

func resolveUserPosts(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	user, err := sourceOf[store.User](p)
	if err != nil {
		return nil, err
	}
	items, err := rc.Store.Posts.FindMany(p.Context, store.PostWhere{AuthorID: &user.ID})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	return items, nil
}

// resolveUserSubscribedTo lists the authors the user follows
func resolveUserSubscribedTo(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	user, err := sourceOf[store.User](p)
	if err != nil {
		return nil, err
	}
	edges, err := rc.Store.Subscriptions.FindMany(p.Context, store.SubscriptionWhere{SubscriberID: &user.ID})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.AuthorID)
	}
	return usersByID(rc, p, ids)
}

// resolveSubscribedToUser lists the users following the user
func resolveSubscribedToUser(p graphql.ResolveParams) (interface{}, error) {
	rc, err := requestContextFrom(p.Context)
	if err != nil {
		return nil, err
	}
	user, err := sourceOf[store.User](p)
	if err != nil {
		return nil, err
	}
	edges, err := rc.Store.Subscriptions.FindMany(p.Context, store.SubscriptionWhere{AuthorID: &user.ID})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.SubscriberID)
	}
	return usersByID(rc, p, ids)
}

func usersByID(rc *RequestContext, p graphql.ResolveParams, ids []uuid.UUID) (interface{}, error) {
	if len(ids) == 0 {
		return []store.User{}, nil
	}
	users, err := rc.Store.Users.FindMany(p.Context, store.UserWhere{IDIn: ids})
	if err != nil {
		return nil, rc.resolveError(p.Context, err)
	}
	rc.Loader.PrimeUsers(users...)
	return users, nil
}
