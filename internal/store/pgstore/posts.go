package pgstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const postsTable = "posts"

var postColumns = []string{"id", "title", "content", "author_id"}

type postRepo struct {
	db database.Executor
}

func scanPost(row pgx.CollectableRow) (store.Post, error) {
	var p store.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID)
	return p, err
}

func postFilters(w store.PostWhere) []Filter {
	var filters []Filter
	if w.ID != nil {
		filters = append(filters, eq("id", *w.ID))
	}
	if w.AuthorID != nil {
		filters = append(filters, eq("author_id", *w.AuthorID))
	}
	if w.AuthorIDIn != nil {
		filters = append(filters, anyOf("author_id", uuidStrings(w.AuthorIDIn)))
	}
	return filters
}

func (r *postRepo) Create(ctx context.Context, in store.PostCreate) (*store.Post, error) {
	sql, args := NewQueryBuilder(postsTable).
		WithReturning(postColumns).
		BuildInsert(map[string]interface{}{
			"id":        uuid.New(),
			"title":     in.Title,
			"content":   in.Content,
			"author_id": in.AuthorID,
		})
	return queryOne(ctx, r.db, "create", "post", sql, args, scanPost)
}

func (r *postRepo) Update(ctx context.Context, id uuid.UUID, patch store.PostPatch) (*store.Post, error) {
	if patch.IsEmpty() {
		return r.FindFirst(ctx, store.PostWhere{ID: &id})
	}

	data := map[string]interface{}{}
	if v, ok := patch.Title.Get(); ok {
		data["title"] = v
	}
	if v, ok := patch.Content.Get(); ok {
		data["content"] = v
	}
	if v, ok := patch.AuthorID.Get(); ok {
		data["author_id"] = v
	}

	sql, args := NewQueryBuilder(postsTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(postColumns).
		BuildUpdate(data)
	return queryOne(ctx, r.db, "update", "post", sql, args, scanPost)
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) (*store.Post, error) {
	sql, args := NewQueryBuilder(postsTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(postColumns).
		BuildDelete()
	return queryOne(ctx, r.db, "delete", "post", sql, args, scanPost)
}

func (r *postRepo) FindFirst(ctx context.Context, where store.PostWhere) (*store.Post, error) {
	sql, args := NewQueryBuilder(postsTable).
		WithColumns(postColumns).
		WithFilters(postFilters(where)).
		WithOrder(defaultOrder).
		WithLimit(1).
		BuildSelect()
	return queryOne(ctx, r.db, "find", "post", sql, args, scanPost)
}

func (r *postRepo) FindMany(ctx context.Context, where store.PostWhere) ([]store.Post, error) {
	sql, args := NewQueryBuilder(postsTable).
		WithColumns(postColumns).
		WithFilters(postFilters(where)).
		WithOrder(defaultOrder).
		BuildSelect()
	return queryMany(ctx, r.db, "post", sql, args, scanPost)
}
