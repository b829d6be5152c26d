package memstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
)

type postRepo struct{ s *Store }

func matchPost(p store.Post, w store.PostWhere) bool {
	if w.ID != nil && p.ID != *w.ID {
		return false
	}
	if w.AuthorID != nil && p.AuthorID != *w.AuthorID {
		return false
	}
	if w.AuthorIDIn != nil && !containsID(w.AuthorIDIn, p.AuthorID) {
		return false
	}
	return true
}

func (r *postRepo) Create(_ context.Context, in store.PostCreate) (*store.Post, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[in.AuthorID]; !ok {
		return nil, &store.Error{Op: "create", Entity: "post", Constraint: "posts_author_id_fkey", Err: store.ErrForeignKeyViolation}
	}

	p := store.Post{ID: uuid.New(), Title: in.Title, Content: in.Content, AuthorID: in.AuthorID}
	r.s.posts[p.ID] = p
	return &p, nil
}

func (r *postRepo) Update(_ context.Context, id uuid.UUID, patch store.PostPatch) (*store.Post, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, store.NewError("update", "post", store.ErrNotFound)
	}
	if authorID, set := patch.AuthorID.Get(); set {
		if _, exists := r.s.users[authorID]; !exists {
			return nil, &store.Error{Op: "update", Entity: "post", Constraint: "posts_author_id_fkey", Err: store.ErrForeignKeyViolation}
		}
		p.AuthorID = authorID
	}
	p.Title = patch.Title.OrElse(p.Title)
	p.Content = patch.Content.OrElse(p.Content)
	r.s.posts[id] = p
	return &p, nil
}

func (r *postRepo) Delete(_ context.Context, id uuid.UUID) (*store.Post, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, store.NewError("delete", "post", store.ErrNotFound)
	}
	delete(r.s.posts, id)
	return &p, nil
}

func (r *postRepo) FindFirst(ctx context.Context, where store.PostWhere) (*store.Post, error) {
	posts, err := r.FindMany(ctx, where)
	if err != nil {
		return nil, err
	}
	return first(posts, "find", "post")
}

func (r *postRepo) FindMany(ctx context.Context, where store.PostWhere) ([]store.Post, error) {
	r.s.touch()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := []store.Post{}
	for _, p := range r.s.posts {
		if matchPost(p, where) {
			posts = append(posts, p)
		}
	}
	return sortByID(posts, func(p store.Post) string { return p.ID.String() }), nil
}
