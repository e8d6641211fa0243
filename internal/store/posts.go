package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/instaclone-server/internal/domain"
)

const postSelect = `SELECT p.id, p.caption, p.image, p.author_id, p.created_at, u.username, u.profile_picture
	FROM posts p JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.CollectableRow) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.Caption, &p.Image, &p.AuthorID, &p.CreatedAt, &p.Author.Username, &p.Author.ProfilePicture)
	p.Author.ID = p.AuthorID
	return p, err
}

func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	p.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO posts (id, caption, image, author_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		p.ID, p.Caption, p.Image, p.AuthorID,
	).Scan(&p.CreatedAt)
	if err != nil {
		return wrap("create post", err)
	}

	var author domain.UserSummary
	err = s.pool.QueryRow(ctx, `SELECT id, username, profile_picture FROM users WHERE id = $1`, p.AuthorID).
		Scan(&author.ID, &author.Username, &author.ProfilePicture)
	p.Author = author
	p.Likes = []string{}
	p.Comments = []domain.Comment{}
	return wrap("post author", err)
}

func (s *Store) PostByID(ctx context.Context, id string) (*domain.Post, error) {
	posts, err := s.queryPosts(ctx, postSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, wrap("post by id", pgx.ErrNoRows)
	}
	return &posts[0], nil
}

// ListPosts returns posts newest first; an empty authorID lists everyone's.
func (s *Store) ListPosts(ctx context.Context, authorID string) ([]domain.Post, error) {
	if authorID == "" {
		return s.queryPosts(ctx, postSelect+` ORDER BY p.created_at DESC`)
	}
	return s.queryPosts(ctx, postSelect+` WHERE p.author_id = $1 ORDER BY p.created_at DESC`, authorID)
}

func (s *Store) PostsByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}
	return s.queryPosts(ctx, postSelect+` WHERE p.id = ANY($1) ORDER BY p.created_at DESC`, ids)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("query posts", err)
	}
	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, wrap("scan posts", err)
	}
	if len(posts) == 0 {
		return []domain.Post{}, nil
	}

	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Likes = []string{}
		posts[i].Comments = []domain.Comment{}
	}

	likeRows, err := s.pool.Query(ctx, `SELECT post_id, user_id FROM post_likes WHERE post_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return nil, wrap("query likes", err)
	}
	var postID, userID string
	_, err = pgx.ForEachRow(likeRows, []any{&postID, &userID}, func() error {
		i := index[postID]
		posts[i].Likes = append(posts[i].Likes, userID)
		return nil
	})
	if err != nil {
		return nil, wrap("scan likes", err)
	}

	comments, err := s.queryComments(ctx, commentSelect+` WHERE c.post_id = ANY($1) ORDER BY c.created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c)
	}
	return posts, nil
}

// AddLike is idempotent.
func (s *Store) AddLike(ctx context.Context, postID, userID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	return wrap("add like", err)
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return wrap("remove like", err)
}

// DeletePost removes the post; comments, likes and bookmarks cascade.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return wrap("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete post", pgx.ErrNoRows)
	}
	return nil
}

// ToggleBookmark reports whether the post is bookmarked afterwards.
func (s *Store) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	var saved bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`, userID, postID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		saved = true
		_, err = tx.Exec(ctx, `INSERT INTO bookmarks (user_id, post_id) VALUES ($1, $2)`, userID, postID)
		return err
	})
	return saved, wrap("toggle bookmark", err)
}
