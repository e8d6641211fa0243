package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/instaclone-server/internal/domain"
)

const commentSelect = `SELECT c.id, c.text, c.post_id, c.author_id, c.created_at, u.username, u.profile_picture
	FROM comments c JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.CollectableRow) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.Text, &c.PostID, &c.AuthorID, &c.CreatedAt, &c.Author.Username, &c.Author.ProfilePicture)
	c.Author.ID = c.AuthorID
	return c, err
}

func (s *Store) AddComment(ctx context.Context, c *domain.Comment) error {
	c.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO comments (id, text, author_id, post_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.Text, c.AuthorID, c.PostID,
	).Scan(&c.CreatedAt)
	if err != nil {
		return wrap("add comment", err)
	}

	err = s.pool.QueryRow(ctx, `SELECT id, username, profile_picture FROM users WHERE id = $1`, c.AuthorID).
		Scan(&c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
	return wrap("comment author", err)
}

// CommentsByPost returns the comments of a post, newest first.
func (s *Store) CommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.queryComments(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at DESC`, postID)
}

func (s *Store) queryComments(ctx context.Context, query string, args ...any) ([]domain.Comment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("query comments", err)
	}
	comments, err := pgx.CollectRows(rows, scanComment)
	if err != nil {
		return nil, wrap("scan comments", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}
