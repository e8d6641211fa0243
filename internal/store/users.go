package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/instaclone-server/internal/domain"
)

const userColumns = `id, username, email, password, profile_picture, bio, gender, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.ProfilePicture, &u.Bio, &u.Gender, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills in its id and creation time.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password, profile_picture, bio, gender) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		u.ID, u.Username, u.Email, u.Password, u.ProfilePicture, u.Bio, u.Gender,
	).Scan(&u.CreatedAt)
	return wrap("create user", err)
}

func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("user by id", err)
	}
	if err := s.loadRelations(ctx, u); err != nil {
		return nil, wrap("user relations", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, wrap("user by email", err)
	}
	if err := s.loadRelations(ctx, u); err != nil {
		return nil, wrap("user relations", err)
	}
	return u, nil
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, wrap("username taken", err)
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, wrap("email taken", err)
}

func (s *Store) loadRelations(ctx context.Context, u *domain.User) error {
	var err error
	if u.Followers, err = s.collectIDs(ctx, `SELECT follower_id FROM follows WHERE following_id = $1 ORDER BY created_at`, u.ID); err != nil {
		return err
	}
	if u.Following, err = s.collectIDs(ctx, `SELECT following_id FROM follows WHERE follower_id = $1 ORDER BY created_at`, u.ID); err != nil {
		return err
	}
	if u.Posts, err = s.collectIDs(ctx, `SELECT id FROM posts WHERE author_id = $1 ORDER BY created_at DESC`, u.ID); err != nil {
		return err
	}
	u.Bookmarks, err = s.collectIDs(ctx, `SELECT post_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC`, u.ID)
	return err
}

// UpdateProfile overwrites the non-empty fields of the update.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET
		bio = COALESCE(NULLIF($2, ''), bio),
		gender = COALESCE(NULLIF($3, ''), gender),
		profile_picture = COALESCE(NULLIF($4, ''), profile_picture)
		WHERE id = $1`, id, upd.Bio, upd.Gender, upd.ProfilePicture)
	if err != nil {
		return nil, wrap("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, wrap("update profile", pgx.ErrNoRows)
	}
	return s.UserByID(ctx, id)
}

// SuggestedUsers returns up to limit users other than excludeID.
func (s *Store) SuggestedUsers(ctx context.Context, excludeID string, limit int) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY created_at DESC LIMIT $2`, excludeID, limit)
	if err != nil {
		return nil, wrap("suggested users", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, wrap("suggested users", err)
	}
	for i := range users {
		if err := s.loadRelations(ctx, &users[i]); err != nil {
			return nil, wrap("user relations", err)
		}
	}
	return users, nil
}

// ToggleFollow follows target when userID does not follow it yet, otherwise
// unfollows. It reports whether userID follows target afterwards.
func (s *Store) ToggleFollow(ctx context.Context, userID, targetID string) (bool, error) {
	var following bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, userID, targetID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		following = true
		_, err = tx.Exec(ctx, `INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)`, userID, targetID)
		return err
	})
	return following, wrap("toggle follow", err)
}
