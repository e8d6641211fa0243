package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender,omitempty"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	Posts          []string  `json:"posts"`
	Bookmarks      []string  `json:"bookmarks"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Summary returns the public display fields of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

type UserSummary struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

type Post struct {
	ID        string      `json:"_id"`
	Caption   string      `json:"caption"`
	Image     string      `json:"image"`
	AuthorID  string      `json:"-"`
	Author    UserSummary `json:"author"`
	Likes     []string    `json:"likes"`
	Comments  []Comment   `json:"comment"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Comment struct {
	ID        string      `json:"_id"`
	Text      string      `json:"text"`
	PostID    string      `json:"post"`
	AuthorID  string      `json:"-"`
	Author    UserSummary `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Notification is pushed to a post owner when someone else reacts to the post.
type Notification struct {
	Type        Reaction    `json:"type"`
	UserID      string      `json:"userId"`
	UserDetails UserSummary `json:"userDetails"`
	PostID      string      `json:"postId"`
	Message     string      `json:"message"`
}

// ProfileUpdate carries the editable profile fields; empty fields are left unchanged.
type ProfileUpdate struct {
	Bio            string
	Gender         string
	ProfilePicture string
}
