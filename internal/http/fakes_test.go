package http

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/instaclone-server/internal/domain"
)

// memStore is an in-memory UserStore, PostStore and MessageStore.
type memStore struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*domain.User
	posts     map[string]*domain.Post
	comments  []domain.Comment
	messages  []domain.Message
	follows   map[[2]string]bool
	bookmarks map[[2]string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*domain.User{},
		posts:     map[string]*domain.Post{},
		follows:   map[[2]string]bool{},
		bookmarks: map[[2]string]bool{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("create user: %w", domain.ErrDuplicate)
		}
	}
	u.ID = m.nextID("user")
	u.CreatedAt = m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) hydrate(u domain.User) *domain.User {
	u.Followers, u.Following, u.Posts, u.Bookmarks = []string{}, []string{}, []string{}, []string{}
	for pair := range m.follows {
		if pair[1] == u.ID {
			u.Followers = append(u.Followers, pair[0])
		}
		if pair[0] == u.ID {
			u.Following = append(u.Following, pair[1])
		}
	}
	for id, p := range m.posts {
		if p.AuthorID == u.ID {
			u.Posts = append(u.Posts, id)
		}
	}
	for pair := range m.bookmarks {
		if pair[0] == u.ID {
			u.Bookmarks = append(u.Bookmarks, pair[1])
		}
	}
	return &u
}

func (m *memStore) UserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user by id: %w", domain.ErrNotFound)
	}
	return m.hydrate(*u), nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return m.hydrate(*u), nil
		}
	}
	return nil, fmt.Errorf("user by email: %w", domain.ErrNotFound)
}

func (m *memStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) EmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("update profile: %w", domain.ErrNotFound)
	}
	if upd.Bio != "" {
		u.Bio = upd.Bio
	}
	if upd.Gender != "" {
		u.Gender = upd.Gender
	}
	if upd.ProfilePicture != "" {
		u.ProfilePicture = upd.ProfilePicture
	}
	return m.hydrate(*u), nil
}

func (m *memStore) SuggestedUsers(_ context.Context, excludeID string, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for id, u := range m.users {
		if id != excludeID && len(out) < limit {
			out = append(out, *m.hydrate(*u))
		}
	}
	return out, nil
}

func (m *memStore) ToggleFollow(_ context.Context, userID, targetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{userID, targetID}
	if m.follows[key] {
		delete(m.follows, key)
		return false, nil
	}
	m.follows[key] = true
	return true, nil
}

func (m *memStore) CreatePost(_ context.Context, p *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID("post")
	p.CreatedAt = m.now()
	p.Likes = []string{}
	p.Comments = []domain.Comment{}
	if u, ok := m.users[p.AuthorID]; ok {
		p.Author = u.Summary()
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memStore) PostByID(_ context.Context, id string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post by id: %w", domain.ErrNotFound)
	}
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	return &cp, nil
}

func (m *memStore) ListPosts(_ context.Context, authorID string) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Post{}
	for _, p := range m.posts {
		if authorID == "" || p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) PostsByIDs(_ context.Context, ids []string) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Post{}
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) AddLike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[postID]
	for _, id := range p.Likes {
		if id == userID {
			return nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return nil
}

func (m *memStore) RemoveLike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[postID]
	kept := []string{}
	for _, id := range p.Likes {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.Likes = kept
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("delete post: %w", domain.ErrNotFound)
	}
	delete(m.posts, id)
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	m.comments = kept
	return nil
}

func (m *memStore) ToggleBookmark(_ context.Context, userID, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{userID, postID}
	if m.bookmarks[key] {
		delete(m.bookmarks, key)
		return false, nil
	}
	m.bookmarks[key] = true
	return true, nil
}

func (m *memStore) AddComment(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("comment")
	c.CreatedAt = m.now()
	if u, ok := m.users[c.AuthorID]; ok {
		c.Author = u.Summary()
	}
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memStore) CommentsByPost(_ context.Context, postID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Comment{}
	for i := len(m.comments) - 1; i >= 0; i-- {
		if m.comments[i].PostID == postID {
			out = append(out, m.comments[i])
		}
	}
	return out, nil
}

func conversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (m *memStore) SendMessage(_ context.Context, senderID, receiverID, text string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := domain.Message{
		ID:             m.nextID("msg"),
		ConversationID: conversationKey(senderID, receiverID),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Message:        text,
		CreatedAt:      m.now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memStore) Conversation(_ context.Context, a, b string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Message{}
	key := conversationKey(a, b)
	for _, msg := range m.messages {
		if msg.ConversationID == key {
			out = append(out, msg)
		}
	}
	return out, nil
}

// fakeUploader records uploads and returns predictable URLs.
type fakeUploader struct {
	mu      sync.Mutex
	uploads map[string]string
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	url := "/uploads/" + strings.ToLower(filename)
	f.uploads[url] = string(data)
	return url, nil
}

type delivery struct {
	userID  string
	event   string
	payload any
}

// recordingNotifier captures DeliverTo calls.
type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recordingNotifier) DeliverTo(userID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{userID: userID, event: event, payload: payload})
}

func (r *recordingNotifier) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}
