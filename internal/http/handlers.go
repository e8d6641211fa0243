package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/auth"
	"github.com/instaclone-server/internal/config"
	"github.com/instaclone-server/internal/domain"
	"github.com/instaclone-server/internal/http/middleware"
	"github.com/instaclone-server/internal/validation"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error)
	SuggestedUsers(ctx context.Context, excludeID string, limit int) ([]domain.User, error)
	ToggleFollow(ctx context.Context, userID, targetID string) (bool, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *domain.Post) error
	PostByID(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, authorID string) ([]domain.Post, error)
	PostsByIDs(ctx context.Context, ids []string) ([]domain.Post, error)
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	DeletePost(ctx context.Context, id string) error
	ToggleBookmark(ctx context.Context, userID, postID string) (bool, error)
	AddComment(ctx context.Context, c *domain.Comment) error
	CommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error)
}

type MessageStore interface {
	SendMessage(ctx context.Context, senderID, receiverID, text string) (*domain.Message, error)
	Conversation(ctx context.Context, a, b string) ([]domain.Message, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Notifier pushes a named event to a user's live connection, if any.
type Notifier interface {
	DeliverTo(userID, event string, payload any)
}

type Deps struct {
	Users    UserStore
	Posts    PostStore
	Messages MessageStore
	Images   ImageUploader
	Notifier Notifier
	Auth     *auth.Service
	Config   config.Config
	Logger   *slog.Logger
}

type Handler struct {
	users    UserStore
	posts    PostStore
	messages MessageStore
	images   ImageUploader
	notifier Notifier
	auth     *auth.Service
	validate *validation.Validator
	cfg      config.Config
	logger   *slog.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:    deps.Users,
		posts:    deps.Posts,
		messages: deps.Messages,
		images:   deps.Images,
		notifier: deps.Notifier,
		auth:     deps.Auth,
		validate: validation.New(),
		cfg:      deps.Config,
		logger:   logger,
	}
}

func currentUser(ctx *gin.Context) string {
	id, _ := middleware.UserID(ctx)
	return id
}

func fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message, "success": false})
}

// internalError logs err and answers with a generic 500.
func (h *Handler) internalError(ctx *gin.Context, op string, err error) {
	h.logger.Error(op, "error", err, "path", ctx.Request.URL.Path, "requestId", ctx.GetHeader(middleware.RequestIDHeader))
	fail(ctx, http.StatusInternalServerError, "Internal server error")
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

// uploadImage stores a multipart file and returns its public URL.
func (h *Handler) uploadImage(ctx *gin.Context, file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.images.Upload(ctx.Request.Context(), file.Filename, f)
}

func isImage(file *multipart.FileHeader) bool {
	return strings.HasPrefix(file.Header.Get("Content-Type"), "image/")
}
