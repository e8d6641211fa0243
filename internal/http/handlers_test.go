package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/instaclone-server/internal/auth"
	"github.com/instaclone-server/internal/config"
	"github.com/instaclone-server/internal/domain"
	"github.com/instaclone-server/internal/http/middleware"
)

type testEnv struct {
	store    *memStore
	notifier *recordingNotifier
	uploader *fakeUploader
	auth     *auth.Service
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		uploader: &fakeUploader{},
		auth:     auth.NewService("test-secret", time.Hour, bcrypt.MinCost),
	}
	env.useNotifier(env.notifier)
	return env
}

// useNotifier rebuilds the router around n.
func (e *testEnv) useNotifier(n Notifier) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(Deps{
		Users:    e.store,
		Posts:    e.store,
		Messages: e.store,
		Images:   e.uploader,
		Notifier: n,
		Auth:     e.auth,
		Logger:   logger,
	})
	e.router = NewRouter(RouterDeps{
		Handler: handler,
		AuthMW:  middleware.NewAuth(e.auth),
		Config:  config.Config{},
		Logger:  logger,
	})
}

// user creates an account and returns it with a session token.
func (e *testEnv) user(t *testing.T, name string) (*domain.User, string) {
	t.Helper()
	hashed, err := e.auth.HashPassword(name + "-pw")
	require.NoError(t, err)
	u := &domain.User{Username: name, Email: name + "@example.com", Password: hashed}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	token, err := e.auth.Sign(u.ID)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) post(t *testing.T, authorID string) *domain.Post {
	t.Helper()
	p := &domain.Post{Caption: "caption", Image: "/uploads/x.jpg", AuthorID: authorID}
	require.NoError(t, e.store.CreatePost(context.Background(), p))
	return p
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	field, name, contentType, data string
}

func (e *testEnv) multipart(t *testing.T, path, token string, fields map[string]string, file *formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
