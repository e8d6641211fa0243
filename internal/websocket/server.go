package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/instaclone-server/internal/auth"
	"github.com/instaclone-server/internal/http/middleware"
)

var (
	errInvalidToken     = errors.New("invalid session token")
	errIdentityMismatch = errors.New("userId does not match session")
)

// TokenVerifier checks session tokens; *auth.Service satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Server upgrades HTTP requests into tracked connections. The user identity
// is the userId query parameter. When the request carries a session token it
// must be valid and agree with userId, and it supplies the identity if
// userId is absent.
type Server struct {
	upgrader websocket.Upgrader
	registry Registry
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewServer accepts connections from allowedOrigins; an empty list accepts any
// origin. A nil verifier trusts the claimed userId.
func NewServer(r Registry, verifier TokenVerifier, allowedOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(req *http.Request) bool {
				origin := req.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		registry: r,
		verifier: verifier,
		logger:   logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := s.identity(r)
	switch {
	case errors.Is(err, errInvalidToken):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade error", "error", err)
		return
	}

	conn := NewConn(uuid.NewString(), userID, ws, s.registry, s.logger)
	conn.Start()
}

func (s *Server) identity(r *http.Request) (string, error) {
	claimed := r.URL.Query().Get("userId")
	if s.verifier == nil {
		return claimed, nil
	}

	token := ""
	if c, err := r.Cookie(middleware.TokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		token = middleware.BearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		return claimed, nil
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		return "", errInvalidToken
	}
	if claimed != "" && claimed != claims.UserID {
		s.logger.Warn("socket identity mismatch", "userId", claimed, "sessionUserId", claims.UserID)
		return "", errIdentityMismatch
	}
	return claims.UserID, nil
}
