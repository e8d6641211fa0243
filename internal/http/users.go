package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/domain"
	"github.com/instaclone-server/internal/http/middleware"
)

const suggestedLimit = 10

func (h *Handler) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Something is wrong, please check your input")
		return
	}
	if !h.validate.ValidateStruct(ctx, &req) {
		return
	}

	taken, err := h.users.UsernameTaken(ctx, req.Username)
	if err != nil {
		h.internalError(ctx, "register", err)
		return
	}
	if taken {
		fail(ctx, http.StatusConflict, "Username already taken, try another")
		return
	}
	if taken, err = h.users.EmailTaken(ctx, req.Email); err != nil {
		h.internalError(ctx, "register", err)
		return
	} else if taken {
		fail(ctx, http.StatusConflict, "Email already registered, try another")
		return
	}

	hashed, err := h.auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(ctx, "hash password", err)
		return
	}

	user := &domain.User{Username: req.Username, Email: req.Email, Password: hashed}
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			fail(ctx, http.StatusConflict, "Account already exists, please try another")
			return
		}
		h.internalError(ctx, "register", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "success": true})
}

func (h *Handler) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Something is wrong, please check")
		return
	}
	if !h.validate.ValidateStruct(ctx, &req) {
		return
	}

	user, err := h.users.UserByEmail(ctx, req.Email)
	if isNotFound(err) {
		fail(ctx, http.StatusNotFound, "User not found, please register")
		return
	} else if err != nil {
		h.internalError(ctx, "login", err)
		return
	}

	if !h.auth.CheckPassword(user.Password, req.Password) {
		fail(ctx, http.StatusUnauthorized, "Invalid credentials, please try again")
		return
	}

	token, err := h.auth.Sign(user.ID)
	if err != nil {
		h.internalError(ctx, "sign token", err)
		return
	}

	posts, err := h.posts.PostsByIDs(ctx, user.Posts)
	if err != nil {
		h.internalError(ctx, "login posts", err)
		return
	}

	h.setTokenCookie(ctx, token, int(h.auth.TTL().Seconds()))
	ctx.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome back %s", user.Username),
		"success": true,
		"user": gin.H{
			"_id":            user.ID,
			"username":       user.Username,
			"email":          user.Email,
			"profilePicture": user.ProfilePicture,
			"bio":            user.Bio,
			"followers":      user.Followers,
			"following":      user.Following,
			"posts":          posts,
		},
	})
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "success": true})
}

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", h.cfg.CookieSecure, true)
}

func (h *Handler) GetProfile(ctx *gin.Context) {
	user, err := h.users.UserByID(ctx, ctx.Param("id"))
	if isNotFound(err) {
		fail(ctx, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.internalError(ctx, "get profile", err)
		return
	}

	posts, err := h.posts.ListPosts(ctx, user.ID)
	if err != nil {
		h.internalError(ctx, "profile posts", err)
		return
	}
	bookmarks, err := h.posts.PostsByIDs(ctx, user.Bookmarks)
	if err != nil {
		h.internalError(ctx, "profile bookmarks", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"_id":            user.ID,
			"username":       user.Username,
			"email":          user.Email,
			"profilePicture": user.ProfilePicture,
			"bio":            user.Bio,
			"gender":         user.Gender,
			"followers":      user.Followers,
			"following":      user.Following,
			"posts":          posts,
			"bookmarks":      bookmarks,
			"createdAt":      user.CreatedAt,
		},
	})
}

func (h *Handler) EditProfile(ctx *gin.Context) {
	userID := currentUser(ctx)
	upd := domain.ProfileUpdate{
		Bio:    ctx.PostForm("bio"),
		Gender: ctx.PostForm("gender"),
	}

	if file, err := ctx.FormFile("profilePicture"); err == nil {
		if !isImage(file) {
			fail(ctx, http.StatusBadRequest, "Only image files are allowed")
			return
		}
		url, err := h.uploadImage(ctx, file)
		if err != nil {
			h.internalError(ctx, "upload profile picture", err)
			return
		}
		upd.ProfilePicture = url
	}

	user, err := h.users.UpdateProfile(ctx, userID, upd)
	if isNotFound(err) {
		fail(ctx, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.internalError(ctx, "edit profile", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "success": true, "user": user})
}

func (h *Handler) SuggestedUsers(ctx *gin.Context) {
	users, err := h.users.SuggestedUsers(ctx, currentUser(ctx), suggestedLimit)
	if err != nil {
		h.internalError(ctx, "suggested users", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Suggested users fetched successfully", "success": true, "users": users})
}

func (h *Handler) FollowOrUnfollow(ctx *gin.Context) {
	userID := currentUser(ctx)
	targetID := ctx.Param("id")
	if userID == targetID {
		fail(ctx, http.StatusBadRequest, "You cannot follow or unfollow yourself")
		return
	}

	for _, id := range []string{userID, targetID} {
		if _, err := h.users.UserByID(ctx, id); isNotFound(err) {
			fail(ctx, http.StatusNotFound, "User not found")
			return
		} else if err != nil {
			h.internalError(ctx, "follow lookup", err)
			return
		}
	}

	following, err := h.users.ToggleFollow(ctx, userID, targetID)
	if err != nil {
		h.internalError(ctx, "toggle follow", err)
		return
	}

	message := "Unfollowed successfully"
	if following {
		message = "Followed successfully"
	}
	ctx.JSON(http.StatusOK, gin.H{"message": message, "success": true})
}
