package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/domain"
	"github.com/instaclone-server/internal/realtime"
)

var reactionMessages = map[domain.Reaction]string{
	domain.ReactionLike:    "Your post was liked",
	domain.ReactionDislike: "User disliked your post",
}

func (h *Handler) AddPost(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		fail(ctx, http.StatusBadRequest, "Image is required")
		return
	}
	if !isImage(file) {
		fail(ctx, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	url, err := h.uploadImage(ctx, file)
	if err != nil {
		h.internalError(ctx, "upload post image", err)
		return
	}

	post := &domain.Post{Caption: ctx.PostForm("caption"), Image: url, AuthorID: currentUser(ctx)}
	if err := h.posts.CreatePost(ctx, post); err != nil {
		h.internalError(ctx, "create post", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "New Post Added Successfuly", "post": post, "success": true})
}

func (h *Handler) AllPosts(ctx *gin.Context) {
	posts, err := h.posts.ListPosts(ctx, "")
	if err != nil {
		h.internalError(ctx, "list posts", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Posts fetched successfully", "success": true, "posts": posts})
}

func (h *Handler) UserPosts(ctx *gin.Context) {
	posts, err := h.posts.ListPosts(ctx, currentUser(ctx))
	if err != nil {
		h.internalError(ctx, "list user posts", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

func (h *Handler) LikePost(ctx *gin.Context) {
	h.react(ctx, domain.ReactionLike)
}

func (h *Handler) DislikePost(ctx *gin.Context) {
	h.react(ctx, domain.ReactionDislike)
}

// react persists the reaction and then notifies the post owner, unless the
// owner reacted to their own post. Delivery is best effort.
func (h *Handler) react(ctx *gin.Context, kind domain.Reaction) {
	userID := currentUser(ctx)
	postID := ctx.Param("id")

	post, err := h.posts.PostByID(ctx, postID)
	if isNotFound(err) {
		fail(ctx, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.internalError(ctx, "react lookup", err)
		return
	}

	if kind == domain.ReactionLike {
		err = h.posts.AddLike(ctx, postID, userID)
	} else {
		err = h.posts.RemoveLike(ctx, postID, userID)
	}
	if err != nil {
		h.internalError(ctx, "react", err)
		return
	}

	if post.AuthorID != userID {
		actor, err := h.users.UserByID(ctx, userID)
		if err != nil {
			h.logger.Warn("notification actor lookup failed", "userId", userID, "error", err)
		} else {
			h.notifier.DeliverTo(post.AuthorID, realtime.EventNotification, domain.Notification{
				Type:        kind,
				UserID:      userID,
				UserDetails: actor.Summary(),
				PostID:      postID,
				Message:     reactionMessages[kind],
			})
		}
	}

	message := "Post liked successfully"
	if kind == domain.ReactionDislike {
		message = "Post disliked successfully"
	}
	ctx.JSON(http.StatusOK, gin.H{"message": message, "success": true})
}

func (h *Handler) AddComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		fail(ctx, http.StatusBadRequest, "Comment text is required")
		return
	}

	postID := ctx.Param("id")
	if _, err := h.posts.PostByID(ctx, postID); isNotFound(err) {
		fail(ctx, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.internalError(ctx, "comment lookup", err)
		return
	}

	comment := &domain.Comment{Text: req.Text, PostID: postID, AuthorID: currentUser(ctx)}
	if err := h.posts.AddComment(ctx, comment); err != nil {
		h.internalError(ctx, "add comment", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Comment added", "success": true, "comment": comment})
}

func (h *Handler) PostComments(ctx *gin.Context) {
	comments, err := h.posts.CommentsByPost(ctx, ctx.Param("id"))
	if err != nil {
		h.internalError(ctx, "list comments", err)
		return
	}
	if len(comments) == 0 {
		fail(ctx, http.StatusNotFound, "No comments found for this post")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func (h *Handler) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	post, err := h.posts.PostByID(ctx, postID)
	if isNotFound(err) {
		fail(ctx, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.internalError(ctx, "delete lookup", err)
		return
	}

	if post.AuthorID != currentUser(ctx) {
		fail(ctx, http.StatusForbidden, "You are not authorized to delete this post")
		return
	}

	if err := h.posts.DeletePost(ctx, postID); err != nil && !isNotFound(err) {
		h.internalError(ctx, "delete post", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully", "success": true})
}

func (h *Handler) BookmarkPost(ctx *gin.Context) {
	postID := ctx.Param("id")
	if _, err := h.posts.PostByID(ctx, postID); isNotFound(err) {
		fail(ctx, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.internalError(ctx, "bookmark lookup", err)
		return
	}

	saved, err := h.posts.ToggleBookmark(ctx, currentUser(ctx), postID)
	if err != nil {
		h.internalError(ctx, "toggle bookmark", err)
		return
	}

	if saved {
		ctx.JSON(http.StatusOK, gin.H{"type": "save", "message": "Post bookmarked successfully", "success": true})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"type": "unsave", "message": "Post removed from bookmarks", "success": true})
}
