package handler

import (
	"errors"
	"fmt"
	"net/http"

	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.Storage.GetUserByID(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
		return
	}

	user, err := h.Storage.UpdateProfile(c.Request.Context(), currentUser(c), update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user, "message": "Profile updated successfully"})
}

// ListUsers returns verified users that are not yet friends of the caller.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Storage.ListNonFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	users, err := h.Storage.ListVerifiedUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *Handler) ListOnlineUsers(c *gin.Context) {
	ids, err := h.Storage.GetOnlineUserIDs(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ids})
}

func (h *Handler) ListFriends(c *gin.Context) {
	friends, err := h.Storage.ListFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": friends})
}

func (h *Handler) ListFriendRequests(c *gin.Context) {
	requests, err := h.Storage.ListFriendRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

func (h *Handler) ListConversations(c *gin.Context) {
	summaries, err := h.Storage.ListConversationsForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (h *Handler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	conv, err := h.Storage.GetConversation(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !conv.HasParticipant(userID) {
		h.fail(c, fmt.Errorf("%w: not a participant", storage.ErrForbidden))
		return
	}

	msgs, err := h.Storage.ListMessages(ctx, conv.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// GetCall returns a call session to one of its two parties.
func (h *Handler) GetCall(c *gin.Context) {
	userID := currentUser(c)

	call, err := h.Storage.GetCallByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if call.CallerID != userID && call.CalleeID != userID {
		h.fail(c, fmt.Errorf("%w: not a party to the call", storage.ErrForbidden))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": call})
}

// fail maps store errors to HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", currentUser(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
