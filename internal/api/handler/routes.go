package handler

import "github.com/gin-gonic/gin"

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	authed := r.Group("/", h.RequireAuth())
	authed.GET("/ws", h.ServeWebSocket)

	api := authed.Group("/api")
	api.GET("/users/me", h.GetMe)
	api.PATCH("/users/me", h.UpdateMe)
	api.GET("/users", h.ListUsers)
	api.GET("/users/all", h.ListAllUsers)
	api.GET("/users/online", h.ListOnlineUsers)
	api.GET("/friends", h.ListFriends)
	api.GET("/friend-requests", h.ListFriendRequests)
	api.GET("/conversations", h.ListConversations)
	api.GET("/conversations/:id/messages", h.ListMessages)
	api.GET("/calls/:id", h.GetCall)
}
