package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicechat-service/internal/models"
	"voicechat-service/internal/services"
)

// UserHandler serves the profile endpoints under /api/v1/users.
type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := intParam(c, "user_id")
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) List(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	users, err := h.svc.List(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, err, "failed to load users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Update changes the caller's own profile.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := intParam(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Username        *string `json:"username"`
		Email           *string `json:"email" binding:"omitempty,email"`
		PrimaryLanguage *string `json:"primary_language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.svc.Update(c.Request.Context(), userID, c.GetInt("userID"), models.UserUpdate{
		Username:        req.Username,
		Email:           req.Email,
		PrimaryLanguage: req.PrimaryLanguage,
	})
	if err != nil {
		respondError(c, err, "could not update user")
		return
	}
	c.JSON(http.StatusOK, u)
}
