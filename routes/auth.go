package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventhub/models"
	"eventhub/utils"
)

// POST /api/signup
func (h *handlers) signup(c *gin.Context) {
	var in models.InsertUser
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	if errs := models.ValidateInsertUser(in); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user data", "errors": errs})
		return
	}

	ctx := c.Request.Context()
	// store 不檢查 username 重複，這裡擋
	if _, taken, err := h.store.GetUserByUsername(ctx, in.Username); err != nil {
		h.log.Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save user."})
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "Username already taken."})
		return
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		h.log.Error("Error hashing password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save user."})
		return
	}

	u, err := h.store.CreateUser(ctx, models.InsertUser{Username: in.Username, Password: hashed})
	if err != nil {
		h.log.Error("Error creating user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save user."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username})
}

// POST /api/login
func (h *handlers) login(c *gin.Context) {
	var in models.InsertUser
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	u, ok, err := h.store.GetUserByUsername(c.Request.Context(), in.Username)
	if err != nil {
		h.log.Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not authenticate user."})
		return
	}
	if !ok || !utils.CheckPasswordHash(in.Password, u.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Could not authenticate user."})
		return
	}

	token, err := h.tokens.Generate(u.Username, u.ID)
	if err != nil {
		h.log.Error("Error signing token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not authenticate user."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": token})
}

// GET /api/me
func (h *handlers) me(c *gin.Context) {
	userID := c.GetInt64("userId")
	u, ok, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Error fetching user", zap.Int64("id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch user."})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "username": u.Username})
}
