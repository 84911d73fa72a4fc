package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minniexp/expense-backend/internal/auth"
	"github.com/minniexp/expense-backend/internal/models"
	"github.com/minniexp/expense-backend/internal/repository"
)

type UserHandler struct {
	users     *repository.UserRepository
	jwtSecret string
}

func NewUserHandler(users *repository.UserRepository, jwtSecret string) *UserHandler {
	return &UserHandler{users: users, jwtSecret: jwtSecret}
}

func (h *UserHandler) Create(c *gin.Context) {
	// Sign-in happens in the frontend; it posts the resulting profile here.
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		GoogleID string `json:"google_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and name are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{Email: req.Email, Name: req.Name, GoogleID: req.GoogleID}
	if err := h.users.Create(ctx, user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

type userResponse struct {
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	AccessLevel models.AccessLevel `json:"access_level"`
	IsApproved  bool               `json:"is_approved"`
}

// FetchByEmail authenticates the frontend's signed-in user and issues a
// long-lived session token.
func (h *UserHandler) FetchByEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if err := h.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, user, auth.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			Email:       user.Email,
			Name:        user.Name,
			AccessLevel: user.AccessLevel,
			IsApproved:  user.IsApproved,
		},
		"token": token,
	})
}

// VerifyToken validates a session token and returns the user behind it.
func (h *UserHandler) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	claims, err := auth.ParseToken(h.jwtSecret, req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if !user.IsApproved {
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not approved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			Email:       user.Email,
			Name:        user.Name,
			AccessLevel: user.AccessLevel,
			IsApproved:  user.IsApproved,
		},
		"access_level": user.AccessLevel,
	})
}
