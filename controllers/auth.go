package controllers

import (
	"errors"
	"net/http"
	"time"

	"report-ledger-api/middleware"
	"report-ledger-api/models"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

type AuthController struct {
	auth   *services.AuthService
	secret string
	ttl    time.Duration
}

func NewAuthController(auth *services.AuthService, secret string, ttl time.Duration) *AuthController {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthController{auth: auth, secret: secret, ttl: ttl}
}

// Login handles user authentication
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("login and password are required"))
		return
	}
	if ac.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Token issuance is not configured"})
		return
	}

	user, err := ac.auth.Authenticate(c.Request.Context(), req.Login, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := ac.generateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// GetProfile returns current user profile
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication context missing"})
		return
	}

	user, err := ac.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// generateToken creates JWT token
func (ac *AuthController) generateToken(user models.User) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		UserID: user.UserID,
		Email:  user.Email,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ac.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ac.secret))
}
