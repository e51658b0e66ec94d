package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "coursechat-relay"

var errTokensDisabled = errors.New("token signing is not configured")

// generateJWT генерує JWT з ідентифікатором користувача
func generateJWT(secret []byte, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
		"iss":     tokenIssuer, // Видавець
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// validateToken returns the user id carried by a token signed with h.JWTSecret.
func (h *Handler) validateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("token missing")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return h.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("token has no user_id")
	}
	return userID, nil
}

// GetToken видає JWT для user_id
func (h *Handler) GetToken(c *gin.Context) {
	if len(h.JWTSecret) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": errTokensDisabled.Error()})
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	token, err := generateJWT(h.JWTSecret, userID, h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID})
}
