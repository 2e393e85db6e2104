package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/catalogbackend/auth"
	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/middleware"
)

// POST /auth/login
func Login(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, bindingError(err))
			return
		}

		token, account, err := authn.Login(body.Email, body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Printf("login %s: %v", body.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"user":         account,
		})
	}
}

// GET /auth/user-auth and /auth/admin-auth. The middleware chain does the work.
func AuthProbe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "role": c.GetString(middleware.RoleKey)})
	}
}
