package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/service"
)

// AuthHandlers contains HTTP handlers for auth and registration
// endpoints.
type AuthHandlers struct {
	auth         *service.AuthService
	registration *service.RegistrationService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(auth *service.AuthService, registration *service.RegistrationService) *AuthHandlers {
	return &AuthHandlers{
		auth:         auth,
		registration: registration,
	}
}

// WalletLogin handles the wallet handshake request. The authentication
// decision itself is always a 200: the outcome is delivered to the
// session and summarized in the response body. Only protocol faults
// (unknown session, malformed signature) and infrastructure failures
// are HTTP errors.
func (h *AuthHandlers) WalletLogin(c *gin.Context) {
	var req struct {
		SessionID       string `json:"sessionId" binding:"required"`
		Signature       string `json:"signature" binding:"required"`
		EncryptedWallet string `json:"encryptedWallet"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.auth.LoginWallet(c.Request.Context(), service.LoginRequest{
		SessionID:       req.SessionID,
		Signature:       req.Signature,
		EncryptedWallet: req.EncryptedWallet,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSessionNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket session does not exist"})
		case errors.Is(err, core.ErrMalformedSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed signature"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

// Register handles identity registration.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req struct {
		WalletAddress string   `json:"wallet_address" binding:"required"`
		Email         string   `json:"email"`
		Phone         string   `json:"phone"`
		Permissions   []string `json:"permissions"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity, err := h.registration.Register(c.Request.Context(), core.Candidate{
		WalletAddress: req.WalletAddress,
		Email:         req.Email,
		Phone:         req.Phone,
		Permissions:   req.Permissions,
	})
	if err != nil {
		if dup, ok := core.IsDuplicateField(err); ok {
			c.JSON(http.StatusConflict, gin.H{"error": dup.Error(), "field": dup.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register identity"})
		return
	}

	c.JSON(http.StatusCreated, identityResponse(identity))
}

// CheckUnique runs the registration pre-check without creating
// anything.
func (h *AuthHandlers) CheckUnique(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.registration.CheckUnique(c.Request.Context(), core.Candidate{
		WalletAddress: req.WalletAddress,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		if dup, ok := core.IsDuplicateField(err); ok {
			c.JSON(http.StatusConflict, gin.H{"error": dup.Error(), "field": dup.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check identity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_new": true})
}

// Logout revokes the caller's access token.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		AccessToken string `json:"access_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.AccessToken); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			// An expired token needs no revocation record.
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		if errors.Is(err, core.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid access token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated identity.
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return
	}

	c.JSON(http.StatusOK, identityResponse(identity))
}

// SetWallet re-binds the authenticated identity to a new wallet
// address.
func (h *AuthHandlers) SetWallet(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated, err := h.registration.SetWalletAddress(c.Request.Context(), identity.ID, req.WalletAddress)
	if err != nil {
		if dup, ok := core.IsDuplicateField(err); ok {
			c.JSON(http.StatusConflict, gin.H{"error": dup.Error(), "field": dup.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wallet address"})
		return
	}

	c.JSON(http.StatusOK, identityResponse(updated))
}

func identityResponse(identity *core.Identity) gin.H {
	return gin.H{
		"id":             identity.ID,
		"wallet_address": identity.WalletAddress,
		"email":          identity.Email,
		"phone":          identity.Phone,
		"is_active":      identity.IsActive,
		"permissions":    identity.Permissions,
	}
}
