package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// SendPhoneCode issues a verification code to a mobile number.
func (h *Handler) SendPhoneCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone is required")
		return
	}
	phone, ttl, err := h.verifier.SendCode(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phone": phone, "expires_in": int(ttl.Seconds())})
}

type verifyCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyPhoneCode exchanges a correct code for a one-time verification token.
func (h *Handler) VerifyPhoneCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone and code are required")
		return
	}
	token, err := h.verifier.VerifyCode(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification_token": token})
}
