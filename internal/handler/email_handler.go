package handler

import (
	"net/http"

	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// EmailHandler 邮件验证码找回密码
type EmailHandler struct {
	svc *service.ResetService
}

type SendCodeReq struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func NewEmailHandler(svc *service.ResetService) *EmailHandler {
	return &EmailHandler{svc: svc}
}

func (h *EmailHandler) SendResetCode(c *gin.Context) {
	var req SendCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	if err := h.svc.SendResetCode(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Send code successfully"})
}

func (h *EmailHandler) ResetPassword(c *gin.Context) {
	var req ResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "reset password successfully"})
}
