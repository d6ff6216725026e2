package handler

import (
	"net/http"

	"QA_Community/internal/pkg"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	svc *service.QuestionService
}

type AskQuestionReq struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	AskedBy     string `json:"askedBy"`
	CommunityID string `json:"communityId"`
}

type UpvoteReq struct {
	Username string `json:"username" binding:"required"`
}

func NewQuestionHandler(svc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

// Ask 提问；带 communityId 时必须是社区成员
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req AskQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	var communityID uint64
	if req.CommunityID != "" {
		id, ok := pkg.ParseID(req.CommunityID)
		if !ok {
			badRequest(c, "invalid communityId")
			return
		}
		communityID = id
	}
	if !actingUser(c, req.AskedBy) {
		return
	}

	q, err := h.svc.AskQuestion(c.Request.Context(), service.AskQuestionInput{
		Title:       req.Title,
		Text:        req.Text,
		AskedBy:     req.AskedBy,
		CommunityID: communityID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "questionId")
	if !ok {
		return
	}
	q, err := h.svc.GetQuestion(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Upvote 点赞/取消点赞
func (h *QuestionHandler) Upvote(c *gin.Context) {
	id, ok := parseIDParam(c, "questionId")
	if !ok {
		return
	}
	var req UpvoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username is required")
		return
	}
	if !actingUser(c, req.Username) {
		return
	}

	voters, count, err := h.svc.ToggleUpvote(c.Request.Context(), id, req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upVotes": voters, "count": count})
}
