package handler

import (
	"net/http"
	"strconv"

	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc       *service.CommunityService
	questions *service.QuestionService
	pub       notify.Publisher
}

type CommunityCreateReq struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Admin        string   `json:"admin"`
	Visibility   string   `json:"visibility"`
	Participants []string `json:"participants"`
}

type MembershipReq struct {
	CommunityID string `json:"communityId" binding:"required"`
	Username    string `json:"username" binding:"required"`
}

type CommunityDeleteReq struct {
	Username string `json:"username" binding:"required"`
}

func NewCommunityHandler(svc *service.CommunityService, questions *service.QuestionService, pub notify.Publisher) *CommunityHandler {
	return &CommunityHandler{svc: svc, questions: questions, pub: pub}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if !actingUser(c, req.Admin) {
		return
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), service.CreateCommunityInput{
		Name:         req.Name,
		Description:  req.Description,
		Admin:        req.Admin,
		Visibility:   req.Visibility,
		Participants: req.Participants,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CommunityEvent(notify.TypeCreated, community)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "communityId")
	if !ok {
		return
	}
	community, err := h.svc.GetCommunity(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.ListCommunities(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ToggleMembership 加入或退出社区
func (h *CommunityHandler) ToggleMembership(c *gin.Context) {
	var req MembershipReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "communityId and username are required")
		return
	}
	id, ok := pkg.ParseID(req.CommunityID)
	if !ok {
		badRequest(c, "invalid communityId")
		return
	}
	if !actingUser(c, req.Username) {
		return
	}

	community, err := h.svc.ToggleMembership(c.Request.Context(), id, req.Username)
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CommunityEvent(notify.TypeUpdated, community)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "communityId")
	if !ok {
		return
	}
	var req CommunityDeleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username is required")
		return
	}
	if !actingUser(c, req.Username) {
		return
	}

	community, err := h.svc.DeleteCommunity(c.Request.Context(), id, req.Username)
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CommunityEvent(notify.TypeDeleted, community)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, gin.H{
		"community": community,
		"message":   "Community deleted successfully",
	})
}

// Questions 社区内问题，游标分页
func (h *CommunityHandler) Questions(c *gin.Context) {
	id, ok := parseIDParam(c, "communityId")
	if !ok {
		return
	}

	var lastID uint64
	if s := c.Query("last_id"); s != "" {
		v, ok := pkg.ParseID(s)
		if !ok {
			badRequest(c, "invalid last_id")
			return
		}
		lastID = v
	}
	size, _ := strconv.Atoi(c.Query("size"))

	list, next, err := h.questions.ListCommunityQuestions(c.Request.Context(), id, viewer(c, "username"), lastID, size)
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"list": list}
	if next != 0 {
		resp["next_last_id"] = pkg.FormatID(next)
	}
	c.JSON(http.StatusOK, resp)
}
