package handler

import (
	"net/http"

	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	svc *service.CollectionService
	pub notify.Publisher
}

type CollectionCreateReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Questions   []string `json:"questions"`
	Username    string   `json:"username"`
	IsPrivate   bool     `json:"isPrivate"`
}

type ToggleQuestionReq struct {
	CollectionID string `json:"collectionId" binding:"required"`
	QuestionID   string `json:"questionId" binding:"required"`
	Username     string `json:"username" binding:"required"`
}

func NewCollectionHandler(svc *service.CollectionService, pub notify.Publisher) *CollectionHandler {
	return &CollectionHandler{svc: svc, pub: pub}
}

func (h *CollectionHandler) Create(c *gin.Context) {
	var req CollectionCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if !actingUser(c, req.Username) {
		return
	}

	collection, err := h.svc.CreateCollection(c.Request.Context(), service.CreateCollectionInput{
		Name:        req.Name,
		Description: req.Description,
		Username:    req.Username,
		Questions:   req.Questions,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CollectionEvent(notify.TypeCreated, collection)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, collection)
}

func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "collectionId")
	if !ok {
		return
	}
	username := c.Query("username")
	if username == "" {
		badRequest(c, "username is required")
		return
	}
	if !actingUser(c, username) {
		return
	}

	collection, err := h.svc.DeleteCollection(c.Request.Context(), id, username)
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CollectionEvent(notify.TypeDeleted, collection)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, collection)
}

func (h *CollectionHandler) ToggleQuestion(c *gin.Context) {
	var req ToggleQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "collectionId, questionId and username are required")
		return
	}
	collectionID, ok1 := pkg.ParseID(req.CollectionID)
	questionID, ok2 := pkg.ParseID(req.QuestionID)
	if !ok1 || !ok2 {
		badRequest(c, "invalid collectionId or questionId")
		return
	}
	if !actingUser(c, req.Username) {
		return
	}

	collection, err := h.svc.ToggleQuestion(c.Request.Context(), collectionID, questionID, req.Username)
	if err != nil {
		fail(c, err)
		return
	}

	ev, err := notify.CollectionEvent(notify.TypeUpdated, collection)
	publish(c, h.pub, ev, err)
	c.JSON(http.StatusOK, collection)
}

// ListByUser 非本人查看时过滤私有收藏夹
func (h *CollectionHandler) ListByUser(c *gin.Context) {
	current := viewer(c, "currentUsername")
	if current == "" {
		badRequest(c, "currentUsername is required")
		return
	}

	list, err := h.svc.ListByUsername(c.Request.Context(), c.Param("username"), current)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CollectionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "collectionId")
	if !ok {
		return
	}
	collection, err := h.svc.GetCollection(c.Request.Context(), id, viewer(c, "username"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}
