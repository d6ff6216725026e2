package handler

import (
	"errors"
	"net/http"

	"QA_Community/internal/middleware"
	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// fail 按错误分类选择状态码
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	}

	msg := "internal server error"
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Msg
	}
	if status == http.StatusInternalServerError {
		pkg.Log(c.Request.Context()).WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// actingUser 登录态下请求里的用户名必须与 token 一致
func actingUser(c *gin.Context, username string) bool {
	v, ok := c.Get(middleware.ContextUsernameKey)
	if !ok {
		return true
	}
	if v.(string) != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "username does not match the authenticated user"})
		return false
	}
	return true
}

// viewer 读接口的查看者：优先 token，其次查询参数
func viewer(c *gin.Context, key string) string {
	if v, ok := c.Get(middleware.ContextUsernameKey); ok {
		return v.(string)
	}
	return c.Query(key)
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, ok := pkg.ParseID(c.Param(name))
	if !ok {
		badRequest(c, "invalid "+name)
	}
	return id, ok
}

func publish(c *gin.Context, pub notify.Publisher, ev notify.Event, err error) {
	if err != nil {
		pkg.Log(c.Request.Context()).WithError(err).Warn("build notify event failed")
		return
	}
	pub.Publish(c.Request.Context(), ev)
}
