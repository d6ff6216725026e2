package router

import (
	"context"
	"net/http"

	"QA_Community/internal/handler"
	"QA_Community/internal/middleware"
	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Communities *service.CommunityService
	Collections *service.CollectionService
	Questions   *service.QuestionService
	Users       *service.UserService
	Reset       *service.ResetService
	Hub         *notify.Hub
	Publisher   notify.Publisher

	// AuthRequired 为 true 时写接口必须带 token，且请求中的用户名要与 token 一致
	AuthRequired bool
	// Limiter 为 nil 不限流
	Limiter *middleware.RateLimiter
	// TraceService 非空时启用 otelgin
	TraceService string
	// Ping 健康检查依赖探测
	Ping func(ctx context.Context) error
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	if d.TraceService != "" {
		r.Use(otelgin.Middleware(d.TraceService))
	}
	r.Use(middleware.Logger(), middleware.Metrics())
	if d.Limiter != nil {
		r.Use(d.Limiter.Handler())
	}

	pub := d.Publisher
	if pub == nil {
		pub = notify.Nop{}
	}

	user := handler.NewUserHandler(d.Users)
	email := handler.NewEmailHandler(d.Reset)
	community := handler.NewCommunityHandler(d.Communities, d.Questions, pub)
	collection := handler.NewCollectionHandler(d.Collections, pub)
	question := handler.NewQuestionHandler(d.Questions)

	optionalAuth := middleware.AuthMiddleware(d.Users, false)
	writeAuth := middleware.AuthMiddleware(d.Users, d.AuthRequired)
	requireAuth := middleware.AuthMiddleware(d.Users, true)

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(pkg.MetricsHandler()))

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/refresh", user.TokenRefresh)
		userGroup.POST("/reset/code", email.SendResetCode)
		userGroup.POST("/reset", email.ResetPassword)
		userGroup.POST("/logout", requireAuth, user.Logout)
		userGroup.POST("/change-password", requireAuth, user.ChangePassword)
	}

	// 社区相关接口
	communityGroup := r.Group("/api/community")
	{
		communityGroup.GET("", optionalAuth, community.List)
		communityGroup.GET("/:communityId", optionalAuth, community.Get)
		communityGroup.GET("/:communityId/questions", optionalAuth, community.Questions)
		communityGroup.POST("", writeAuth, community.Create)
		communityGroup.POST("/membership", writeAuth, community.ToggleMembership)
		communityGroup.DELETE("/:communityId", writeAuth, community.Delete)
	}

	// 收藏夹相关接口
	collectionGroup := r.Group("/api/collection")
	{
		collectionGroup.GET("/user/:username", optionalAuth, collection.ListByUser)
		collectionGroup.GET("/:collectionId", optionalAuth, collection.Get)
		collectionGroup.POST("", writeAuth, collection.Create)
		collectionGroup.DELETE("/delete/:collectionId", writeAuth, collection.Delete)
		collectionGroup.PATCH("/toggle-question", writeAuth, collection.ToggleQuestion)
	}

	// 问题相关接口
	questionGroup := r.Group("/api/question")
	{
		questionGroup.GET("/:questionId", optionalAuth, question.Get)
		questionGroup.POST("", writeAuth, question.Ask)
		questionGroup.POST("/:questionId/upvote", writeAuth, question.Upvote)
	}

	if d.Hub != nil {
		ws := handler.NewWSHandler(d.Hub)
		r.GET("/api/ws", optionalAuth, ws.Serve)
	}

	return r
}
