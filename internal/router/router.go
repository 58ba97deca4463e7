package router

import (
	"wardwatch/internal/auth"
	"wardwatch/internal/handlers"
	"wardwatch/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Vote    *handlers.VoteHandler
	Read    *handlers.ReadHandler
	Message *handlers.MessageHandler
	Stream  *handlers.StreamHandler
	Health  *handlers.HealthHandler
}

// Options configures the engine around the routes.
type Options struct {
	DB            *gorm.DB
	Tokens        *auth.JWTManager
	SessionName   string
	SessionSecret string
	// Gatherer backs /metrics; nil leaves the endpoint off.
	Gatherer prometheus.Gatherer
}

// New builds the gin engine with sessions, actor loading and all routes.
func New(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	store := cookie.NewStore([]byte(opts.SessionSecret))
	r.Use(sessions.Sessions(opts.SessionName, store))

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	RegisterRoutes(r, opts, h)
	return r
}

func RegisterRoutes(r *gin.Engine, opts Options, h Handlers) {
	r.GET("/healthz", h.Health.Health) // 健康检查

	api := r.Group("/api")
	api.Use(middleware.LoadUser(opts.DB, opts.Tokens), middleware.AuthRequired())
	{
		api.POST("/votes/:issueToken", h.Vote.Cast)           // 投票
		api.GET("/votes/:issueToken/summary", h.Vote.Summary) // 投票汇总

		api.GET("/issue-reports/unread", h.Read.Unread)              // 批量未读数
		api.GET("/issue-reports/:token/read", h.Read.Get)            // 已读位置
		api.PUT("/issue-reports/:token/read", h.Read.Mark)           // 标记已读
		api.GET("/issue-reports/:token/messages", h.Message.List)    // 讨论列表
		api.POST("/issue-reports/:token/messages", h.Message.Create) // 发表消息

		api.GET("/realtime/stream", h.Stream.Stream)                            // SSE 事件流
		api.POST("/realtime/subscriptions/:id/issues/:token", h.Stream.Join)    // 加入议题房间
		api.DELETE("/realtime/subscriptions/:id/issues/:token", h.Stream.Leave) // 离开议题房间
	}
}
