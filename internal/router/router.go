package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/handlers"
	"unisphere/internal/logger"
	"unisphere/internal/middleware"
)

const sessionName = "unisphere_session"

type Handlers struct {
	Auth          *handlers.AuthHandler
	Posts         *handlers.PostHandler
	Comments      *handlers.CommentHandler
	Complaints    *handlers.ComplaintHandler
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Wellbeing     *handlers.WellbeingHandler
}

type Options struct {
	SessionSecret string
	CORSOrigin    string
	Profiles      middleware.ProfileGetter
	Log           *logrus.Logger
}

// New builds the engine with sessions, CORS, gzip and the API routes.
func New(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(logger.GinWriter(opts.Log)), gin.RecoveryWithWriter(logger.GinWriter(opts.Log)))
	r.Use(cors.New(corsConfig(opts.CORSOrigin)))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(opts.Profiles, opts.Log))

	RegisterRoutes(r, h)
	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		// credentials are not allowed with a literal wildcard
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// 公共路由
	auth := api.Group("/auth")
	{
		auth.GET("/captcha", h.Auth.Captcha)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.AuthRequired(), h.Auth.Me)
	}

	api.GET("/posts", h.Posts.List)
	api.GET("/posts/:pid", h.Posts.Get)
	api.GET("/posts/:pid/comments", h.Comments.Tree)

	// 受保护路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", h.Posts.Create)
		authorized.PATCH("/posts/:pid", h.Posts.Update)
		authorized.DELETE("/posts/:pid", h.Posts.Delete)
		authorized.POST("/posts/:pid/reactions", h.Posts.React)

		authorized.POST("/posts/:pid/comments", h.Comments.Create)
		authorized.POST("/posts/:pid/comments/:cid/replies", h.Comments.Reply)
		authorized.PATCH("/posts/:pid/comments/:cid", h.Comments.Update)
		authorized.DELETE("/posts/:pid/comments/:cid", h.Comments.Delete)
		authorized.POST("/posts/:pid/comments/:cid/like", h.Comments.Like)

		authorized.POST("/chat", h.Chat.Chat)
		authorized.GET("/chat/history", h.Chat.History)
		authorized.DELETE("/chat/history", h.Chat.Clear)

		authorized.GET("/notifications", h.Notifications.List)
		authorized.POST("/notifications", h.Notifications.Create)
		authorized.POST("/notifications/read-all", h.Notifications.ReadAll)
		authorized.PATCH("/notifications/:id", h.Notifications.Update)
		authorized.POST("/notifications/:id/read", h.Notifications.Read)
		authorized.DELETE("/notifications/:id", h.Notifications.Delete)

		authorized.GET("/moods", h.Wellbeing.ListMoods)
		authorized.POST("/moods", h.Wellbeing.CreateMood)
		authorized.PATCH("/moods/:id", h.Wellbeing.UpdateMood)
		authorized.DELETE("/moods/:id", h.Wellbeing.DeleteMood)

		authorized.GET("/sentiment-reports", h.Wellbeing.ListReports)
		authorized.POST("/sentiment-reports", h.Wellbeing.CreateReport)
		authorized.PATCH("/sentiment-reports/:id", h.Wellbeing.UpdateReport)
		authorized.DELETE("/sentiment-reports/:id", h.Wellbeing.DeleteReport)

		authorized.POST("/complaints", h.Complaints.Create)
		authorized.GET("/complaints/mine", h.Complaints.Mine)
	}

	// 管理路由
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/complaints", h.Complaints.AdminList)
		admin.PATCH("/complaints/:id", h.Complaints.AdminUpdate)
		admin.DELETE("/complaints/:id", h.Complaints.AdminDelete)
		admin.GET("/sentiment", h.Chat.Report)
		admin.POST("/sentiment/reset", h.Chat.ResetLLM)
	}
}
