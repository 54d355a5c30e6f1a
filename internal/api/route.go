package api

import (
	"MiniSocial/internal/api/middleware"
	"MiniSocial/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		{
			// WebSocket 在握手阶段用 ?token= 自行鉴权
			imGroup.GET("", group.WSHandler.Connect)

			authGroup := imGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/send", group.ChatHandler.SendMessage)
				authGroup.POST("/read", group.ChatHandler.MarkAsRead)
				authGroup.DELETE("/messages/:message_id", group.ChatHandler.DeleteMessage)
			}
		}

		convGroup := apiGroup.Group("/conversations")
		convGroup.Use(middleware.AuthMiddleware())
		{
			convGroup.GET("", group.ChatHandler.GetConversationList)
			convGroup.GET("/:conversation_id/messages", group.ChatHandler.GetMessageList)
		}

		attachGroup := apiGroup.Group("/attachments")
		attachGroup.Use(middleware.AuthMiddleware())
		{
			attachGroup.POST("", group.AttachmentHandler.Upload)
		}

		userGroup := apiGroup.Group("/user")
		userGroup.Use(middleware.AuthMiddleware())
		{
			userGroup.GET("/info", group.UserHandler.GetInfo)
			userGroup.PUT("/info", group.UserHandler.UpdateInfo)
			userGroup.POST("/avatar", group.UserHandler.UpdateAvatar)
			userGroup.GET("/search", group.UserHandler.Search)
			userGroup.GET("/batch/simple", group.UserHandler.BatchSimpleInfo)
			userGroup.GET("/:user_id/simple", group.UserHandler.GetSimpleInfo)
		}

		// 需要登录 & 拥有 admin 角色
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles("ADMIN"))
		{
			adminGroup.GET("/conversations", group.AdminHandler.ListConversations)
			adminGroup.DELETE("/conversations/:conversation_id", group.AdminHandler.DeleteConversation)
			adminGroup.DELETE("/messages/:message_id", group.AdminHandler.DeleteMessage)
		}
	}

	return r
}
