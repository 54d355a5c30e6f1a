package wire

import (
	"MiniSocial/internal/api"
	"MiniSocial/internal/api/config"
	"MiniSocial/internal/api/handler"
	"MiniSocial/internal/job"
	"MiniSocial/internal/pkg/cron"
	"MiniSocial/internal/pkg/es"
	"MiniSocial/internal/pkg/identity"
	"MiniSocial/internal/pkg/kafka"
	"MiniSocial/internal/repository"
	"MiniSocial/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Producer *kafka.Producer
	CronMgr  *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	convRepo := repository.NewConversationRepo(db)
	msgRepo := repository.NewMessageRepo(db)
	userRepo := repository.NewUserRepository(db)
	esUserRepo := es.NewUserRepo()

	identityCli := identity.NewClient(cfg.Identity)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	userService := service.NewUserService(userRepo, esUserRepo, identityCli)
	attachService := service.NewAttachmentService()
	chatService := service.NewChatService(convRepo, msgRepo, userService, attachService)
	adminService := service.NewAdminService(convRepo, msgRepo, attachService)
	pusher := service.NewChatPusher(producer)

	convFinder := chatService.(service.ParticipantFinder)

	handlers := &api.HandlersGroup{
		ChatHandler:       handler.NewChatHandler(chatService, convFinder, pusher),
		WSHandler:         handler.NewWsHandler(chatService, convFinder, pusher),
		AttachmentHandler: handler.NewAttachmentHandler(attachService, chatService, convFinder),
		UserHandler:       handler.NewUserHandler(userService),
		AdminHandler:      handler.NewAdminHandler(adminService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(job.NewAttachmentCleanupJob())

	return &ApplicationContainer{
		Router:   router,
		DB:       db,
		Producer: producer,
		CronMgr:  cronMgr,
	}, nil
}
