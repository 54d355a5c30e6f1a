package handler

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/redis"
	"MiniSocial/internal/pkg/response"
	"MiniSocial/internal/pkg/security"
	"MiniSocial/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	chatService service.ChatService
	convFinder  service.ParticipantFinder
	pusher      service.ChatPusher
}

// ParticipantFinder 见 service 包，网关侧只需要成员列表
func NewWsHandler(chatService service.ChatService, convFinder service.ParticipantFinder, pusher service.ChatPusher) *WsHandler {
	return &WsHandler{
		chatService: chatService,
		convFinder:  convFinder,
		pusher:      pusher,
	}
}

// Connect WebSocket 接入：握手时一次性鉴权，连接生命周期内身份不变
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// 订阅个人频道 + 用户参与的所有会话频道
	channels := []string{consts.IMUserKey + userID}
	convIDs, err := s.convFinder.ListConversationIDs(context.Background(), userID)
	if err != nil {
		log.Error("获取会话列表失败", "userID", userID, "err", err)
		return
	}
	for _, id := range convIDs {
		channels = append(channels, consts.IMConversationKey+strconv.FormatUint(id, 10))
	}

	// 订阅 Redis 总线
	pubsub := redis.Subscribe(context.Background(), channels...)
	defer func() {
		_ = pubsub.Close()
	}()

	log.Info("用户 WS 连接已建立", "userID", userID, "channels", len(channels))

	stopChan := make(chan struct{})
	outbound := make(chan []byte, 16)

	// 读循环：解析客户端指令，错误帧只回发本连接
	go func() {
		defer close(stopChan)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleCommand(userID, data, outbound)
		}
	}()

	// 写循环：串行化所有对外写入
	redisCh := pubsub.Channel()
	for {
		select {
		case msg := <-redisCh:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case frame := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}

// handleCommand 执行单条指令。推送一律发生在落库之后。
func (s *WsHandler) handleCommand(userID string, data []byte, outbound chan<- []byte) {
	var cmd dto.WsCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.sendError(outbound, service.BadRequest, "指令格式错误")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cmd.Type {
	case "send":
		req := &dto.SendMessageReq{
			ConversationID: cmd.ConversationID,
			RecipientID:    cmd.RecipientID,
			Content:        cmd.Content,
			Attachments:    cmd.Attachments,
		}
		msg, err := s.chatService.SendMessage(ctx, userID, req)
		if err != nil {
			s.sendServiceError(outbound, err)
			return
		}
		participants, err := s.convFinder.GetParticipantIDs(ctx, msg.ConversationID)
		if err != nil {
			log.Error("获取会话成员失败", "conversationID", msg.ConversationID, "err", err)
			return
		}
		s.pusher.PushMessage(msg, participants)

	case "delete":
		event, err := s.chatService.DeleteMessage(ctx, userID, cmd.MessageID)
		if err != nil {
			s.sendServiceError(outbound, err)
			return
		}
		s.pusher.PushDeletion(event)

	default:
		s.sendError(outbound, service.BadRequest, "未知指令类型")
	}
}

func (s *WsHandler) sendServiceError(outbound chan<- []byte, err error) {
	code, ok := service.ErrorMap[err]
	if !ok {
		code = service.InternalServerError
		log.Error("WS 指令执行失败", "err", err)
	}
	s.sendError(outbound, code, err.Error())
}

func (s *WsHandler) sendError(outbound chan<- []byte, code int, message string) {
	frame, err := json.Marshal(&dto.WsError{Type: "error", Code: code, Message: message})
	if err != nil {
		return
	}
	select {
	case outbound <- frame:
	default:
	}
}
