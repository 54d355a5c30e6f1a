package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/kafka"
	"MiniSocial/internal/pkg/redis"
	"context"
	"strconv"
	"time"

	log "log/slog"

	"github.com/goccy/go-json"
)

// ChatPusher 网关侧投递：Redis 频道在线推送 + Kafka 事件流。
// 全部尽力而为，失败只记日志，绝不影响已提交的写入。
type ChatPusher interface {
	PushMessage(msg *dto.MessageDTO, participantIDs []string)
	PushDeletion(event *dto.MessageDeletedEvent)
}

type chatPusherImpl struct {
	producer *kafka.Producer
}

func NewChatPusher(producer *kafka.Producer) ChatPusher {
	return &chatPusherImpl{producer: producer}
}

// PushMessage 将完整消息体逐个推送到每位成员的用户私有频道
func (p *chatPusherImpl) PushMessage(msg *dto.MessageDTO, participantIDs []string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to marshal message for push", "messageID", msg.ID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, uid := range participantIDs {
		channel := consts.IMUserKey + uid
		if err := redis.Publish(ctx, channel, data); err != nil {
			log.Error("Failed to publish message", "channel", channel, "err", err)
		}
	}

	if p.producer != nil {
		p.producer.Emit(kafka.EventMessageCreated,
			strconv.FormatUint(msg.ConversationID, 10), msg)
	}
}

// PushDeletion 将删除事件广播到会话共享频道
func (p *chatPusherImpl) PushDeletion(event *dto.MessageDeletedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal deletion event", "messageID", event.MessageID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	channel := consts.IMConversationKey + strconv.FormatUint(event.ConversationID, 10)
	if err := redis.Publish(ctx, channel, data); err != nil {
		log.Error("Failed to publish deletion event", "channel", channel, "err", err)
	}

	if p.producer != nil {
		p.producer.Emit(kafka.EventMessageDeleted,
			strconv.FormatUint(event.ConversationID, 10), event)
	}
}
