package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/model"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/util"
	"MiniSocial/internal/repository"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "log/slog"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// ChatService 即时通讯服务接口定义。
// 只负责校验与持久化，推送由网关侧的 ChatPusher 在落库之后执行。
type ChatService interface {
	SendMessage(ctx context.Context, senderID string, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	GetOrCreateConversation(ctx context.Context, senderID, recipientID string) (*model.Conversation, error)
	DeleteMessage(ctx context.Context, requesterID string, messageID uint64) (*dto.MessageDeletedEvent, error)
	GetConversationList(ctx context.Context, userID string, cursor string, size int) (*dto.PageResult[*dto.ConversationDTO], error)
	GetMessageList(ctx context.Context, userID string, convID uint64, cursorID uint64, size int) (*dto.PageResult[*dto.MessageDTO], error)
	MarkAsRead(ctx context.Context, userID string, convID uint64, messageID uint64) error
}

// ParticipantFinder 网关侧订阅与扇出所需的最小会话成员查询能力
type ParticipantFinder interface {
	GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error)
	ListConversationIDs(ctx context.Context, userID string) ([]uint64, error)
}

type chatServiceImpl struct {
	convRepo      repository.ConversationRepo
	msgRepo       repository.MessageRepo
	userService   UserService
	attachService AttachmentService
}

func NewChatService(convRepo repository.ConversationRepo, msgRepo repository.MessageRepo,
	userService UserService, attachService AttachmentService) ChatService {
	return &chatServiceImpl{
		convRepo:      convRepo,
		msgRepo:       msgRepo,
		userService:   userService,
		attachService: attachService,
	}
}

// SendMessage 发送消息。校验顺序：附件上限 -> 会话成员资格 -> 接收者查找或建会话 -> 内容非空
func (s *chatServiceImpl) SendMessage(ctx context.Context, senderID string, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if len(req.Attachments) > consts.MaxAttachmentsPerMessage {
		return nil, ErrTooManyAttachments
	}

	var conv *model.Conversation
	var err error
	if req.ConversationID != 0 {
		conv, err = s.convRepo.GetConversation(ctx, req.ConversationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, err
		}
		isMember, err := s.convRepo.IsParticipant(ctx, conv.ID, senderID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, ErrNotParticipant
		}
	} else if req.RecipientID != "" {
		conv, err = s.GetOrCreateConversation(ctx, senderID, req.RecipientID)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, ErrRecipientRequired
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		MessageType:    consts.MessageTypeText,
		CreatedAt:      time.Now(),
	}
	if content != "" {
		msg.Content = &content
	}
	if len(req.Attachments) > 0 {
		msg.MessageType = consts.MessageTypeAttachment
		for _, a := range req.Attachments {
			msg.Attachments = append(msg.Attachments, model.Attachment{
				FileName:  a.FileName,
				ObjectKey: a.ObjectKey,
				FileType:  a.FileType,
				FileSize:  a.FileSize,
				FileURL:   a.FileURL,
			})
		}
	}

	preview := util.TruncateRunes(content, consts.LastMessagePreviewLen)
	if preview == "" {
		preview = fmt.Sprintf("[附件] %s", msg.Attachments[0].FileName)
		preview = util.TruncateRunes(preview, consts.LastMessagePreviewLen)
	}

	if err = s.msgRepo.CreateWithSummary(ctx, msg, preview); err != nil {
		return nil, err
	}

	// 附件已随消息落库，从待清理集合移除
	if len(msg.Attachments) > 0 {
		keys := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			keys = append(keys, a.ObjectKey)
		}
		s.attachService.MarkBound(ctx, keys)
	}

	return toMessageDTO(msg), nil
}

// GetOrCreateConversation 针对单聊：按 PeerKey 查找或创建会话。
// 唯一索引冲突说明对端并发抢建成功，重查一次即可拿到胜者。
func (s *chatServiceImpl) GetOrCreateConversation(ctx context.Context, senderID, recipientID string) (*model.Conversation, error) {
	if recipientID == senderID {
		return nil, ErrChatWithSelf
	}
	if _, err := s.userService.GetSimpleInfo(ctx, recipientID); err != nil {
		return nil, ErrUserNotFound
	}

	peerKey := buildPeerKey(senderID, recipientID)

	conv, err := s.convRepo.GetConversationByPeerKey(ctx, peerKey)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newConv := &model.Conversation{
		Type:      consts.ConversationTypeOneToOne,
		PeerKey:   &peerKey,
		CreatedBy: senderID,
	}
	participants := []*model.ConversationParticipant{
		{UserID: senderID},
		{UserID: recipientID},
	}

	err = s.convRepo.CreateConversation(ctx, newConv, participants)
	if errors.Is(err, repository.ErrConversationExists) {
		return s.convRepo.GetConversationByPeerKey(ctx, peerKey)
	}
	if err != nil {
		return nil, err
	}
	return newConv, nil
}

// DeleteMessage 发送者软删除：写墓碑并清理附件。重复删除按幂等处理。
func (s *chatServiceImpl) DeleteMessage(ctx context.Context, requesterID string, messageID uint64) (*dto.MessageDeletedEvent, error) {
	msg, err := s.msgRepo.GetMessage(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	if msg.SenderID != requesterID {
		return nil, ErrNotMessageSender
	}

	event := &dto.MessageDeletedEvent{
		Type:           "MESSAGE_DELETED",
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	}
	if msg.IsDeleted {
		return event, nil
	}

	objectKeys, err := s.msgRepo.SoftDelete(ctx, messageID)
	if err != nil {
		return nil, err
	}

	// 对象存储清理尽力而为，失败留给清理任务兜底
	if len(objectKeys) > 0 {
		go func() {
			cleanCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.attachService.RemoveObjects(cleanCtx, objectKeys); err != nil {
				log.Error("Failed to remove message attachments from storage",
					"messageID", messageID, "err", err)
			}
		}()
	}

	return event, nil
}

// GetConversationList 会话列表：(updated_at, id) 复合游标，附带对端资料与未读数
func (s *chatServiceImpl) GetConversationList(ctx context.Context, userID string, cursor string, size int) (*dto.PageResult[*dto.ConversationDTO], error) {
	if size <= 0 {
		size = consts.DefaultConversationPageSize
	}
	if size > consts.MaxConversationPageSize {
		size = consts.MaxConversationPageSize
	}

	cursorUpdatedAt, cursorID, err := decodeConversationCursor(cursor)
	if err != nil {
		return nil, ErrParamInvalid
	}

	convs, err := s.convRepo.ListByUser(ctx, userID, cursorUpdatedAt, cursorID, size+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(convs) > size
	if hasMore {
		convs = convs[:size]
	}

	convIDs := make([]uint64, 0, len(convs))
	for _, c := range convs {
		convIDs = append(convIDs, c.ID)
	}
	lastReadMap := map[uint64]uint64{}
	if len(convIDs) > 0 {
		lastReadMap, err = s.convRepo.GetLastRead(ctx, convIDs, userID)
		if err != nil {
			return nil, err
		}
	}

	list := make([]*dto.ConversationDTO, 0, len(convs))
	for _, c := range convs {
		d := &dto.ConversationDTO{
			ConversationID:      c.ID,
			Type:                c.Type,
			LastMessageContent:  c.LastMessageContent,
			LastMessageType:     c.LastMessageType,
			LastMessageSenderID: c.LastMessageSenderID,
			UpdatedAt:           c.UpdatedAt,
		}

		if c.Type == consts.ConversationTypeOneToOne && c.PeerKey != nil {
			if peerID, ok := parsePeerID(*c.PeerKey, userID); ok {
				d.PeerID = peerID
				if info, err := s.userService.GetSimpleInfo(ctx, peerID); err == nil {
					d.PeerName = info.DisplayName
					d.PeerAvatar = info.AvatarURL
				}
			}
		}

		unread, err := s.msgRepo.CountAfter(ctx, c.ID, lastReadMap[c.ID])
		if err == nil {
			d.UnreadCount = unread
		}
		list = append(list, d)
	}

	result := &dto.PageResult[*dto.ConversationDTO]{List: list, HasMore: hasMore}
	if hasMore && len(convs) > 0 {
		last := convs[len(convs)-1]
		result.NextCursor = util.EncodeCursor([]interface{}{
			last.UpdatedAt.Format(time.RFC3339Nano), last.ID,
		})
	}
	return result, nil
}

// GetMessageList 消息历史：id 游标降序，先校验成员资格
func (s *chatServiceImpl) GetMessageList(ctx context.Context, userID string, convID uint64, cursorID uint64, size int) (*dto.PageResult[*dto.MessageDTO], error) {
	if size <= 0 {
		size = consts.DefaultMessagePageSize
	}
	if size > consts.MaxMessagePageSize {
		size = consts.MaxMessagePageSize
	}

	isMember, err := s.convRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotParticipant
	}

	msgs, err := s.msgRepo.ListByConversation(ctx, convID, cursorID, size+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(msgs) > size
	if hasMore {
		msgs = msgs[:size]
	}

	list := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		list = append(list, toMessageDTO(m))
	}

	result := &dto.PageResult[*dto.MessageDTO]{List: list, HasMore: hasMore}
	if hasMore && len(msgs) > 0 {
		result.NextCursor = strconv.FormatUint(msgs[len(msgs)-1].ID, 10)
	}
	return result, nil
}

// MarkAsRead 标记已读，进度只进不退
func (s *chatServiceImpl) MarkAsRead(ctx context.Context, userID string, convID uint64, messageID uint64) error {
	isMember, err := s.convRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotParticipant
	}

	latestID, err := s.msgRepo.GetLatestID(ctx, convID)
	if err != nil {
		return err
	}
	if messageID > latestID {
		messageID = latestID
	}

	return s.convRepo.UpdateLastRead(ctx, convID, userID, messageID)
}

func (s *chatServiceImpl) GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error) {
	return s.convRepo.GetParticipantIDs(ctx, convID)
}

func (s *chatServiceImpl) ListConversationIDs(ctx context.Context, userID string) ([]uint64, error) {
	return s.convRepo.ListConversationIDs(ctx, userID)
}

// buildPeerKey 生成单聊唯一标识：按字典序排列两个用户 ID
func buildPeerKey(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// parsePeerID 从 PeerKey 中解析对端用户 ID
func parsePeerID(peerKey, selfID string) (string, bool) {
	low, high, found := strings.Cut(peerKey, "_")
	if !found {
		return "", false
	}
	if low == selfID {
		return high, true
	}
	if high == selfID {
		return low, true
	}
	return "", false
}

func toMessageDTO(msg *model.Message) *dto.MessageDTO {
	d := &dto.MessageDTO{Attachments: []dto.AttachmentDTO{}}
	_ = copier.Copy(d, msg)
	if msg.Content != nil {
		d.Content = *msg.Content
	}
	return d
}

// decodeConversationCursor 解码 (updated_at, id) 复合游标
func decodeConversationCursor(cursor string) (*time.Time, uint64, error) {
	values, err := util.DecodeCursor(cursor)
	if err != nil {
		return nil, 0, err
	}
	if values == nil {
		return nil, 0, nil
	}
	if len(values) != 2 {
		return nil, 0, errors.New("invalid cursor")
	}

	tsStr, ok := values[0].(string)
	if !ok {
		return nil, 0, errors.New("invalid cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return nil, 0, err
	}

	idNum, ok := values[1].(float64)
	if !ok {
		return nil, 0, errors.New("invalid cursor")
	}
	return &ts, uint64(idNum), nil
}
