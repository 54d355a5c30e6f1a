package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/model"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/repository"
	"context"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type convRepoMock struct {
	mock.Mock
}

func (m *convRepoMock) CreateConversation(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error {
	args := m.Called(ctx, conv, participants)
	return args.Error(0)
}

func (m *convRepoMock) GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *convRepoMock) GetConversationByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error) {
	args := m.Called(ctx, peerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *convRepoMock) IsParticipant(ctx context.Context, convID uint64, userID string) (bool, error) {
	args := m.Called(ctx, convID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *convRepoMock) GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error) {
	args := m.Called(ctx, convID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *convRepoMock) ListConversationIDs(ctx context.Context, userID string) ([]uint64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *convRepoMock) ListByUser(ctx context.Context, userID string, cursorUpdatedAt *time.Time, cursorID uint64, limit int) ([]*model.Conversation, error) {
	args := m.Called(ctx, userID, cursorUpdatedAt, cursorID, limit)
	return args.Get(0).([]*model.Conversation), args.Error(1)
}

func (m *convRepoMock) UpdateLastRead(ctx context.Context, convID uint64, userID string, messageID uint64) error {
	args := m.Called(ctx, convID, userID, messageID)
	return args.Error(0)
}

func (m *convRepoMock) GetLastRead(ctx context.Context, convIDs []uint64, userID string) (map[uint64]uint64, error) {
	args := m.Called(ctx, convIDs, userID)
	return args.Get(0).(map[uint64]uint64), args.Error(1)
}

func (m *convRepoMock) ListAll(ctx context.Context, cursorID uint64, limit int) ([]*model.Conversation, error) {
	args := m.Called(ctx, cursorID, limit)
	return args.Get(0).([]*model.Conversation), args.Error(1)
}

func (m *convRepoMock) DeleteConversation(ctx context.Context, convID uint64) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

type msgRepoMock struct {
	mock.Mock
}

func (m *msgRepoMock) CreateWithSummary(ctx context.Context, msg *model.Message, preview string) error {
	args := m.Called(ctx, msg, preview)
	return args.Error(0)
}

func (m *msgRepoMock) GetMessage(ctx context.Context, msgID uint64) (*model.Message, error) {
	args := m.Called(ctx, msgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *msgRepoMock) ListByConversation(ctx context.Context, convID uint64, cursorID uint64, limit int) ([]*model.Message, error) {
	args := m.Called(ctx, convID, cursorID, limit)
	return args.Get(0).([]*model.Message), args.Error(1)
}

func (m *msgRepoMock) SoftDelete(ctx context.Context, msgID uint64) ([]string, error) {
	args := m.Called(ctx, msgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *msgRepoMock) CountAfter(ctx context.Context, convID uint64, afterID uint64) (int64, error) {
	args := m.Called(ctx, convID, afterID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *msgRepoMock) GetLatestID(ctx context.Context, convID uint64) (uint64, error) {
	args := m.Called(ctx, convID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *msgRepoMock) HardDelete(ctx context.Context, msgID uint64) ([]string, error) {
	args := m.Called(ctx, msgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type userServiceMock struct {
	mock.Mock
}

func (m *userServiceMock) EnsureUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *userServiceMock) GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserDTO), args.Error(1)
}

func (m *userServiceMock) UpdateUserInfo(ctx context.Context, id string, req *dto.UpdateUserInfoDTO) error {
	return m.Called(ctx, id, req).Error(0)
}

func (m *userServiceMock) UpdateAvatar(ctx context.Context, id string, objectName string) (string, error) {
	args := m.Called(ctx, id, objectName)
	return args.String(0), args.Error(1)
}

func (m *userServiceMock) GetSimpleInfo(ctx context.Context, id string) (*dto.SimpleUserDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SimpleUserDTO), args.Error(1)
}

func (m *userServiceMock) GetSimpleInfoByIds(ctx context.Context, ids []string) ([]*dto.SimpleUserDTO, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*dto.SimpleUserDTO), args.Error(1)
}

func (m *userServiceMock) SearchUser(ctx context.Context, req *dto.SearchUserDTO) (*dto.PageResult[*dto.SimpleUserDTO], error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PageResult[*dto.SimpleUserDTO]), args.Error(1)
}

type attachServiceMock struct {
	mock.Mock
}

func (m *attachServiceMock) Upload(ctx context.Context, convID uint64, file *multipart.FileHeader) (*dto.AttachmentReq, error) {
	args := m.Called(ctx, convID, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AttachmentReq), args.Error(1)
}

func (m *attachServiceMock) MarkBound(ctx context.Context, objectKeys []string) {
	m.Called(ctx, objectKeys)
}

func (m *attachServiceMock) RemoveObjects(ctx context.Context, objectKeys []string) error {
	return m.Called(ctx, objectKeys).Error(0)
}

func newTestChatService() (*convRepoMock, *msgRepoMock, *userServiceMock, *attachServiceMock, ChatService) {
	convRepo := new(convRepoMock)
	msgRepo := new(msgRepoMock)
	userSvc := new(userServiceMock)
	attachSvc := new(attachServiceMock)
	svc := NewChatService(convRepo, msgRepo, userSvc, attachSvc)
	return convRepo, msgRepo, userSvc, attachSvc, svc
}

func TestSendMessageTooManyAttachments(t *testing.T) {
	_, _, _, _, svc := newTestChatService()

	attachments := make([]dto.AttachmentReq, consts.MaxAttachmentsPerMessage+1)
	_, err := svc.SendMessage(context.Background(), "alice", &dto.SendMessageReq{
		ConversationID: 1,
		Attachments:    attachments,
	})
	assert.ErrorIs(t, err, ErrTooManyAttachments)
}

func TestSendMessageNotParticipant(t *testing.T) {
	convRepo, _, _, _, svc := newTestChatService()

	convRepo.On("GetConversation", mock.Anything, uint64(9)).
		Return(&model.Conversation{ID: 9}, nil).Once()
	convRepo.On("IsParticipant", mock.Anything, uint64(9), "mallory").
		Return(false, nil).Once()

	_, err := svc.SendMessage(context.Background(), "mallory", &dto.SendMessageReq{
		ConversationID: 9,
		Content:        "hi",
	})
	assert.ErrorIs(t, err, ErrNotParticipant)
	convRepo.AssertExpectations(t)
}

func TestSendMessageMissingTarget(t *testing.T) {
	_, _, _, _, svc := newTestChatService()

	_, err := svc.SendMessage(context.Background(), "alice", &dto.SendMessageReq{Content: "hi"})
	assert.ErrorIs(t, err, ErrRecipientRequired)
}

func TestSendMessageEmpty(t *testing.T) {
	convRepo, _, _, _, svc := newTestChatService()

	convRepo.On("GetConversation", mock.Anything, uint64(3)).
		Return(&model.Conversation{ID: 3}, nil).Once()
	convRepo.On("IsParticipant", mock.Anything, uint64(3), "alice").
		Return(true, nil).Once()

	_, err := svc.SendMessage(context.Background(), "alice", &dto.SendMessageReq{
		ConversationID: 3,
		Content:        "   ",
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendMessagePersistsWithTruncatedPreview(t *testing.T) {
	convRepo, msgRepo, _, _, svc := newTestChatService()

	convRepo.On("GetConversation", mock.Anything, uint64(3)).
		Return(&model.Conversation{ID: 3}, nil).Once()
	convRepo.On("IsParticipant", mock.Anything, uint64(3), "alice").
		Return(true, nil).Once()

	content := strings.Repeat("打", consts.LastMessagePreviewLen+10)
	wantPreview := strings.Repeat("打", consts.LastMessagePreviewLen) + "..."

	msgRepo.On("CreateWithSummary", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.ConversationID == 3 && m.SenderID == "alice" &&
			m.MessageType == consts.MessageTypeText && m.Content != nil && *m.Content == content
	}), wantPreview).Return(nil).Once()

	res, err := svc.SendMessage(context.Background(), "alice", &dto.SendMessageReq{
		ConversationID: 3,
		Content:        content,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.ConversationID)
	assert.Equal(t, content, res.Content)
	msgRepo.AssertExpectations(t)
}

func TestSendMessageWithAttachmentsMarksBound(t *testing.T) {
	convRepo, msgRepo, _, attachSvc, svc := newTestChatService()

	convRepo.On("GetConversation", mock.Anything, uint64(3)).
		Return(&model.Conversation{ID: 3}, nil).Once()
	convRepo.On("IsParticipant", mock.Anything, uint64(3), "alice").
		Return(true, nil).Once()
	msgRepo.On("CreateWithSummary", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.MessageType == consts.MessageTypeAttachment && len(m.Attachments) == 1
	}), mock.Anything).Return(nil).Once()
	attachSvc.On("MarkBound", mock.Anything, []string{"conversations/3/a.png"}).Return().Once()

	res, err := svc.SendMessage(context.Background(), "alice", &dto.SendMessageReq{
		ConversationID: 3,
		Attachments: []dto.AttachmentReq{
			{FileName: "a.png", ObjectKey: "conversations/3/a.png", FileType: "image/png", FileSize: 42},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, consts.MessageTypeAttachment, res.MessageType)
	attachSvc.AssertExpectations(t)
}

func TestGetOrCreateConversationReusesExisting(t *testing.T) {
	convRepo, _, userSvc, _, svc := newTestChatService()

	userSvc.On("GetSimpleInfo", mock.Anything, "alice").
		Return(&dto.SimpleUserDTO{ID: "alice"}, nil).Once()
	convRepo.On("GetConversationByPeerKey", mock.Anything, "alice_bob").
		Return(&model.Conversation{ID: 7}, nil).Once()

	conv, err := svc.GetOrCreateConversation(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), conv.ID)
	convRepo.AssertNotCalled(t, "CreateConversation", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrCreateConversationConflictRecovers(t *testing.T) {
	convRepo, _, userSvc, _, svc := newTestChatService()

	userSvc.On("GetSimpleInfo", mock.Anything, "bob").
		Return(&dto.SimpleUserDTO{ID: "bob"}, nil).Once()
	convRepo.On("GetConversationByPeerKey", mock.Anything, "alice_bob").
		Return(nil, gorm.ErrRecordNotFound).Once()
	convRepo.On("CreateConversation", mock.Anything, mock.Anything, mock.Anything).
		Return(repository.ErrConversationExists).Once()
	// 并发冲突后重查得到胜者
	convRepo.On("GetConversationByPeerKey", mock.Anything, "alice_bob").
		Return(&model.Conversation{ID: 11}, nil).Once()

	conv, err := svc.GetOrCreateConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), conv.ID)
	convRepo.AssertExpectations(t)
}

func TestGetOrCreateConversationWithSelf(t *testing.T) {
	_, _, _, _, svc := newTestChatService()

	_, err := svc.GetOrCreateConversation(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrChatWithSelf)
}

func TestDeleteMessageNotFound(t *testing.T) {
	_, msgRepo, _, _, svc := newTestChatService()

	msgRepo.On("GetMessage", mock.Anything, uint64(404)).
		Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.DeleteMessage(context.Background(), "alice", 404)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestDeleteMessageForbiddenForNonSender(t *testing.T) {
	_, msgRepo, _, _, svc := newTestChatService()

	msgRepo.On("GetMessage", mock.Anything, uint64(5)).
		Return(&model.Message{ID: 5, ConversationID: 2, SenderID: "bob"}, nil).Once()

	_, err := svc.DeleteMessage(context.Background(), "alice", 5)
	assert.ErrorIs(t, err, ErrNotMessageSender)
}

func TestDeleteMessageIdempotent(t *testing.T) {
	_, msgRepo, _, _, svc := newTestChatService()

	msgRepo.On("GetMessage", mock.Anything, uint64(5)).
		Return(&model.Message{ID: 5, ConversationID: 2, SenderID: "alice", IsDeleted: true}, nil).Once()

	event, err := svc.DeleteMessage(context.Background(), "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), event.MessageID)
	assert.Equal(t, uint64(2), event.ConversationID)
	msgRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestDeleteMessageWritesTombstone(t *testing.T) {
	_, msgRepo, _, _, svc := newTestChatService()

	msgRepo.On("GetMessage", mock.Anything, uint64(5)).
		Return(&model.Message{ID: 5, ConversationID: 2, SenderID: "alice"}, nil).Once()
	msgRepo.On("SoftDelete", mock.Anything, uint64(5)).Return([]string{}, nil).Once()

	event, err := svc.DeleteMessage(context.Background(), "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, "MESSAGE_DELETED", event.Type)
	msgRepo.AssertExpectations(t)
}

func TestGetMessageListForbidden(t *testing.T) {
	convRepo, _, _, _, svc := newTestChatService()

	convRepo.On("IsParticipant", mock.Anything, uint64(2), "mallory").
		Return(false, nil).Once()

	_, err := svc.GetMessageList(context.Background(), "mallory", 2, 0, 20)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestGetMessageListPagination(t *testing.T) {
	convRepo, msgRepo, _, _, svc := newTestChatService()

	convRepo.On("IsParticipant", mock.Anything, uint64(2), "alice").
		Return(true, nil).Once()

	// 请求 2 条，仓库返回 3 条说明还有下一页
	msgs := []*model.Message{
		{ID: 30, ConversationID: 2, SenderID: "alice"},
		{ID: 20, ConversationID: 2, SenderID: "bob"},
		{ID: 10, ConversationID: 2, SenderID: "alice"},
	}
	msgRepo.On("ListByConversation", mock.Anything, uint64(2), uint64(0), 3).
		Return(msgs, nil).Once()

	res, err := svc.GetMessageList(context.Background(), "alice", 2, 0, 2)
	require.NoError(t, err)
	assert.Len(t, res.List, 2)
	assert.True(t, res.HasMore)
	assert.Equal(t, "20", res.NextCursor)
}

func TestMarkAsReadClampsToLatest(t *testing.T) {
	convRepo, msgRepo, _, _, svc := newTestChatService()

	convRepo.On("IsParticipant", mock.Anything, uint64(2), "alice").
		Return(true, nil).Once()
	msgRepo.On("GetLatestID", mock.Anything, uint64(2)).
		Return(uint64(50), nil).Once()
	convRepo.On("UpdateLastRead", mock.Anything, uint64(2), "alice", uint64(50)).
		Return(nil).Once()

	err := svc.MarkAsRead(context.Background(), "alice", 2, 999)
	require.NoError(t, err)
	convRepo.AssertExpectations(t)
}
