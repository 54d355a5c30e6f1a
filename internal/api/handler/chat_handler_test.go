package handler

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/model"
	"MiniSocial/internal/service"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chatServiceMock struct {
	mock.Mock
}

func (m *chatServiceMock) SendMessage(ctx context.Context, senderID string, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MessageDTO), args.Error(1)
}

func (m *chatServiceMock) GetOrCreateConversation(ctx context.Context, senderID, recipientID string) (*model.Conversation, error) {
	args := m.Called(ctx, senderID, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *chatServiceMock) DeleteMessage(ctx context.Context, requesterID string, messageID uint64) (*dto.MessageDeletedEvent, error) {
	args := m.Called(ctx, requesterID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MessageDeletedEvent), args.Error(1)
}

func (m *chatServiceMock) GetConversationList(ctx context.Context, userID string, cursor string, size int) (*dto.PageResult[*dto.ConversationDTO], error) {
	args := m.Called(ctx, userID, cursor, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PageResult[*dto.ConversationDTO]), args.Error(1)
}

func (m *chatServiceMock) GetMessageList(ctx context.Context, userID string, convID uint64, cursorID uint64, size int) (*dto.PageResult[*dto.MessageDTO], error) {
	args := m.Called(ctx, userID, convID, cursorID, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PageResult[*dto.MessageDTO]), args.Error(1)
}

func (m *chatServiceMock) MarkAsRead(ctx context.Context, userID string, convID uint64, messageID uint64) error {
	return m.Called(ctx, userID, convID, messageID).Error(0)
}

type finderMock struct {
	mock.Mock
}

func (m *finderMock) GetParticipantIDs(ctx context.Context, convID uint64) ([]string, error) {
	args := m.Called(ctx, convID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *finderMock) ListConversationIDs(ctx context.Context, userID string) ([]uint64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint64), args.Error(1)
}

type pusherMock struct {
	mock.Mock
}

func (m *pusherMock) PushMessage(msg *dto.MessageDTO, participantIDs []string) {
	m.Called(msg, participantIDs)
}

func (m *pusherMock) PushDeletion(event *dto.MessageDeletedEvent) {
	m.Called(event)
}

func setupChatRouter(h *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "alice")
		c.Next()
	})
	r.POST("/im/send", h.SendMessage)
	r.POST("/im/read", h.MarkAsRead)
	r.DELETE("/im/messages/:message_id", h.DeleteMessage)
	r.GET("/conversations", h.GetConversationList)
	r.GET("/conversations/:conversation_id/messages", h.GetMessageList)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSendMessagePushesAfterPersist(t *testing.T) {
	chatSvc := new(chatServiceMock)
	finder := new(finderMock)
	pusher := new(pusherMock)
	router := setupChatRouter(NewChatHandler(chatSvc, finder, pusher))

	msg := &dto.MessageDTO{ID: 10, ConversationID: 3, SenderID: "alice", Content: "hi"}
	chatSvc.On("SendMessage", mock.Anything, "alice", mock.Anything).Return(msg, nil).Once()
	finder.On("GetParticipantIDs", mock.Anything, uint64(3)).Return([]string{"alice", "bob"}, nil).Once()
	pusher.On("PushMessage", msg, []string{"alice", "bob"}).Return().Once()

	body := bytes.NewBufferString(`{"conversation_id":3,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/im/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.Equal(t, 200, resp.Code)
	chatSvc.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestSendMessageForbiddenCode(t *testing.T) {
	chatSvc := new(chatServiceMock)
	pusher := new(pusherMock)
	router := setupChatRouter(NewChatHandler(chatSvc, new(finderMock), pusher))

	chatSvc.On("SendMessage", mock.Anything, "alice", mock.Anything).
		Return(nil, service.ErrNotParticipant).Once()

	body := bytes.NewBufferString(`{"conversation_id":3,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/im/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, service.Forbidden, resp.Code)
	pusher.AssertNotCalled(t, "PushMessage", mock.Anything, mock.Anything)
}

func TestDeleteMessagePushesDeletion(t *testing.T) {
	chatSvc := new(chatServiceMock)
	pusher := new(pusherMock)
	router := setupChatRouter(NewChatHandler(chatSvc, new(finderMock), pusher))

	event := &dto.MessageDeletedEvent{Type: "MESSAGE_DELETED", MessageID: 5, ConversationID: 3}
	chatSvc.On("DeleteMessage", mock.Anything, "alice", uint64(5)).Return(event, nil).Once()
	pusher.On("PushDeletion", event).Return().Once()

	req := httptest.NewRequest(http.MethodDelete, "/im/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, 200, resp.Code)
	pusher.AssertExpectations(t)
}

func TestDeleteMessageBadID(t *testing.T) {
	chatSvc := new(chatServiceMock)
	router := setupChatRouter(NewChatHandler(chatSvc, new(finderMock), new(pusherMock)))

	req := httptest.NewRequest(http.MethodDelete, "/im/messages/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, service.BadRequest, resp.Code)
	chatSvc.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetConversationListPassesCursor(t *testing.T) {
	chatSvc := new(chatServiceMock)
	router := setupChatRouter(NewChatHandler(chatSvc, new(finderMock), new(pusherMock)))

	page := &dto.PageResult[*dto.ConversationDTO]{List: []*dto.ConversationDTO{}, HasMore: false}
	chatSvc.On("GetConversationList", mock.Anything, "alice", "abc", 15).Return(page, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations?cursor=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, 200, resp.Code)
	chatSvc.AssertExpectations(t)
}

func TestGetMessageListForbidden(t *testing.T) {
	chatSvc := new(chatServiceMock)
	router := setupChatRouter(NewChatHandler(chatSvc, new(finderMock), new(pusherMock)))

	chatSvc.On("GetMessageList", mock.Anything, "alice", uint64(3), uint64(0), 20).
		Return(nil, service.ErrNotParticipant).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/3/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, service.Forbidden, resp.Code)
}
