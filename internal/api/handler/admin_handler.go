package handler

import (
	"MiniSocial/internal/pkg/response"
	"MiniSocial/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListConversations 全量会话巡查
func (s *AdminHandler) ListConversations(c *gin.Context) {
	cursor := c.Query("cursor")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "15"))

	res, err := s.adminService.ListConversations(c, cursor, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// DeleteConversation 物理删除会话
func (s *AdminHandler) DeleteConversation(c *gin.Context) {
	convID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err = s.adminService.DeleteConversation(c, convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteMessage 物理删除消息
func (s *AdminHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err = s.adminService.DeleteMessage(c, messageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
