package handler

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/response"
	"MiniSocial/internal/pkg/util"
	"MiniSocial/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetInfo 获取当前用户资料，首次访问自动建档
func (s *UserHandler) GetInfo(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := s.userService.EnsureUser(c, userID); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.userService.GetUserInfo(c, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// UpdateInfo 更新资料
func (s *UserHandler) UpdateInfo(c *gin.Context) {
	var req dto.UpdateUserInfoDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString("user_id")
	if err := s.userService.UpdateUserInfo(c, userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdateAvatar 头像上传完成后绑定对象名
func (s *UserHandler) UpdateAvatar(c *gin.Context) {
	var req struct {
		ObjectName string `json:"objectName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString("user_id")
	url, err := s.userService.UpdateAvatar(c, userID, req.ObjectName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"avatarUrl": url})
}

// GetSimpleInfo 获取指定用户的精简信息
func (s *UserHandler) GetSimpleInfo(c *gin.Context) {
	targetID := c.Param("user_id")
	if targetID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.userService.GetSimpleInfo(c, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// BatchSimpleInfo 批量获取精简信息，供会话列表渲染
func (s *UserHandler) BatchSimpleInfo(c *gin.Context) {
	var req dto.BatchSimpleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.userService.GetSimpleInfoByIds(c, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Search 用户检索，用于发起新会话
func (s *UserHandler) Search(c *gin.Context) {
	var req dto.SearchUserDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.userService.SearchUser(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
