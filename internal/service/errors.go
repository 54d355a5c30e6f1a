package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid           = errors.New("参数错误")
	ErrUserNotFound           = errors.New("用户不存在")
	ErrConversationNotFound   = errors.New("会话不存在")
	ErrMessageNotFound        = errors.New("消息不存在")
	ErrNotParticipant         = errors.New("不是会话成员")
	ErrNotMessageSender       = errors.New("只能删除自己发送的消息")
	ErrEmptyMessage           = errors.New("消息内容与附件不能同时为空")
	ErrTooManyAttachments     = errors.New("附件数量超过限制")
	ErrRecipientRequired      = errors.New("缺少会话或接收者")
	ErrChatWithSelf           = errors.New("不能与自己建立会话")
	ErrFileNotSupported       = errors.New("不支持的文件类型")
	ErrFileTooLarge           = errors.New("文件大小超过限制")
	UnauthorizedError         = errors.New("权限不足")
	UnExpectedError           = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrUserNotFound:         NotFound,
	ErrConversationNotFound: NotFound,
	ErrMessageNotFound:      NotFound,
	ErrNotParticipant:       Forbidden,
	ErrNotMessageSender:     Forbidden,
	ErrEmptyMessage:         BadRequest,
	ErrTooManyAttachments:   BadRequest,
	ErrRecipientRequired:    BadRequest,
	ErrChatWithSelf:         BadRequest,
	ErrFileNotSupported:     BadRequest,
	ErrFileTooLarge:         BadRequest,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}
