package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/minio"
	"MiniSocial/internal/pkg/redis"
	"MiniSocial/internal/pkg/util"
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strconv"
	"strings"
	"time"

	log "log/slog"

	"github.com/google/uuid"
)

// AttachmentService 附件上传与生命周期管理。
// 上传成功先登记为"待绑定"，消息落库后摘除；超时未绑定的由清理任务回收。
type AttachmentService interface {
	Upload(ctx context.Context, convID uint64, file *multipart.FileHeader) (*dto.AttachmentReq, error)
	MarkBound(ctx context.Context, objectKeys []string)
	RemoveObjects(ctx context.Context, objectKeys []string) error
}

type attachmentServiceImpl struct{}

func NewAttachmentService() AttachmentService {
	return &attachmentServiceImpl{}
}

// Upload 上传单个附件，图片附带缩略图
func (s *attachmentServiceImpl) Upload(ctx context.Context, convID uint64, file *multipart.FileHeader) (*dto.AttachmentReq, error) {
	if file.Size > consts.MaxAttachmentFileSize {
		return nil, ErrFileTooLarge
	}

	reader, err := file.Open()
	if err != nil {
		return nil, ErrParamInvalid
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		return nil, ErrParamInvalid
	}

	ext := path.Ext(file.Filename)
	objectName := fmt.Sprintf("conversations/%d/%s%s%s",
		convID, time.Now().Format("2006/01/02/"), uuid.NewString(), ext)

	fileKey, err := minio.UploadFile(ctx, objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(ctx, "MinIO upload failed", "err", err)
		return nil, UnExpectedError
	}

	// 图片生成缩略图存放在原图旁，失败不阻断上传
	if strings.HasPrefix(contentType, consts.MimePrefixImage) {
		if _, err = reader.Seek(0, 0); err == nil {
			if thumb, size, err := util.MakeThumbnail(reader); err == nil {
				thumbKey := objectName + ".thumb.jpg"
				if _, err = minio.UploadFile(ctx, thumbKey, thumb, size, "image/jpeg"); err != nil {
					log.WarnContext(ctx, "thumbnail upload failed", "key", thumbKey, "err", err)
				}
			} else {
				log.WarnContext(ctx, "thumbnail generation failed", "key", objectName, "err", err)
			}
		}
	}

	if err = redis.HSet(ctx, consts.AttachmentPendingKey, fileKey,
		strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		log.WarnContext(ctx, "failed to track pending attachment", "key", fileKey, "err", err)
	}

	return &dto.AttachmentReq{
		FileName:  file.Filename,
		ObjectKey: fileKey,
		FileType:  contentType,
		FileSize:  file.Size,
		FileURL:   minio.GetPublicURL(fileKey),
	}, nil
}

// MarkBound 附件已随消息持久化，从待清理集合摘除
func (s *attachmentServiceImpl) MarkBound(ctx context.Context, objectKeys []string) {
	for _, key := range objectKeys {
		if err := redis.HDel(ctx, consts.AttachmentPendingKey, key); err != nil {
			log.Warn("Failed to unmark pending attachment", "key", key, "err", err)
		}
	}
}

// RemoveObjects 从对象存储删除附件，缩略图一并清理
func (s *attachmentServiceImpl) RemoveObjects(ctx context.Context, objectKeys []string) error {
	var lastErr error
	for _, key := range objectKeys {
		if err := minio.DeleteFile(ctx, key); err != nil {
			lastErr = err
			continue
		}
		// 缩略图可能不存在，忽略错误
		_ = minio.DeleteFile(ctx, key+".thumb.jpg")
	}
	return lastErr
}
