package job

import (
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/minio"
	"MiniSocial/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

// AttachmentCleanupJob 回收超过 24 小时仍未绑定到消息的附件
type AttachmentCleanupJob struct{}

func NewAttachmentCleanupJob() *AttachmentCleanupJob {
	return &AttachmentCleanupJob{}
}

func (s *AttachmentCleanupJob) Run() {
	ctx := context.Background()
	log.Info("start attachment cleanup job")

	pending, err := redis.HGetAll(ctx, consts.AttachmentPendingKey)
	if err != nil {
		log.Error("failed to get pending attachment hash", "err", err)
		return
	}

	now := time.Now().Unix()
	expiration := int64(24 * 60 * 60)
	count := 0

	for objectKey, val := range pending {
		uploadedAt, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			log.Warn("invalid pending attachment record", "objectKey", objectKey)
			continue
		}

		if now-uploadedAt > expiration {
			if err = minio.DeleteFile(ctx, objectKey); err != nil {
				log.Error("failed to delete expired attachment from minio", "objectKey", objectKey, "err", err)
				continue
			}
			// 缩略图可能不存在，忽略错误
			_ = minio.DeleteFile(ctx, objectKey+".thumb.jpg")

			if err = redis.HDel(ctx, consts.AttachmentPendingKey, objectKey); err != nil {
				log.Error("failed to remove pending record from redis", "objectKey", objectKey, "err", err)
			}

			count++
			log.Info("cleanup expired attachment", "objectKey", objectKey)
		}
	}

	if count > 0 {
		log.Info("attachment cleanup job finished", "cleaned_count", count)
	}
}
