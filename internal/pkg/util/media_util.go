package util

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const thumbnailMaxEdge = 512

// GetSafeContentType 基于文件头嗅探真实的 Content-Type，不信任客户端声明
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := reader.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// IsImageContentType 判断是否为图片类型
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// MakeThumbnail 为图片生成最长边不超过 512 的 JPEG 缩略图
func MakeThumbnail(src io.Reader) (io.Reader, int64, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, err
	}

	thumb := imaging.Fit(img, thumbnailMaxEdge, thumbnailMaxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, 0, err
	}
	return &buf, int64(buf.Len()), nil
}
