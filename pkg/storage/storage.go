package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFileTooLarge     = errors.New("上传文件过大")
	ErrFileTypeNotAllow = errors.New("不支持的文件类型")
)

// allowedImageExt 票据图片允许的扩展名
var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// LocalStore 本地磁盘存储，返回相对引用路径
type LocalStore struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// NewLocalStore 创建本地存储，目录不存在时自动创建
func NewLocalStore(dir string, maxFileMB int64, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxFileMB << 20, logger: logger}, nil
}

// Save 保存一个上传文件，返回供业务层保存的引用
func (s *LocalStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", ErrFileTypeNotAllow
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		s.logger.Error("写入上传文件失败", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("写入上传文件失败: %w", err)
	}

	return "uploads/" + name, nil
}
