package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("uploaded file is not an image")
	ErrTooLarge = errors.New("uploaded file is too large")
)

var imageExt = map[string]string{
	"image/gif":  ".gif",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Store 保存上传的图片，返回相对路径（如 posts/<uuid>.gif）
type Store interface {
	SaveImage(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, rel string) error
	URL(rel string) string
}

// FSStore 本地目录存储
type FSStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func NewFSStore(dir, urlPrefix string, maxBytes int64) *FSStore {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &FSStore{dir: dir, urlPrefix: urlPrefix, maxBytes: maxBytes}
}

func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) SaveImage(ctx context.Context, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	ext, ok := imageExt[http.DetectContentType(head)]
	if !ok {
		return "", ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join("posts", uuid.NewString()+ext)
	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return rel, nil
}

// Delete 删除已保存的文件，不存在时忽略
func (s *FSStore) Delete(_ context.Context, rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+rel))))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FSStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.urlPrefix + strings.TrimPrefix(rel, "/")
}
