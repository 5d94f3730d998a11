package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

var ErrStorageDisabled = errors.New("media storage is not configured")

// MediaStorage lưu file media (ảnh, audio, video) lên Supabase Storage
type MediaStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

// NewMediaStorage trả về nil khi thiếu URL hoặc key; caller coi như tắt storage
func NewMediaStorage(supabaseURL, supabaseKey, bucket string) *MediaStorage {
	if supabaseURL == "" || supabaseKey == "" {
		return nil
	}
	if bucket == "" {
		bucket = "uploads"
	}
	base := strings.TrimRight(supabaseURL, "/")
	return &MediaStorage{
		client:  storage.NewClient(base+"/storage/v1", supabaseKey, nil),
		baseURL: base,
		bucket:  bucket,
	}
}

// Upload đẩy bytes lên <bucket>/<folder>/<uuid><ext>, trả về public URL
func (s *MediaStorage) Upload(_ context.Context, folder, ext string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", ErrStorageDisabled
	}
	objectPath := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
	upsert := false
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

// UploadImage lưu ảnh upload từ form vào images/
func (s *MediaStorage) UploadImage(ctx context.Context, fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if s == nil {
		return "", ErrStorageDisabled
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.New("file is not an image")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", fmt.Errorf("image too large (max %d bytes)", maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return "", err
	}
	return s.Upload(ctx, "images", strings.ToLower(filepath.Ext(fh.Filename)), buf.Bytes(), contentType)
}

func (s *MediaStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

// Delete nhận public URL trong bucket và xoá object tương ứng
func (s *MediaStorage) Delete(_ context.Context, publicURL string) error {
	if s == nil || publicURL == "" {
		return nil
	}
	object, err := s.objectPath(publicURL)
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{object}); err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

func (s *MediaStorage) objectPath(publicURL string) (string, error) {
	prefix := fmt.Sprintf("/storage/v1/object/public/%s/", s.bucket)
	idx := strings.Index(publicURL, prefix)
	if idx == -1 {
		return "", fmt.Errorf("url is not in bucket %s: %s", s.bucket, publicURL)
	}
	object := publicURL[idx+len(prefix):]
	if q := strings.Index(object, "?"); q != -1 {
		object = object[:q]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}
	return object, nil
}
