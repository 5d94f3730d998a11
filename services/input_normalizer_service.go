package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Loại nguồn cho nội dung chương
type InputType string

const (
	InputText InputType = "text"
	InputTXT  InputType = "txt"
	InputDOCX InputType = "docx"
	InputPDF  InputType = "pdf"
)

var ErrUnsupportedInput = errors.New("unsupported source type (use .txt, .docx or .pdf)")

// Nguồn input: file upload hoặc text nhập tay
type InputSource struct {
	Type InputType
	Data []byte
	Text string
}

// InputTypeFromFilename đoán loại theo đuôi file
func InputTypeFromFilename(name string) (InputType, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return InputTXT, nil
	case ".docx":
		return InputDOCX, nil
	case ".pdf":
		return InputPDF, nil
	default:
		return "", ErrUnsupportedInput
	}
}

// SourceFromUpload đọc file multipart vào InputSource, giới hạn maxBytes
func SourceFromUpload(fh *multipart.FileHeader, maxBytes int64) (InputSource, error) {
	typ, err := InputTypeFromFilename(fh.Filename)
	if err != nil {
		return InputSource{}, err
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return InputSource{}, fmt.Errorf("file too large (max %d bytes)", maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return InputSource{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return InputSource{}, err
	}
	return InputSource{Type: typ, Data: data}, nil
}

// NormalizeInput chuyển input thành plain text
func NormalizeInput(input InputSource) (string, error) {
	switch input.Type {
	case InputText:
		return input.Text, nil
	case InputTXT:
		return ExtractTextFromTXT(input.Data)
	case InputPDF:
		return ExtractTextFromPDF(input.Data)
	case InputDOCX:
		return ExtractTextFromDOCX(input.Data)
	default:
		return "", ErrUnsupportedInput
	}
}

// SourceCleaner là bước làm sạch sâu tuỳ chọn (Gemini)
type SourceCleaner interface {
	CleanSource(ctx context.Context, text string) (string, error)
}

// PrepareSource: trích text, lọc thô bằng regex, rồi làm sạch sâu nếu có cleaner.
// Lỗi ở bước làm sạch sâu không chặn: trả về bản đã lọc thô.
func PrepareSource(ctx context.Context, input InputSource, cleaner SourceCleaner) (string, error) {
	raw, err := NormalizeInput(input)
	if err != nil {
		return "", err
	}
	text := PreCleanText(raw)
	if text == "" {
		return "", errors.New("no readable text found in source")
	}
	if cleaner == nil {
		return text, nil
	}
	cleaned, err := cleaner.CleanSource(ctx, text)
	if err != nil || strings.TrimSpace(cleaned) == "" {
		return text, nil
	}
	return cleaned, nil
}
