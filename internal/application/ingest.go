package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"solar-drone-bot/internal/domain/entity"
)

// DefaultMaxUploadBytes ограничение размера загрузки, 5 МБ
const DefaultMaxUploadBytes = 5 << 20

var (
	ErrNotImage      = errors.New("please upload an image file")
	ErrEmptyImage    = errors.New("image is empty")
	ErrImageTooLarge = errors.New("image is too large")
)

// ImageIngest проверяет загрузку до отправки в модель
type ImageIngest struct {
	MaxBytes int64 // 0: без ограничения
}

// NewImageIngest создаёт проверку загрузок
func NewImageIngest(maxBytes int64) *ImageIngest {
	return &ImageIngest{MaxBytes: maxBytes}
}

// Accept проверяет тип и размер файла. Если тип не объявлен, он определяется по содержимому.
func (i *ImageIngest) Accept(declaredType string, data []byte) (*entity.Image, error) {
	mediaType := normalizeMediaType(declaredType)
	if mediaType == "" && len(data) > 0 {
		mediaType = normalizeMediaType(mimetype.Detect(data).String())
	}

	if !strings.HasPrefix(mediaType, "image/") {
		return nil, ErrNotImage
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if i.MaxBytes > 0 && int64(len(data)) > i.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, len(data), i.MaxBytes)
	}

	return entity.NewImage(data, mediaType), nil
}

// normalizeMediaType отбрасывает параметры вида "; charset=utf-8"
func normalizeMediaType(s string) string {
	s, _, _ = strings.Cut(s, ";")
	return strings.ToLower(strings.TrimSpace(s))
}

// rejectReason метка причины отказа для метрик
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotImage):
		return "not_image"
	case errors.Is(err, ErrEmptyImage):
		return "empty"
	case errors.Is(err, ErrImageTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
