package entity

import (
	"encoding/base64"
	"strings"
)

// Image загруженное пользователем изображение
type Image struct {
	Data      []byte
	MediaType string
}

// NewImage создаёт изображение с указанным типом
func NewImage(data []byte, mediaType string) *Image {
	return &Image{Data: data, MediaType: mediaType}
}

// DataURI возвращает изображение в виде data URI
func (i *Image) DataURI() string {
	return "data:" + i.MediaType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Payload возвращает часть data URI после запятой: то, что уходит в тело запроса
func (i *Image) Payload() string {
	uri := i.DataURI()
	if idx := strings.IndexByte(uri, ','); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
