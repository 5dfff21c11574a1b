//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
)

// GoCVRenderer рисует разметку через OpenCV. Результат: JPEG.
type GoCVRenderer struct {
	Thickness   int
	FontScale   float64
	DroneRadius int
	Quality     int
}

// NewGoCVRenderer создаёт рендерер с параметрами по умолчанию
func NewGoCVRenderer() *GoCVRenderer {
	return &GoCVRenderer{
		Thickness:   2,
		FontScale:   0.5,
		DroneRadius: 10,
		Quality:     90,
	}
}

// Render рисует прямоугольники вокруг пятен и дрон над target.
func (r *GoCVRenderer) Render(img *entity.Image, overlay entity.Overlay, target int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("empty image")
	}

	mat, err := decodeToMat(img.Data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, m := range overlay.Markers {
		c := rgba(markerColor(m.Color))
		rect := image.Rect(int(m.Left), int(m.Top), int(m.Left+m.Width), int(m.Top+m.Height))
		gocv.Rectangle(&mat, rect, c, r.Thickness)

		labelTop := int(m.LabelTop)
		if labelTop < 0 {
			labelTop = 0
		}
		size := gocv.GetTextSize(m.Label, gocv.FontHersheySimplex, r.FontScale, 1)
		bg := image.Rect(int(m.LabelLeft), labelTop, int(m.LabelLeft)+size.X+8, labelTop+size.Y+8)
		gocv.Rectangle(&mat, bg, c, -1)
		gocv.PutText(&mat, m.Label, image.Pt(int(m.LabelLeft)+4, labelTop+size.Y+4), gocv.FontHersheySimplex, r.FontScale, white, 1)
	}

	if target >= 0 && target < len(overlay.Markers) {
		m := overlay.Markers[target]
		center := image.Pt(int(m.Left+m.Width/2), int(m.Top+m.Height/2))
		gocv.Circle(&mat, center, r.DroneRadius, colorDrone, -1)
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// Проверка реализации интерфейса
var _ port.OverlayRenderer = (*GoCVRenderer)(nil)
