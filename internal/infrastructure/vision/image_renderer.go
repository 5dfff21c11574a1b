package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/domain/port"
)

var (
	colorRed   = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	colorAmber = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	colorDrone = color.RGBA{R: 0x22, G: 0xd3, B: 0xee, A: 0xff}
)

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// ImageRenderer рисует разметку на чистом Go, без OpenCV. Результат: PNG.
type ImageRenderer struct {
	LineWidth   float64
	FontSize    float64
	DroneRadius float64
}

// NewImageRenderer создаёт рендерер с параметрами по умолчанию
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{
		LineWidth:   2,
		FontSize:    12,
		DroneRadius: 10,
	}
}

// Render рисует рамки, подписи уверенности и дрон над пятном target.
func (r *ImageRenderer) Render(img *entity.Image, overlay entity.Overlay, target int) ([]byte, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, errors.New("empty image")
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fnt, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	dc := gg.NewContextForImage(src)
	dc.SetFontFace(truetype.NewFace(fnt, &truetype.Options{Size: r.FontSize}))

	for _, m := range overlay.Markers {
		c := markerColor(m.Color)

		dc.SetColor(c)
		dc.SetLineWidth(r.LineWidth)
		dc.DrawRoundedRectangle(m.Left, m.Top, m.Width, m.Height, 4)
		dc.Stroke()

		r.drawLabel(dc, m, c)
	}

	if target >= 0 && target < len(overlay.Markers) {
		m := overlay.Markers[target]
		cx, cy := m.Left+m.Width/2, m.Top+m.Height/2

		dc.SetColor(colorDrone)
		dc.DrawCircle(cx, cy, r.DroneRadius)
		dc.Fill()
		dc.SetColor(color.White)
		dc.SetLineWidth(1)
		dc.DrawLine(cx-r.DroneRadius, cy, cx+r.DroneRadius, cy)
		dc.DrawLine(cx, cy-r.DroneRadius, cx, cy+r.DroneRadius)
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLabel рисует плашку с процентом над рамкой
func (r *ImageRenderer) drawLabel(dc *gg.Context, m entity.Marker, c color.Color) {
	w, h := dc.MeasureString(m.Label)
	padX, padY := 4.0, 3.0

	top := m.LabelTop
	if top < 0 {
		top = 0
	}

	dc.SetColor(c)
	dc.DrawRoundedRectangle(m.LabelLeft, top, w+2*padX, h+2*padY, 3)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(m.Label, m.LabelLeft+padX, top+padY+h/2, 0, 0.5)
}

func markerColor(c entity.MarkerColor) color.Color {
	if c == entity.MarkerRed {
		return colorRed
	}
	return colorAmber
}

// Проверка реализации интерфейса
var _ port.OverlayRenderer = (*ImageRenderer)(nil)
