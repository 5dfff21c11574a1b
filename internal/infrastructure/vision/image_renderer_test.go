package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"solar-drone-bot/internal/domain/entity"
)

func whitePNG(t *testing.T, w, h int) *entity.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return entity.NewImage(buf.Bytes(), "image/png")
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestImageRenderer_DrawsBoxes(t *testing.T) {
	src := whitePNG(t, 200, 200)
	overlay := entity.BuildOverlay([]entity.Detection{{X: 100, Y: 100, Width: 40, Height: 40, Confidence: 0.9}})

	out, err := NewImageRenderer().Render(src, overlay, -1)
	require.NoError(t, err)

	img := decodePNG(t, out)
	require.Equal(t, 200, img.Bounds().Dx())

	// левая граница рамки: красная
	r, g, _ := rgb(img, 80, 100)
	require.Greater(t, r, uint8(200))
	require.Less(t, g, uint8(150))

	// центр без дрона остаётся белым
	r, g, b := rgb(img, 100, 100)
	require.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}

func TestImageRenderer_DrawsDroneAtTarget(t *testing.T) {
	src := whitePNG(t, 200, 200)
	overlay := entity.BuildOverlay([]entity.Detection{{X: 100, Y: 100, Width: 40, Height: 40, Confidence: 0.5}})

	out, err := NewImageRenderer().Render(src, overlay, 0)
	require.NoError(t, err)

	img := decodePNG(t, out)
	r, g, b := rgb(img, 104, 104)
	require.Less(t, r, uint8(100))
	require.Greater(t, g, uint8(150))
	require.Greater(t, b, uint8(200))
}

func TestImageRenderer_IgnoresOutOfRangeTarget(t *testing.T) {
	src := whitePNG(t, 50, 50)
	_, err := NewImageRenderer().Render(src, entity.BuildOverlay(nil), 3)
	require.NoError(t, err)
}

func TestImageRenderer_InvalidImage(t *testing.T) {
	_, err := NewImageRenderer().Render(entity.NewImage([]byte("not an image"), "image/png"), entity.Overlay{}, -1)
	require.ErrorContains(t, err, "decode image")

	_, err = NewImageRenderer().Render(nil, entity.Overlay{}, -1)
	require.Error(t, err)
}
