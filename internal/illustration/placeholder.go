package illustration

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder canvas dimensions and text layout.
const (
	placeholderWidth  = 1024
	placeholderHeight = 576
	wrapWidth         = 48
	maxPromptChars    = 200
)

// placeholderGenerator renders a local PNG containing the wrapped prompt
// text, so the UI always has a visual artifact to show.
type placeholderGenerator struct {
	logger *zap.Logger
}

func (g *placeholderGenerator) Generate(_ context.Context, prompt string, _ int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{240, 240, 240, 255}}, image.Point{}, draw.Src)

	drawText(img, 24, 40, "Illustration Preview", color.RGBA{0, 0, 0, 255})

	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars]
	}
	y := 88
	for _, line := range wrapText(prompt, wrapWidth) {
		drawText(img, 24, y, line, color.RGBA{20, 20, 20, 255})
		y += 18
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder image: %w", err)
	}
	g.logger.Debug("Placeholder illustration rendered", zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}

// drawText draws a single line with the fixed 7x13 basic font.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrapText greedily wraps text at word boundaries to at most width
// characters per line. Words longer than the width get a line of their own.
func wrapText(text string, width int) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
