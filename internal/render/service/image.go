package service

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card geometry and colors of the rendered charm.
const (
	CardWidth  = 400
	CardHeight = 300
	cardMargin = 10
)

var cardBackground = color.RGBA{R: 0, G: 100, B: 200, A: 255}

// Headline returns the first non-empty line of text reduced to characters the
// card font can draw.
func Headline(text string) string {
	for _, line := range strings.Split(text, "\n") {
		var b strings.Builder
		for _, r := range line {
			if r >= 0x20 && r < 0x7f {
				b.WriteRune(r)
			}
		}
		if headline := strings.TrimSpace(b.String()); headline != "" {
			return headline
		}
	}
	return ""
}

// RenderCard draws the headline of text in white, centred on the card, and
// encodes the card as PNG. Lines wider than the card are cut with an ellipsis.
func RenderCard(text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cardBackground}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}

	line := fitLine(drawer, Headline(text), CardWidth-2*cardMargin)
	width := drawer.MeasureString(line).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := (CardWidth - width) / 2
	y := (CardHeight-textHeight)/2 + metrics.Ascent.Ceil()
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(line)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitLine(drawer *font.Drawer, line string, maxWidth int) string {
	if drawer.MeasureString(line).Ceil() <= maxWidth {
		return line
	}
	runes := []rune(line)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "..."
		if drawer.MeasureString(candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}
