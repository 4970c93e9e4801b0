package og

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Image dimensions.
const (
	Width  = 1200
	Height = 630
)

const (
	margin        = 80
	titleSize     = 64
	descSize      = 32
	siteSize      = 28
	maxTitleLines = 3
	maxDescLines  = 3
)

var (
	background = color.RGBA{R: 0x0c, G: 0x12, B: 0x1c, A: 0xff}
	accent     = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	titleColor = color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}
	mutedColor = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
)

// Card is the content drawn on a preview image.
type Card struct {
	Title       string
	Description string
	Site        string
}

// Generator renders cards to PNG. It is safe for concurrent use: parsed
// fonts are shared, faces are created per render.
type Generator struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// NewGenerator parses the embedded Go fonts.
func NewGenerator() (*Generator, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("og: parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("og: parse bold font: %w", err)
	}
	return &Generator{regular: regular, bold: bold}, nil
}

// Render draws c and writes it to w as a Width×Height PNG. The output is a
// pure function of c.
func (g *Generator) Render(w io.Writer, c Card) error {
	img, err := g.draw(c)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("og: encode: %w", err)
	}
	return nil
}

func (g *Generator) draw(c Card) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 16, Height), image.NewUniform(accent), image.Point{}, draw.Src)

	titleFace, err := g.face(g.bold, titleSize)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	descFace, err := g.face(g.regular, descSize)
	if err != nil {
		return nil, err
	}
	defer descFace.Close()
	siteFace, err := g.face(g.bold, siteSize)
	if err != nil {
		return nil, err
	}
	defer siteFace.Close()

	maxWidth := fixed.I(Width - 2*margin)

	site := &font.Drawer{Dst: img, Src: image.NewUniform(accent), Face: siteFace}
	site.Dot = fixed.P(margin, margin+siteSize)
	site.DrawString(c.Site)

	y := margin + siteSize + 80
	title := &font.Drawer{Dst: img, Src: image.NewUniform(titleColor), Face: titleFace}
	for _, line := range wrap(titleFace, c.Title, maxWidth, maxTitleLines) {
		y += titleSize
		title.Dot = fixed.P(margin, y)
		title.DrawString(line)
		y += titleSize / 4
	}

	y += 24
	desc := &font.Drawer{Dst: img, Src: image.NewUniform(mutedColor), Face: descFace}
	for _, line := range wrap(descFace, c.Description, maxWidth, maxDescLines) {
		y += descSize
		if y > Height-margin/2 {
			break
		}
		desc.Dot = fixed.P(margin, y)
		desc.DrawString(line)
		y += descSize / 2
	}
	return img, nil
}

func (g *Generator) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("og: new face: %w", err)
	}
	return face, nil
}

// wrap breaks text into at most maxLines lines no wider than maxWidth.
// Text that does not fit ends with an ellipsis.
func wrap(face font.Face, text string, maxWidth fixed.Int26_6, maxLines int) []string {
	words := strings.Fields(text)
	var lines []string
	var cur string
	for i := 0; i < len(words); i++ {
		candidate := words[i]
		if cur != "" {
			candidate = cur + " " + words[i]
		}
		if font.MeasureString(face, candidate) <= maxWidth || cur == "" {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = words[i]
		if len(lines) == maxLines {
			lines[maxLines-1] = ellipsize(face, lines[maxLines-1], maxWidth)
			return lines
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func ellipsize(face font.Face, line string, maxWidth fixed.Int26_6) string {
	const ellipsis = "…"
	for line != "" && font.MeasureString(face, line+ellipsis) > maxWidth {
		i := strings.LastIndex(line, " ")
		if i < 0 {
			line = trimLastRune(line)
			continue
		}
		line = line[:i]
	}
	return line + ellipsis
}

func trimLastRune(s string) string {
	r := []rune(s)
	return string(r[:len(r)-1])
}
