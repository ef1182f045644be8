package render

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"luckydraw/application/dto"
	"luckydraw/domain/utils"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// CardStyle defines the look of the draw result card
type CardStyle struct {
	Width     int
	MinHeight int
	Padding   int
	RowHeight int
}

// DrawCardRenderer renders draw result cards as PNG
type DrawCardRenderer struct {
	style CardStyle
}

// NewDrawCardRenderer creates a renderer with the default style
func NewDrawCardRenderer() *DrawCardRenderer {
	return &DrawCardRenderer{
		style: CardStyle{
			Width:     420,
			MinHeight: 300,
			Padding:   20,
			RowHeight: 26,
		},
	}
}

// RenderDrawCard draws the headline numbers and the winner list of a settled draw
func (r *DrawCardRenderer) RenderDrawCard(a dto.DrawAnnouncement) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("winners", len(a.Winners)).
			Debug("Draw card rendered")
	}()

	if a.Draw == nil {
		return nil, fmt.Errorf("draw is required")
	}

	// Title (60px) + summary block (4 rows) + winners header + rows + footer
	height := 60 + 4*r.style.RowHeight + 40 + len(a.Winners)*r.style.RowHeight + 40
	if height < r.style.MinHeight {
		height = r.style.MinHeight
	}

	dc := gg.NewContext(r.style.Width, height)

	// Vertical gradient, deep purple to navy
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		dc.SetRGB(0.18-t*0.1, 0.05+t*0.03, 0.25+t*0.05)
		dc.DrawLine(0, float64(y), float64(r.style.Width), float64(y))
		dc.Stroke()
	}

	titleFace, err := loadFont(gobold.TTF, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	bodyFace, err := loadFont(gomono.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	pad := float64(r.style.Padding)
	width := float64(r.style.Width)

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 0.84, 0)
	dc.DrawStringAnchored("LUCKY DRAW "+utils.FormatDate(a.Draw.DrawDate), width/2, 35, 0.5, 0.5)

	dc.SetRGBA(1, 0.84, 0, 0.6)
	dc.SetLineWidth(1)
	dc.DrawLine(pad, 55, width-pad, 55)
	dc.Stroke()

	dc.SetFontFace(bodyFace)
	y := 60 + float64(r.style.RowHeight)
	summary := [][2]string{
		{"Total sales", utils.FormatKyat(a.Draw.TotalSales)},
		{"Players", fmt.Sprintf("%d", a.Draw.BuyerCount)},
		{"Prize pool", utils.FormatKyat(a.Draw.PrizePool)},
		{"Per winner", utils.FormatKyat(a.Draw.PrizePerWinner)},
	}
	for _, row := range summary {
		dc.SetRGB(0.8, 0.8, 0.9)
		drawSharpText(dc, row[0], pad, y)
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(row[1], width-pad, y-4, 1, 0.5)
		y += float64(r.style.RowHeight)
	}

	y += 14
	dc.SetRGBA(0.3, 0.3, 0.4, 0.5)
	dc.DrawRectangle(0, y-16, width, 22)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	drawSharpText(dc, "WINNERS", pad, y)
	y += float64(r.style.RowHeight)

	for i, w := range a.Winners {
		if i%2 == 0 {
			dc.SetRGBA(1, 1, 1, 0.04)
			dc.DrawRectangle(0, y-17, width, float64(r.style.RowHeight))
			dc.Fill()
		}

		// Gold medal for the first winner, silver dots for the rest
		if i == 0 {
			dc.SetRGB(1, 0.84, 0)
		} else {
			dc.SetRGB(0.75, 0.75, 0.75)
		}
		dc.DrawCircle(pad+4, y-5, 5)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		drawSharpText(dc, truncateName(w.Name, 22), pad+18, y)
		dc.SetRGB(0.5, 1, 0.5)
		dc.DrawStringAnchored(utils.FormatKyat(w.Amount), width-pad, y-4, 1, 0.5)
		y += float64(r.style.RowHeight)
	}

	dc.SetRGB(0.7, 0.7, 0.7)
	footer := fmt.Sprintf("Donation %s  |  Draw #%d", utils.FormatKyat(a.Draw.Donation), a.Draw.ID)
	dc.DrawStringAnchored(footer, width/2, float64(height)-18, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateName(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	runes := []rune(name)
	return string(runes[:max-1]) + "…"
}

func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
