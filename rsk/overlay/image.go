package overlay

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pixiv/go-libjpeg/jpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// Labels of the on-screen buttons ↖⬆↗⬅🔄➡↙⬇↘YXBA
var slotLabels = []string{"UL", "U", "UR", "L", "C", "R", "DL", "D", "DR", "Y", "X", "B", "A"}

// slotCells places the slots: a 3x3 directional grid and the face buttons
// as a diamond to its right
var slotCells = []struct{ col, row int }{
	{0, 0}, {1, 0}, {2, 0},
	{0, 1}, {1, 1}, {2, 1},
	{0, 2}, {1, 2}, {2, 2},
	{4, 0}, {3, 1}, {5, 1}, {4, 2},
}

const (
	gridCols     = 6
	gridRows     = 3
	bannerHeight = 1 // in slots
)

// slotCell returns the grid cell of a slot. Slots past the face buttons go
// into extra rows.
func slotCell(uiIndex int) (int, int) {
	if uiIndex < len(slotCells) {
		return slotCells[uiIndex].col, slotCells[uiIndex].row
	}
	extra := uiIndex - len(slotCells)
	return extra % gridCols, gridRows + extra/gridCols
}

func slotLabel(uiIndex int) string {
	if uiIndex < len(slotLabels) {
		return slotLabels[uiIndex]
	}
	return fmt.Sprintf("%d", uiIndex)
}

var (
	fontOnce   sync.Once
	parsedFont *truetype.Font
	fontErr    error
)

// loadFont returns a new face, font.Face is not thread safe
func loadFont(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = truetype.Parse(gobold.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return truetype.NewFace(parsedFont, &truetype.Options{Size: size}), nil
}

// RenderImage draws the display as a JPEG
func RenderImage(d Display, cfg *common.OverlayData) ([]byte, error) {
	face, err := loadFont(cfg.FontSize)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	rows := gridRows
	for i := range d.Slots {
		if _, row := slotCell(i); row+1 > rows {
			rows = row + 1
		}
	}
	cell := float64(cfg.SlotSize + cfg.Padding)
	pad := float64(cfg.Padding)
	width := int(gridCols*cell + pad)
	height := int(float64(rows+bannerHeight)*cell + pad)

	dc := gg.NewContext(width, height)
	dc.SetHexColor(cfg.BackgroundColour)
	dc.Clear()
	dc.SetFontFace(face)

	// Status banner
	text := "inactive"
	colour := cfg.SlotColour
	if !d.Connected {
		text = "connect gamepad"
	} else if d.Active {
		text = d.Status.String()
		colour = statusColour(d.Status, &cfg.StatusColours)
	}
	dc.SetHexColor(colour)
	dc.DrawRoundedRectangle(pad, pad, float64(width)-2*pad, cell-pad, 8)
	dc.Fill()
	dc.SetHexColor(cfg.TextColour)
	dc.DrawStringAnchored(text, float64(width)/2, pad+(cell-pad)/2, 0.5, 0.35)

	size := float64(cfg.SlotSize)
	for _, slot := range d.Slots {
		if !slot.Visible {
			continue
		}
		col, row := slotCell(slot.UIIndex)
		x := pad + float64(col)*cell
		y := pad + float64(row+bannerHeight)*cell
		if slot.Pressed {
			dc.SetHexColor(cfg.PressedColour)
		} else {
			dc.SetHexColor(cfg.SlotColour)
		}
		dc.DrawRoundedRectangle(x, y, size, size, 6)
		dc.Fill()
		if slot.Desired {
			dc.SetHexColor(cfg.DesiredColour)
			dc.SetLineWidth(4)
			dc.DrawRoundedRectangle(x+2, y+2, size-4, size-4, 6)
			dc.Stroke()
		}
		dc.SetHexColor(cfg.TextColour)
		dc.DrawStringAnchored(slotLabel(slot.UIIndex), x+size/2, y+size/2, 0.5, 0.35)
	}

	var buf bytes.Buffer
	err = jpeg.Encode(&buf, dc.Image(), &jpeg.EncoderOptions{Quality: cfg.JpgQuality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

func statusColour(status gamepad.ComplianceStatus, colours *common.Colours3) string {
	switch status {
	case gamepad.Pending:
		return colours.Pending
	case gamepad.Violated:
		return colours.Violated
	}
	return colours.Compliant
}
