package layout

import "math"

const (
	// CanvasMargin 为画布在最宽气泡之外额外保留的宽度。
	CanvasMargin = 20.0

	verticalPaddingFactor   = 0.3
	horizontalPaddingFactor = 0.4
	baseLineSpacingFactor   = 1.5
	lineSpacingSliderScale  = 10.0
)

// VerticalPadding returns the padding above and below each line.
func VerticalPadding(fontSize, heightPercent float64) float64 {
	return fontSize * verticalPaddingFactor * (heightPercent / ReferencePercent)
}

// HorizontalPadding returns the padding left and right of each line.
func HorizontalPadding(fontSize, widthPercent float64) float64 {
	return fontSize * horizontalPaddingFactor * (widthPercent / ReferencePercent)
}

// LineSpacing returns the distance between consecutive text middles. It is
// independent from the bubble height: tightening it never shrinks bubbles.
func LineSpacing(fontSize, slider float64) float64 {
	return fontSize*baseLineSpacingFactor + (slider/lineSpacingSliderScale)*fontSize
}

// Calculate 将测量结果与样式转换为逐行气泡矩形与文本位置。
// 气泡与文本使用两套独立公式，仅共享画布尺寸。lines 为空时返回零值。
func Calculate(lines []TextLine, style StyleConfig, opts CalcOptions) Geometry {
	if len(lines) == 0 {
		return Geometry{}
	}
	fontSize := style.Font.Size
	vp := VerticalPadding(fontSize, style.BackgroundHeight)
	hp := HorizontalPadding(fontSize, style.BackgroundWidth)
	bubbleHeight := fontSize + 2*vp

	maxWidth := 0.0
	for _, ln := range lines {
		maxWidth = math.Max(maxWidth, ln.Width+2*hp)
	}
	width := maxWidth + CanvasMargin
	height := float64(len(lines)) * bubbleHeight

	bubbles := make([]BubbleRect, len(lines))
	top := 0.0
	for i, ln := range lines {
		bw := ln.Width + 2*hp
		left := (width - bw) / 2
		bubbles[i] = BubbleRect{
			Left:      left,
			Right:     left + bw,
			Top:       top,
			Bottom:    top + bubbleHeight,
			Width:     bw,
			Height:    bubbleHeight,
			TextWidth: ln.Width,
			Text:      ln.Content,
		}
		// 下一行顶部直接取本行底部，保证首尾相接
		top = bubbles[i].Bottom
	}

	spacing := LineSpacing(fontSize, style.LineSpacing)
	startY := height/2 - float64(len(lines)-1)*spacing/2
	texts := make([]TextPosition, len(lines))
	for i, ln := range lines {
		y := startY + float64(i)*spacing
		texts[i] = TextPosition{
			Text:     ln.Content,
			X:        width / 2,
			Y:        y,
			Baseline: y + opts.BaselineOffset,
		}
	}

	return Geometry{
		FontSize:          fontSize,
		VerticalPadding:   vp,
		HorizontalPadding: hp,
		BubbleHeight:      bubbleHeight,
		LineSpacing:       spacing,
		Width:             width,
		Height:            height,
		Bubbles:           bubbles,
		Texts:             texts,
	}
}
