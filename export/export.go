// Package export rebuilds a caption at its final output size and describes
// where every piece lands, in target pixels, for the video compositor.
//
// The export never reuses preview output: it measures, lays out and renders
// again from the target font size, so the numbers do not depend on whatever
// zoom the preview was showing.
package export

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ByLCY/bubbletext/background"
	"github.com/ByLCY/bubbletext/layout"
	"github.com/ByLCY/bubbletext/renderer"
)

// exportDPR 导出位图与目标像素一一对应。
const exportDPR = 1.0

// Input is one snapshot of the caption inputs, as seen by the preview.
type Input struct {
	Text string
	// Style is the style the preview draws with, that is the target style
	// passed through background.Scale at PreviewZoom.
	Style layout.StyleConfig
	// TargetFontSize is the size the text renders at in the final video.
	TargetFontSize float64
	// PreviewZoom is the zoom percentage Style was scaled by. The export
	// divides it back out, so the result never depends on it.
	PreviewZoom float64
}

// TextAnchor 是单行文本在目标像素空间中的锚点（水平居中、竖直居中）。
type TextAnchor struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// BubbleBox 是单行气泡在目标像素空间中的包围盒。
type BubbleBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata 描述导出位图及其内部元素的位置，所有值均为取整后的目标像素。
type Metadata struct {
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	DevicePixelRatio float64      `json:"devicePixelRatio"`
	TextPositions    []TextAnchor `json:"textPositions"`
	BubblePositions  []BubbleBox  `json:"bubblePositions"`
	TextX            int          `json:"textX"`
	TextY            int          `json:"textY"`
	BackgroundX      int          `json:"backgroundX"`
	BackgroundY      int          `json:"backgroundY"`
	BackgroundWidth  int          `json:"backgroundWidth"`
	BackgroundHeight int          `json:"backgroundHeight"`
}

// JSON returns the canonical encoding of the metadata.
func (m Metadata) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Export is the image plus metadata handed to the compositor.
type Export struct {
	Image    []byte   `json:"-"`
	Metadata Metadata `json:"metadata"`
}

// Builder recomputes captions at target resolution.
type Builder struct {
	Measurer layout.Measurer
	Renderer renderer.Renderer
}

// NewBuilder returns a Builder using m for measuring and r for rasterizing.
func NewBuilder(m layout.Measurer, r renderer.Renderer) *Builder {
	return &Builder{Measurer: m, Renderer: r}
}

// TargetStyle returns the style the export is computed with: the preview
// zoom is removed from font size, radius and stroke width, then the target
// font size, when given, replaces the font size.
func TargetStyle(in Input) layout.StyleConfig {
	style := background.Unscale(in.Style, background.ZoomFactor(in.PreviewZoom))
	if in.TargetFontSize > 0 {
		style.Font.Size = in.TargetFontSize
	}
	return style
}

// Compute 以目标字号重新执行测量、几何计算与描边，不参考任何预览结果。
func (b *Builder) Compute(in Input) (*background.Background, error) {
	return background.Compute(in.Text, TargetStyle(in), b.Measurer)
}

// Build 生成导出位图与元数据。文本为空时返回 nil, nil，表示无需导出。
func (b *Builder) Build(in Input) (*Export, error) {
	if b.Renderer == nil {
		return nil, fmt.Errorf("export: 缺少渲染器 Renderer")
	}
	bg, err := b.Compute(in)
	if err != nil {
		return nil, err
	}
	if bg.Empty() {
		return nil, nil
	}
	img, err := b.Renderer.Render(bg, exportDPR)
	if err != nil {
		return nil, fmt.Errorf("渲染导出位图失败: %w", err)
	}
	return &Export{Image: img, Metadata: BuildMetadata(bg.Geometry, exportDPR)}, nil
}

// BuildMetadata converts a geometry computed at target size into rounded
// target-pixel metadata.
func BuildMetadata(g layout.Geometry, dpr float64) Metadata {
	m := Metadata{
		Width:            round(g.Width),
		Height:           round(g.Height),
		DevicePixelRatio: dpr,
		TextPositions:    make([]TextAnchor, 0, len(g.Texts)),
		BubblePositions:  make([]BubbleBox, 0, len(g.Bubbles)),
		TextX:            round(g.Width / 2),
		TextY:            round(g.Height / 2),
	}
	for _, tp := range g.Texts {
		m.TextPositions = append(m.TextPositions, TextAnchor{Text: tp.Text, X: round(tp.X), Y: round(tp.Y)})
	}
	if len(g.Bubbles) == 0 {
		return m
	}

	left, right := math.Inf(1), math.Inf(-1)
	top, bottom := math.Inf(1), math.Inf(-1)
	for _, b := range g.Bubbles {
		m.BubblePositions = append(m.BubblePositions, BubbleBox{
			X:      round(b.Left),
			Y:      round(b.Top),
			Width:  round(b.Width),
			Height: round(b.Height),
		})
		left = math.Min(left, b.Left)
		right = math.Max(right, b.Right)
		top = math.Min(top, b.Top)
		bottom = math.Max(bottom, b.Bottom)
	}
	m.BackgroundX = round(left)
	m.BackgroundY = round(top)
	m.BackgroundWidth = round(right - left)
	m.BackgroundHeight = round(bottom - top)
	return m
}

func round(v float64) int { return int(math.Round(v)) }
