// Package background computes the connected caption background for a block
// of text. Compute is a pure function of its inputs: it measures the lines,
// lays out one bubble per line and traces the outline around all of them.
package background

import (
	"fmt"

	"github.com/ByLCY/bubbletext/layout"
	"github.com/ByLCY/bubbletext/shape"
)

// Background is everything a renderer needs to draw one caption.
type Background struct {
	Style    layout.StyleConfig
	Lines    []layout.TextLine
	Geometry layout.Geometry
	Path     *shape.Path
}

// Empty reports whether there is nothing to draw.
func (b *Background) Empty() bool { return b == nil || len(b.Lines) == 0 }

// Compute 依次执行测量、几何计算与路径描边。
// 文本为空或只有空白行时返回一个 Empty 的结果而不是错误。
func Compute(text string, style layout.StyleConfig, m layout.Measurer) (*Background, error) {
	if m == nil {
		return nil, fmt.Errorf("background: 缺少测量后端 Measurer")
	}
	lines, err := m.MeasureLines(text, style.Font)
	if err != nil {
		return nil, fmt.Errorf("测量文本失败: %w", err)
	}
	bg := &Background{Style: style, Lines: lines}
	if len(lines) == 0 {
		return bg, nil
	}

	var opts layout.CalcOptions
	if bm, ok := m.(layout.BaselineMeasurer); ok {
		offset, err := bm.BaselineOffset(style.Font)
		if err != nil {
			return nil, fmt.Errorf("读取字体度量失败: %w", err)
		}
		opts.BaselineOffset = offset
	}
	bg.Geometry = layout.Calculate(lines, style, opts)
	bg.Path = shape.Trace(bg.Geometry.Bubbles, style.Radius)
	return bg, nil
}

// Scale returns a copy of style for a preview drawn at factor times the
// target size. Font size, corner radius and stroke width scale; colours,
// opacity and the percentage sliders do not.
func Scale(style layout.StyleConfig, factor float64) layout.StyleConfig {
	out := style
	out.Font.Size = style.Font.Size * factor
	out.Radius = style.Radius * factor
	out.Stroke.Width = style.Stroke.Width * factor
	return out
}

// Unscale reverses Scale: it returns the target style behind a preview style
// drawn at factor times the target size. Non-positive factors leave the style
// unchanged.
func Unscale(style layout.StyleConfig, factor float64) layout.StyleConfig {
	if !(factor > 0) {
		return style
	}
	out := style
	out.Font.Size = style.Font.Size / factor
	out.Radius = style.Radius / factor
	out.Stroke.Width = style.Stroke.Width / factor
	return out
}

// ZoomFactor converts a zoom percentage into a scale factor. Non-positive
// percentages mean 100%.
func ZoomFactor(percent float64) float64 {
	if percent <= 0 {
		return 1
	}
	return percent / 100
}

// Debug 汇总中间结果，供 -debug 输出。
func (b *Background) Debug() *layout.DebugInfo {
	if b == nil {
		return nil
	}
	info := &layout.DebugInfo{Style: b.Style, Lines: b.Lines, Geometry: b.Geometry}
	if !b.Path.Empty() {
		info.Outline = b.Path.SVG()
		for _, tr := range b.Path.Transitions {
			info.Transitions = append(info.Transitions, fmt.Sprintf("%s/%d: %s", tr.Side, tr.Junction, tr.Rule))
		}
	}
	return info
}
