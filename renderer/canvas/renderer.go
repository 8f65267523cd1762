package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/bubbletext/background"
	"github.com/ByLCY/bubbletext/fonts"
	"github.com/ByLCY/bubbletext/layout"
	"github.com/ByLCY/bubbletext/renderer"
	"github.com/ByLCY/bubbletext/shape"
)

// maxSurfacePixels 限制单张位图的像素总数，超过即视为无法获得绘图表面。
const maxSurfacePixels = 1 << 26

// Renderer measures and draws caption backgrounds via github.com/tdewolff/canvas.
// One canvas unit is one logical pixel.
type Renderer struct {
	baseDir string

	fontMu sync.Mutex
	// registered 保存 RegisterFont 注册的字体，样式中以 built-in:<name> 引用
	registered     map[string][]byte
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily map[canvas.FontStyle]*canvas.FontFamily
}

var (
	_ renderer.Renderer       = (*Renderer)(nil)
	_ layout.Measurer         = (*Renderer)(nil)
	_ layout.BaselineMeasurer = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{
		baseDir:        baseDir,
		registered:     map[string][]byte{},
		fontFamilies:   map[string]*fontFamilyEntry{},
		fallbackFamily: map[canvas.FontStyle]*canvas.FontFamily{},
	}
}

// RegisterFont makes data available to styles as font-src built-in:<name>.
// The data must parse as a font; registering a name again replaces it.
func (r *Renderer) RegisterFont(name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("字体名称不能为空")
	}
	if err := canvas.NewFontFamily(name).LoadFont(data, 0, canvas.FontRegular); err != nil {
		return fmt.Errorf("注册字体 %s 失败: %w", name, err)
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	r.registered[name] = data
	// 已缓存的字体族可能引用了旧数据
	clear(r.fontFamilies)
	return nil
}

// MeasureLines 实现 layout.Measurer：按换行拆分，丢弃空白行，行高取名义字号。
func (r *Renderer) MeasureLines(text string, font layout.FontDescriptor) ([]layout.TextLine, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	face, err := r.fontFace(font, canvas.Black)
	if err != nil {
		return nil, err
	}
	var lines []layout.TextLine
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, layout.TextLine{
			Content: raw,
			Width:   face.TextWidth(raw),
			Height:  font.Size,
		})
	}
	return lines, nil
}

// BaselineOffset 实现 layout.BaselineMeasurer：返回行中线到基线的距离。
func (r *Renderer) BaselineOffset(font layout.FontDescriptor) (float64, error) {
	face, err := r.fontFace(font, canvas.Black)
	if err != nil {
		return 0, err
	}
	metrics := face.Metrics()
	return (metrics.Ascent - math.Abs(metrics.Descent)) / 2, nil
}

// Render draws the background and text and encodes the result as PNG.
func (r *Renderer) Render(bg *background.Background, dpr float64) ([]byte, error) {
	img, err := r.RenderImage(bg, dpr)
	if err != nil || img == nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderImage draws the background into a surface of exactly SurfaceSize
// pixels and returns it.
func (r *Renderer) RenderImage(bg *background.Background, dpr float64) (*image.RGBA, error) {
	if bg.Empty() {
		return nil, nil
	}
	w, h, err := SurfaceSize(bg.Geometry, dpr)
	if err != nil {
		return nil, err
	}
	// 画布取整到整像素，保证栅格化时的 y 轴翻转与位图高度一致
	c, err := r.draw(bg, float64(w)/dpr, float64(h)/dpr)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	ras := rasterizer.FromImage(img, canvas.DPMM(dpr), canvas.DefaultColorSpace)
	c.RenderTo(ras)
	ras.Close()
	return img, nil
}

// SurfaceSize returns the backing surface size in physical pixels for the
// given geometry and device pixel ratio: round(W*dpr) x round(H*dpr). At a
// ratio of 1 this equals the rounded width and height in export metadata.
func SurfaceSize(g layout.Geometry, dpr float64) (int, int, error) {
	if !(dpr > 0) || !(g.Width > 0) || !(g.Height > 0) || math.IsInf(dpr, 0) {
		return 0, 0, fmt.Errorf("%w: %gx%g @%g", renderer.ErrSurface, g.Width, g.Height, dpr)
	}
	w := math.Round(g.Width * dpr)
	h := math.Round(g.Height * dpr)
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f 像素", renderer.ErrSurface, w, h)
	}
	if w*h > maxSurfacePixels {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f 像素超出上限", renderer.ErrSurface, w, h)
	}
	return int(w), int(h), nil
}

func (r *Renderer) draw(bg *background.Background, width, height float64) (*canvas.Canvas, error) {
	g := bg.Geometry
	style := bg.Style
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与几何计算保持左上角为原点

	// 先填充背景形状，再绘制文字
	ctx.SetFillColor(fillColor(style.Background, style.Opacity))
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, toCanvasPath(bg.Path))

	face, err := r.fontFace(style.Font, canvas.Hex(style.TextColor))
	if err != nil {
		return nil, err
	}
	for _, tp := range g.Texts {
		if style.Stroke.Enabled() {
			if err := drawTextStroke(ctx, face, tp, style.Stroke); err != nil {
				return nil, err
			}
		}
		ctx.DrawText(tp.X, tp.Baseline, canvas.NewTextLine(face, tp.Text, canvas.Center))
	}
	return c, nil
}

// drawTextStroke 描出字形轮廓，需在填充文字之前调用。
func drawTextStroke(ctx *canvas.Context, face *canvas.FontFace, tp layout.TextPosition, stroke layout.Stroke) error {
	glyphs, advance, err := face.ToPath(tp.Text)
	if err != nil {
		return fmt.Errorf("生成文字轮廓失败: %w", err)
	}
	// 字形轮廓为 y 轴向上，翻转后与 CartesianIV 下的其余路径一致
	glyphs = glyphs.Transform(canvas.Identity.ReflectY())

	ctx.Push()
	defer ctx.Pop()
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(canvas.Hex(stroke.Color))
	ctx.SetStrokeWidth(stroke.Width)
	ctx.SetStrokeJoiner(canvas.RoundJoin)
	ctx.DrawPath(tp.X-advance/2, tp.Baseline, glyphs)
	return nil
}

func toCanvasPath(sp *shape.Path) *canvas.Path {
	p := &canvas.Path{}
	if sp.Empty() {
		return p
	}
	for _, seg := range sp.Segments {
		switch seg.Op {
		case shape.MoveTo:
			p.MoveTo(seg.X, seg.Y)
		case shape.LineTo:
			p.LineTo(seg.X, seg.Y)
		case shape.ArcTo:
			p.ArcTo(seg.Radius, seg.Radius, 0, false, seg.Sweep, seg.X, seg.Y)
		case shape.Close:
			p.Close()
		}
	}
	return p
}

// fillColor 将十六进制颜色与 0-100 的不透明度合成为背景色，颜色串不做校验。
func fillColor(hex string, opacity float64) color.Color {
	c := canvas.Hex(hex)
	alpha := math.Min(math.Max(opacity/100, 0), 1)
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, alpha)
}

func (r *Renderer) fontFace(font layout.FontDescriptor, col color.Color) (*canvas.FontFace, error) {
	if !(font.Size > 0) {
		return nil, fmt.Errorf("字号必须大于 0，当前为 %g", font.Size)
	}
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(font.Size), col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontDescriptor) (*canvas.FontFamily, canvas.FontStyle, error) {
	style := parseFontStyle(font)
	key := fontCacheKey(font, style)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	if font.Src == "" {
		family, err := r.fallback(style)
		if err != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
		return family, style, nil
	}

	familyName := font.Family
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)
	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbErr := r.fallback(style)
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: style}
		return fallback, style, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontDescriptor, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontDescriptor) ([]byte, error) {
	src := font.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if data, ok := r.registered[name]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("字体 built-in:%s 未注册", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	// Path based
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 返回内置 Go 字体族中与 style 对应的字形，调用方需持有 fontMu。
func (r *Renderer) fallback(style canvas.FontStyle) (*canvas.FontFamily, error) {
	if family, ok := r.fallbackFamily[style]; ok {
		return family, nil
	}
	data, err := fonts.Load(fonts.Face(style&^canvas.FontItalic == canvas.FontBold, style&canvas.FontItalic != 0))
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily(fonts.DefaultFamily)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载内置字体失败: %w", err)
	}
	r.fallbackFamily[style] = family
	return family, nil
}

// parseFontStyle 仅区分常规/粗体与是否斜体，与内置字体族提供的字形一致。
func parseFontStyle(font layout.FontDescriptor) canvas.FontStyle {
	result := canvas.FontRegular
	if font.Weight >= 600 {
		result = canvas.FontBold
	}
	s := strings.ToLower(font.Style)
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontDescriptor, style canvas.FontStyle) string {
	return fmt.Sprintf("%s|%s|%d", font.Family, font.Src, style)
}

// toPt 将逻辑像素（即画布单位）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }
