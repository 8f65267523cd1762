package canvasrenderer

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/ByLCY/bubbletext/background"
	"github.com/ByLCY/bubbletext/export"
	"github.com/ByLCY/bubbletext/fonts"
	"github.com/ByLCY/bubbletext/layout"
	"github.com/ByLCY/bubbletext/renderer"
	"github.com/ByLCY/bubbletext/shape"
)

func testFont(size float64) layout.FontDescriptor {
	return layout.FontDescriptor{Family: "Go", Weight: 400, Style: "normal", Size: size}
}

func TestMeasureLinesSkipsBlankLines(t *testing.T) {
	r := NewRenderer(".")
	lines, err := r.MeasureLines("foo\n\n   \nbar\r\n", testFont(24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Content != "foo" || lines[1].Content != "bar" {
		t.Fatalf("unexpected contents: %q %q", lines[0].Content, lines[1].Content)
	}
	for i, ln := range lines {
		if ln.Height != 24 {
			t.Fatalf("line %d height should be the nominal font size, got %g", i, ln.Height)
		}
		if ln.Width <= 0 {
			t.Fatalf("line %d has invalid width %g", i, ln.Width)
		}
	}
}

func TestMeasureLinesEmptyInput(t *testing.T) {
	r := NewRenderer(".")
	for _, text := range []string{"", " ", "\n\t\n"} {
		lines, err := r.MeasureLines(text, testFont(24))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if len(lines) != 0 {
			t.Fatalf("expected no lines for %q, got %d", text, len(lines))
		}
	}
}

func TestMeasureLinesWidthOrdering(t *testing.T) {
	r := NewRenderer(".")
	lines, err := r.MeasureLines("Hello\nWorld wide", testFont(24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines[1].Width <= lines[0].Width {
		t.Fatalf("expected %q to be wider than %q: %g <= %g", lines[1].Content, lines[0].Content, lines[1].Width, lines[0].Width)
	}
}

// 宽度应随字号线性变化。
func TestMeasureLinesScalesWithFontSize(t *testing.T) {
	r := NewRenderer(".")
	small, err := r.MeasureLines("scaling", testFont(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	large, err := r.MeasureLines("scaling", testFont(40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ratio := large[0].Width / small[0].Width
	if math.Abs(ratio-2) > 0.05 {
		t.Fatalf("expected width ratio ~2, got %g", ratio)
	}
}

func TestMeasureLinesRejectsZeroFontSize(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.MeasureLines("x", testFont(0)); err == nil {
		t.Fatalf("expected error for zero font size")
	}
}

func TestBoldIsWiderThanRegular(t *testing.T) {
	r := NewRenderer(".")
	regular, err := r.MeasureLines("Bold words", testFont(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boldFont := testFont(30)
	boldFont.Weight = 700
	bold, err := r.MeasureLines("Bold words", boldFont)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bold[0].Width <= regular[0].Width {
		t.Fatalf("expected bold to be wider: %g <= %g", bold[0].Width, regular[0].Width)
	}
}

func TestEmbedSourceFallsBackOnMissingFile(t *testing.T) {
	r := NewRenderer("")
	font := testFont(24)
	font.Src = "fonts/missing.ttf"
	lines, err := r.MeasureLines("fallback", font)
	if err != nil {
		t.Fatalf("expected fallback to the built-in family, got %v", err)
	}
	if len(lines) != 1 || lines[0].Width <= 0 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestRegisteredFontIsUsed(t *testing.T) {
	r := NewRenderer("")
	font := testFont(24)
	font.Src = "built-in:Caption"
	before, err := r.MeasureLines("registered", font)
	if err != nil {
		t.Fatalf("unregistered font should fall back, got %v", err)
	}

	bold, err := fonts.Load("Go-Bold")
	if err != nil {
		t.Fatalf("load bold: %v", err)
	}
	if err := r.RegisterFont("Caption", bold); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	after, err := r.MeasureLines("registered", font)
	if err != nil {
		t.Fatalf("measure failed: %v", err)
	}
	if after[0].Width <= before[0].Width {
		t.Fatalf("expected the registered bold face to be wider: %g <= %g", after[0].Width, before[0].Width)
	}
}

func TestRegisterFontRejectsInvalidData(t *testing.T) {
	r := NewRenderer("")
	if err := r.RegisterFont("Broken", []byte("not a font")); err == nil {
		t.Fatalf("expected error for invalid font data")
	}
	if err := r.RegisterFont(" ", nil); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func computeBackground(t *testing.T, r *Renderer, text string, style layout.StyleConfig) *background.Background {
	t.Helper()
	bg, err := background.Compute(text, style, r)
	if err != nil {
		t.Fatalf("compute error: %v", err)
	}
	return bg
}

func TestRenderProducesPNGScaledByDPR(t *testing.T) {
	r := NewRenderer(".")
	style := layout.DefaultStyle()
	bg := computeBackground(t, r, "Hello\nWorld wide", style)

	for _, dpr := range []float64{1, 2} {
		data, err := r.Render(bg, dpr)
		if err != nil {
			t.Fatalf("render error: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		wantW, wantH, err := SurfaceSize(bg.Geometry, dpr)
		if err != nil {
			t.Fatalf("surface size error: %v", err)
		}
		if got := img.Bounds().Dx(); got != wantW {
			t.Fatalf("dpr %g: width got %d want %d", dpr, got, wantW)
		}
		if got := img.Bounds().Dy(); got != wantH {
			t.Fatalf("dpr %g: height got %d want %d", dpr, got, wantH)
		}
	}
}

// fractionalBackground 的画布尺寸带小数，向上取整与四舍五入会得到不同的结果。
func fractionalBackground() *background.Background {
	bubbles := []layout.BubbleRect{{Left: 10.15, Right: 110.15, Top: 0, Bottom: 40.2, Width: 100, Height: 40.2, TextWidth: 80, Text: "x"}}
	return &background.Background{
		Style: layout.DefaultStyle(),
		Lines: []layout.TextLine{{Content: "x", Width: 80, Height: 24}},
		Geometry: layout.Geometry{
			FontSize: 24,
			Width:    120.3,
			Height:   40.2,
			Bubbles:  bubbles,
			Texts:    []layout.TextPosition{{Text: "x", X: 60.15, Y: 20.1, Baseline: 26}},
		},
		Path: shape.Trace(bubbles, 10),
	}
}

func TestSurfaceMatchesPNGAndMetadata(t *testing.T) {
	r := NewRenderer(".")
	bg := fractionalBackground()
	cases := []struct {
		dpr  float64
		w, h int
	}{
		{1, 120, 40},
		{1.5, 180, 60},
		{2, 241, 80},
	}
	for _, c := range cases {
		w, h, err := SurfaceSize(bg.Geometry, c.dpr)
		if err != nil {
			t.Fatalf("dpr %g: surface size error: %v", c.dpr, err)
		}
		if w != c.w || h != c.h {
			t.Fatalf("dpr %g: surface got %dx%d want %dx%d", c.dpr, w, h, c.w, c.h)
		}
		data, err := r.Render(bg, c.dpr)
		if err != nil {
			t.Fatalf("dpr %g: render error: %v", c.dpr, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("dpr %g: decode error: %v", c.dpr, err)
		}
		if img.Bounds().Dx() != c.w || img.Bounds().Dy() != c.h {
			t.Fatalf("dpr %g: png is %v, want %dx%d", c.dpr, img.Bounds(), c.w, c.h)
		}
	}

	meta := export.BuildMetadata(bg.Geometry, 1)
	w, h, _ := SurfaceSize(bg.Geometry, 1)
	if meta.Width != w || meta.Height != h {
		t.Fatalf("metadata %dx%d does not match surface %dx%d", meta.Width, meta.Height, w, h)
	}
}

func TestRenderImageFillsBubbleOnly(t *testing.T) {
	r := NewRenderer(".")
	style := layout.DefaultStyle()
	style.Opacity = 100
	style.Stroke = layout.Stroke{Color: "#FF0000", Width: 2}
	bg := computeBackground(t, r, "Hi\nA much longer line", style)

	img, err := r.RenderImage(bg, 1)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	// 画布左上角位于边距内，应保持透明
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent margin, got alpha %d", a)
	}
	// 第二个气泡左侧内边距区域应被填充
	b := bg.Geometry.Bubbles[1]
	x := int(b.Left + 3)
	y := int((b.Top + b.Bottom) / 2)
	if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
		t.Fatalf("expected filled bubble at (%d,%d)", x, y)
	}
	// 第一个气泡更窄，其左侧同一水平位置应为透明
	y0 := int((bg.Geometry.Bubbles[0].Top + bg.Geometry.Bubbles[0].Bottom) / 2)
	if _, _, _, a := img.At(x, y0).RGBA(); a != 0 {
		t.Fatalf("expected transparent area beside the narrow bubble at (%d,%d)", x, y0)
	}
}

func TestRenderEmptyBackground(t *testing.T) {
	r := NewRenderer(".")
	bg := computeBackground(t, r, "  \n", layout.DefaultStyle())
	data, err := r.Render(bg, 1)
	if err != nil || data != nil {
		t.Fatalf("expected nil, nil for empty background, got %v, %v", data, err)
	}
}

func TestRenderRejectsInvalidSurface(t *testing.T) {
	r := NewRenderer(".")
	bg := computeBackground(t, r, "x", layout.DefaultStyle())
	for _, dpr := range []float64{0, -1, math.NaN(), math.Inf(1), 1e9, 1e-4} {
		if _, err := r.Render(bg, dpr); !errors.Is(err, renderer.ErrSurface) {
			t.Fatalf("dpr %g: expected ErrSurface, got %v", dpr, err)
		}
	}
}

func TestFillColorAppliesOpacity(t *testing.T) {
	_, _, _, a := fillColor("#112233", 50).RGBA()
	if want := uint32(0xffff / 2); math.Abs(float64(a)-float64(want)) > 0x200 {
		t.Fatalf("expected ~50%% alpha, got %d", a)
	}
	if _, _, _, a := fillColor("#112233", 250).RGBA(); a != 0xffff {
		t.Fatalf("opacity above 100 should clamp to opaque, got %d", a)
	}
}
