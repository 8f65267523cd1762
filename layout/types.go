package layout

// 该文件定义测量结果、样式与气泡几何，供几何计算、路径描边、渲染与导出共用。

// TextLine 表示一行非空文本及其在指定字体下的测量宽高。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// FontDescriptor 描述字体，src 可以是文件路径、embed:* 或 built-in:* 形式；为空时使用内置字体。
type FontDescriptor struct {
	Family string  `json:"family" yaml:"family"`
	Src    string  `json:"src,omitempty" yaml:"src,omitempty"`
	Weight int     `json:"weight" yaml:"weight"` // 100-900，>=600 视为粗体
	Style  string  `json:"style" yaml:"style"`   // normal/italic/oblique
	Size   float64 `json:"size" yaml:"size"`     // 逻辑像素
}

// Stroke 描述文字描边，Width <= 0 表示不描边。
type Stroke struct {
	Color string  `json:"color" yaml:"color"`
	Width float64 `json:"width" yaml:"width"`
}

// Enabled reports whether the stroke should be drawn.
func (s Stroke) Enabled() bool { return s.Width > 0 }

// StyleConfig holds every visual input of a caption background.
// Percentages use 50 as the 100% reference.
type StyleConfig struct {
	Background       string         `json:"background" yaml:"background"` // hex
	Opacity          float64        `json:"opacity" yaml:"opacity"`       // 0-100
	Radius           float64        `json:"radius" yaml:"radius"`
	BackgroundHeight float64        `json:"backgroundHeight" yaml:"backgroundHeight"`
	BackgroundWidth  float64        `json:"backgroundWidth" yaml:"backgroundWidth"`
	LineSpacing      float64        `json:"lineSpacing" yaml:"lineSpacing"`
	Font             FontDescriptor `json:"font" yaml:"font"`
	TextColor        string         `json:"textColor" yaml:"textColor"`
	Stroke           Stroke         `json:"stroke" yaml:"stroke"`
}

// DefaultStyle returns the style used when no preset is given.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Background:       "#000000",
		Opacity:          80,
		Radius:           10,
		BackgroundHeight: ReferencePercent,
		BackgroundWidth:  ReferencePercent,
		LineSpacing:      0,
		Font: FontDescriptor{
			Family: "Go",
			Weight: 400,
			Style:  "normal",
			Size:   24,
		},
		TextColor: "#FFFFFF",
	}
}

// BubbleRect 是单行文本背后的矩形，水平居中、竖直方向首尾相接。
type BubbleRect struct {
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	TextWidth float64 `json:"textWidth"`
	Text      string  `json:"text"`
}

// TextPosition anchors one line of text: X is the horizontal centre,
// Y the vertical middle and Baseline the y the glyphs sit on.
type TextPosition struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Baseline float64 `json:"baseline"`
}

// Geometry 是一次几何计算的完整结果（单位：逻辑像素）。
type Geometry struct {
	FontSize          float64        `json:"fontSize"`
	VerticalPadding   float64        `json:"verticalPadding"`
	HorizontalPadding float64        `json:"horizontalPadding"`
	BubbleHeight      float64        `json:"bubbleHeight"`
	LineSpacing       float64        `json:"lineSpacing"`
	Width             float64        `json:"width"`
	Height            float64        `json:"height"`
	Bubbles           []BubbleRect   `json:"bubbles"`
	Texts             []TextPosition `json:"texts"`
}

// Empty reports whether there is nothing to draw.
func (g Geometry) Empty() bool { return len(g.Bubbles) == 0 }
