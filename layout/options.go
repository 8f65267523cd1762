package layout

// Measurer 负责把原始文本拆成非空行，并在给定字体下测量每行宽高。
// 返回空切片表示无需绘制。
type Measurer interface {
	MeasureLines(text string, font FontDescriptor) ([]TextLine, error)
}

// BaselineMeasurer is implemented by measurers that know the font metrics
// needed to place a baseline relative to the middle of a line.
type BaselineMeasurer interface {
	BaselineOffset(font FontDescriptor) (float64, error)
}

// CalcOptions 配置几何计算阶段的可选输入。
type CalcOptions struct {
	// BaselineOffset 为行中线到基线的距离，为 0 时基线与中线重合。
	BaselineOffset float64
}
