package renderer

import (
	"errors"

	"github.com/ByLCY/bubbletext/background"
)

// ErrSurface 表示无法获得绘图表面（尺寸非法或超出上限），属于致命错误，不重试。
var ErrSurface = errors.New("无法创建绘图表面")

// Renderer 将计算好的背景与文字绘制为位图并编码，例如 PNG。
// dpr 为设备像素比：位图尺寸为逻辑尺寸乘以 dpr，坐标仍按逻辑像素解释。
// 背景为空时返回 nil, nil。
type Renderer interface {
	Render(bg *background.Background, dpr float64) ([]byte, error)
}
