package layout

import (
	"encoding/json"
	"os"
)

// DebugInfo 汇总一次计算的中间结果，Outline 为 SVG path 数据。
type DebugInfo struct {
	Style       StyleConfig `json:"style"`
	Lines       []TextLine  `json:"lines"`
	Geometry    Geometry    `json:"geometry"`
	Outline     string      `json:"outline,omitempty"`
	Transitions []string    `json:"transitions,omitempty"`
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(info *DebugInfo, path string) error {
	if info == nil {
		return nil
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
