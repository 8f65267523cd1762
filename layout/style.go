package layout

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/bubbletext/dsl"
)

// Styles maps preset names to fully resolved styles.
type Styles map[string]StyleConfig

// Get returns the named preset. An empty name yields DefaultStyle.
func (s Styles) Get(name string) (StyleConfig, error) {
	if name == "" {
		return DefaultStyle(), nil
	}
	st, ok := s[name]
	if !ok {
		return StyleConfig{}, fmt.Errorf("未找到样式 %q", name)
	}
	return st, nil
}

// LoadStyles reads a preset file. Files ending in .yaml or .yml are decoded
// as YAML; anything else is parsed as a style sheet.
func LoadStyles(path string) (Styles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取样式文件失败: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return StylesFromYAML(data)
	}
	sheet, err := dsl.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析样式文件 %s 失败: %w", path, err)
	}
	return StylesFromSheet(sheet)
}

// StylesFromYAML decodes a mapping of preset name to style fields. Fields
// that are left out keep the value of the extended preset, or DefaultStyle.
func StylesFromYAML(data []byte) (Styles, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析 YAML 样式失败: %w", err)
	}
	out := Styles{}
	resolving := map[string]bool{}
	var resolve func(name string) (StyleConfig, error)
	resolve = func(name string) (StyleConfig, error) {
		if st, ok := out[name]; ok {
			return st, nil
		}
		node, ok := raw[name]
		if !ok {
			return StyleConfig{}, fmt.Errorf("未找到被继承的样式 %q", name)
		}
		if resolving[name] {
			return StyleConfig{}, fmt.Errorf("样式 %q 存在循环继承", name)
		}
		resolving[name] = true
		defer delete(resolving, name)

		var head struct {
			Extends string `yaml:"extends"`
		}
		if err := node.Decode(&head); err != nil {
			return StyleConfig{}, fmt.Errorf("样式 %q (line %d): %w", name, node.Line, err)
		}
		st := DefaultStyle()
		if head.Extends != "" {
			base, err := resolve(head.Extends)
			if err != nil {
				return StyleConfig{}, err
			}
			st = base
		}
		// Decode overlays only the fields present in the node.
		if err := node.Decode(&st); err != nil {
			return StyleConfig{}, fmt.Errorf("样式 %q (line %d): %w", name, node.Line, err)
		}
		out[name] = st
		return st, nil
	}
	for name := range raw {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StylesFromSheet resolves every style block of a parsed sheet, applying
// extends chains on top of DefaultStyle.
func StylesFromSheet(sheet *dsl.Sheet) (Styles, error) {
	out := Styles{}
	if sheet == nil {
		return out, nil
	}
	blocks := make(map[string]*dsl.StyleBlock, len(sheet.Styles))
	for _, b := range sheet.Styles {
		if _, dup := blocks[b.Name]; dup {
			return nil, fmt.Errorf("%s: 样式 %q 重复定义", b.Pos, b.Name)
		}
		blocks[b.Name] = b
	}
	resolving := map[string]bool{}
	var resolve func(b *dsl.StyleBlock) (StyleConfig, error)
	resolve = func(b *dsl.StyleBlock) (StyleConfig, error) {
		if st, ok := out[b.Name]; ok {
			return st, nil
		}
		if resolving[b.Name] {
			return StyleConfig{}, fmt.Errorf("%s: 样式 %q 存在循环继承", b.Pos, b.Name)
		}
		resolving[b.Name] = true
		defer delete(resolving, b.Name)

		st := DefaultStyle()
		if b.Extends != "" {
			parent, ok := blocks[b.Extends]
			if !ok {
				return StyleConfig{}, fmt.Errorf("%s: 未找到被继承的样式 %q", b.Pos, b.Extends)
			}
			base, err := resolve(parent)
			if err != nil {
				return StyleConfig{}, err
			}
			st = base
		}
		for _, p := range b.Props {
			if err := applyProperty(&st, p); err != nil {
				return StyleConfig{}, fmt.Errorf("%s: %s: %w", p.Pos, p.Key, err)
			}
		}
		out[b.Name] = st
		return st, nil
	}
	for _, b := range sheet.Styles {
		if _, err := resolve(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyProperty(st *StyleConfig, p *dsl.Property) error {
	switch strings.ToLower(p.Key) {
	case "background":
		c, err := colorValue(p.Values)
		if err != nil {
			return err
		}
		st.Background = c
	case "color", "text-color":
		c, err := colorValue(p.Values)
		if err != nil {
			return err
		}
		st.TextColor = c
	case "opacity":
		l, err := lengthValue(p.Values, UnitNone, UnitPercent)
		if err != nil {
			return err
		}
		st.Opacity = l.Value
	case "radius":
		l, err := lengthValue(p.Values, UnitNone, UnitPX, UnitPT)
		if err != nil {
			return err
		}
		st.Radius = l.PX()
	case "height":
		l, err := lengthValue(p.Values, UnitNone, UnitPercent)
		if err != nil {
			return err
		}
		st.BackgroundHeight = PaddingScale(l)
	case "width":
		l, err := lengthValue(p.Values, UnitNone, UnitPercent)
		if err != nil {
			return err
		}
		st.BackgroundWidth = PaddingScale(l)
	case "line-spacing":
		l, err := lengthValue(p.Values, UnitNone)
		if err != nil {
			return err
		}
		st.LineSpacing = l.Value
	case "font-size":
		l, err := lengthValue(p.Values, UnitNone, UnitPX, UnitPT)
		if err != nil {
			return err
		}
		if l.Value <= 0 {
			return fmt.Errorf("字号必须大于 0，当前为 %s", l)
		}
		st.Font.Size = l.PX()
	case "font-src":
		if len(p.Values) != 1 {
			return fmt.Errorf("需要一个字体路径")
		}
		st.Font.Src = p.Values[0].Raw()
	case "font":
		return applyFont(&st.Font, p.Values)
	case "stroke":
		return applyStroke(&st.Stroke, p.Values)
	default:
		return fmt.Errorf("未知的样式属性")
	}
	return nil
}

// applyFont 解析 font: <family> [weight] [normal|italic|oblique|bold]。
func applyFont(f *FontDescriptor, values []*dsl.Value) error {
	for i, v := range values {
		switch {
		case v.Number != nil:
			w, err := strconv.Atoi(*v.Number)
			if err != nil || w < 100 || w > 900 {
				return fmt.Errorf("无效的字重 %q", *v.Number)
			}
			f.Weight = w
		case v.Ident != nil && i > 0:
			switch s := strings.ToLower(*v.Ident); s {
			case "normal", "italic", "oblique":
				f.Style = s
			case "bold":
				f.Weight = 700
			case "regular":
				f.Weight = 400
			default:
				return fmt.Errorf("无效的字体样式 %q", *v.Ident)
			}
		case v.String != nil || v.Ident != nil:
			f.Family = v.Raw()
		default:
			return fmt.Errorf("font 不接受 %s 类型的值", v.Kind())
		}
	}
	return nil
}

// applyStroke 解析 stroke: <color> <width> 或 stroke: none。
func applyStroke(s *Stroke, values []*dsl.Value) error {
	if len(values) == 1 && values[0].Ident != nil && strings.EqualFold(*values[0].Ident, "none") {
		*s = Stroke{}
		return nil
	}
	for _, v := range values {
		switch {
		case v.Color != nil:
			s.Color = *v.Color
		case v.Number != nil:
			l, ok := ParseLength(*v.Number)
			if !ok || l.Value < 0 || l.Unit == UnitPercent {
				return fmt.Errorf("无效的描边宽度 %q", *v.Number)
			}
			s.Width = l.PX()
		default:
			return fmt.Errorf("stroke 不接受 %s 类型的值", v.Kind())
		}
	}
	return nil
}

func colorValue(values []*dsl.Value) (string, error) {
	if len(values) != 1 || values[0].Color == nil {
		return "", fmt.Errorf("需要一个颜色值")
	}
	return *values[0].Color, nil
}

// lengthValue 读取单个数值，并要求其单位属于 allowed。
func lengthValue(values []*dsl.Value, allowed ...Unit) (Length, error) {
	if len(values) != 1 || values[0].Number == nil {
		return Length{}, fmt.Errorf("需要一个数值")
	}
	l, ok := ParseLength(*values[0].Number)
	if !ok {
		return Length{}, fmt.Errorf("无效的数值 %q", *values[0].Number)
	}
	if !slices.Contains(allowed, l.Unit) {
		return Length{}, fmt.Errorf("%s: 不支持单位 %q", l, UnitToString(l.Unit))
	}
	return l, nil
}
