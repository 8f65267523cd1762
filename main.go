package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ByLCY/bubbletext/background"
	"github.com/ByLCY/bubbletext/binding"
	"github.com/ByLCY/bubbletext/emitter"
	"github.com/ByLCY/bubbletext/export"
	"github.com/ByLCY/bubbletext/layout"
	"github.com/ByLCY/bubbletext/renderer"
	canvasrenderer "github.com/ByLCY/bubbletext/renderer/canvas"
)

// config 汇总命令行参数。
type config struct {
	text       string
	inputPath  string
	stylePath  string
	preset     string
	dataJSON   string
	targetSize float64
	zoom       float64
	dpr        float64
	output     string
	metaPath   string
	preview    string
	debug      string
	watch      bool
	window     time.Duration
	fonts      fontFlags
}

// fontFlags 收集可重复的 -font name=path 参数。
type fontFlags []string

func (f *fontFlags) String() string { return strings.Join(*f, ",") }

func (f *fontFlags) Set(v string) error {
	if name, path, ok := strings.Cut(v, "="); !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
		return fmt.Errorf("字体参数应为 name=path，当前为 %q", v)
	}
	*f = append(*f, v)
	return nil
}

func main() {
	var cfg config
	flag.StringVar(&cfg.text, "text", "", `字幕文本，"\n" 表示换行`)
	flag.StringVar(&cfg.inputPath, "in", "", "字幕文本文件路径（与 -text 二选一）")
	flag.StringVar(&cfg.stylePath, "style", "", "样式文件路径（.bubble 或 .yaml）")
	flag.StringVar(&cfg.preset, "preset", "", "样式文件中的预设名称，为空时使用默认样式")
	flag.StringVar(&cfg.dataJSON, "data", "", "填充 ${path} 占位符的 JSON 数据")
	flag.Float64Var(&cfg.targetSize, "size", 0, "导出字号（逻辑像素），为 0 时使用样式字号")
	flag.Float64Var(&cfg.zoom, "zoom", 100, "预览缩放百分比")
	flag.Float64Var(&cfg.dpr, "dpr", 1, "预览设备像素比")
	flag.StringVar(&cfg.output, "out", "output/caption.png", "导出 PNG 路径")
	flag.StringVar(&cfg.metaPath, "meta", "", "导出元数据 JSON 路径，默认与 -out 同名")
	flag.StringVar(&cfg.preview, "preview", "", "预览 PNG 输出路径")
	flag.StringVar(&cfg.debug, "debug", "", "几何调试 JSON 输出路径")
	flag.BoolVar(&cfg.watch, "watch", false, "从标准输入逐行读取文本，防抖后导出")
	flag.DurationVar(&cfg.window, "window", emitter.DefaultWindow, "-watch 模式的防抖窗口")
	flag.Var(&cfg.fonts, "font", "注册字体 name=path，样式中以 font-src: built-in:name 引用，可重复")
	vv := flag.Bool("vv", false, "输出调试日志")
	v := flag.Bool("v", false, "输出详细日志")
	q := flag.Bool("q", false, "只输出错误")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelFromFlags(*vv, *v, *q)})))

	style, err := loadStyle(cfg.stylePath, cfg.preset)
	if err != nil {
		log.Fatalf("加载样式失败: %v", err)
	}
	data, err := binding.ParseJSON(cfg.dataJSON)
	if err != nil {
		log.Fatalf("%v", err)
	}
	r, err := newRenderer(cfg)
	if err != nil {
		log.Fatalf("加载字体失败: %v", err)
	}

	if cfg.watch {
		if err := watch(os.Stdin, cfg, style, data, r); err != nil {
			log.Fatalf("监听输入失败: %v", err)
		}
		return
	}

	text, err := readText(cfg)
	if err != nil {
		log.Fatalf("读取文本失败: %v", err)
	}
	exp, err := run(text, cfg, style, data, r)
	if err != nil {
		log.Fatalf("生成字幕背景失败: %v", err)
	}
	if exp == nil {
		fmt.Println("文本为空，未生成文件")
		return
	}
	fmt.Printf("已生成字幕背景：%s (%dx%d)\n", cfg.output, exp.Metadata.Width, exp.Metadata.Height)
}

// levelFromFlags 按 -vv/-v/-q 的优先级选择日志级别。
func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func loadStyle(path, preset string) (layout.StyleConfig, error) {
	if path == "" {
		if preset != "" {
			return layout.StyleConfig{}, fmt.Errorf("指定了预设 %q 但没有 -style 文件", preset)
		}
		return layout.DefaultStyle(), nil
	}
	styles, err := layout.LoadStyles(path)
	if err != nil {
		return layout.StyleConfig{}, err
	}
	return styles.Get(preset)
}

// styleDir 是相对字体路径的解析目录。
func styleDir(stylePath string) string {
	if stylePath == "" {
		return "."
	}
	return filepath.Dir(stylePath)
}

// newRenderer 创建渲染器并注册 -font 指定的字体。
func newRenderer(cfg config) (*canvasrenderer.Renderer, error) {
	r := canvasrenderer.NewRenderer(styleDir(cfg.stylePath))
	for _, spec := range cfg.fonts {
		name, path, _ := strings.Cut(spec, "=")
		data, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return nil, err
		}
		if err := r.RegisterFont(name, data); err != nil {
			return nil, err
		}
		slog.Debug("font registered", "name", strings.TrimSpace(name), "path", path)
	}
	return r, nil
}

func readText(cfg config) (string, error) {
	if cfg.inputPath == "" {
		return unescape(cfg.text), nil
	}
	if cfg.text != "" {
		return "", errors.New("-text 与 -in 不能同时使用")
	}
	raw, err := os.ReadFile(cfg.inputPath)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unescape(s string) string { return strings.ReplaceAll(s, `\n`, "\n") }

// run 串联模板填充、预览、导出与文件写出。
func run(text string, cfg config, style layout.StyleConfig, data *binding.Data, r *canvasrenderer.Renderer) (*export.Export, error) {
	text = fill(text, data)

	if cfg.preview != "" || cfg.debug != "" {
		preview, err := background.Compute(text, background.Scale(style, background.ZoomFactor(cfg.zoom)), r)
		if err != nil {
			return nil, fmt.Errorf("预览计算失败: %w", err)
		}
		if cfg.debug != "" {
			if err := writeDebug(preview, cfg.debug); err != nil {
				return nil, err
			}
		}
		if cfg.preview != "" && !preview.Empty() {
			png, err := r.Render(preview, cfg.dpr)
			if err != nil {
				return nil, fmt.Errorf("渲染预览失败: %w", err)
			}
			if err := writeFile(cfg.preview, png); err != nil {
				return nil, err
			}
			slog.Info("preview written", "path", cfg.preview, "zoom", cfg.zoom, "dpr", cfg.dpr)
		}
	}

	exp, err := export.NewBuilder(r, r).Build(exportInput(text, cfg, style))
	if err != nil || exp == nil {
		return nil, err
	}
	if err := writeExport(exp, cfg); err != nil {
		return nil, err
	}
	return exp, nil
}

// exportInput 以预览样式描述当前状态，导出时再按 zoom 还原。
func exportInput(text string, cfg config, style layout.StyleConfig) export.Input {
	return export.Input{
		Text:           text,
		Style:          background.Scale(style, background.ZoomFactor(cfg.zoom)),
		TargetFontSize: cfg.targetSize,
		PreviewZoom:    cfg.zoom,
	}
}

func fill(text string, data *binding.Data) string {
	if data == nil {
		return text
	}
	out, missing := data.Interpolate(text)
	for _, path := range missing {
		slog.Warn("placeholder not resolved", "path", path)
	}
	return out
}

// watch 将每一行输入交给防抖器，输入结束后等待最后一次导出完成。
func watch(in io.Reader, cfg config, style layout.StyleConfig, data *binding.Data, r *canvasrenderer.Renderer) error {
	consumer := func(exp *export.Export) {
		if err := writeExport(exp, cfg); err != nil {
			slog.Error("write export failed", "error", err)
			return
		}
		slog.Info("export written", "path", cfg.output, "width", exp.Metadata.Width, "height", exp.Metadata.Height)
	}
	e := emitter.New(export.NewBuilder(r, r), consumer, emitter.WithWindow(cfg.window), emitter.WithLogger(slog.Default()))
	defer e.Stop()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		e.Submit(exportInput(fill(unescape(sc.Text()), data), cfg, style))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	for e.State() == emitter.Pending {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func writeExport(exp *export.Export, cfg config) error {
	if err := writeFile(cfg.output, exp.Image); err != nil {
		return err
	}
	meta, err := exp.Metadata.JSON()
	if err != nil {
		return fmt.Errorf("编码元数据失败: %w", err)
	}
	return writeFile(metaPath(cfg), meta)
}

func metaPath(cfg config) string {
	if cfg.metaPath != "" {
		return cfg.metaPath
	}
	return strings.TrimSuffix(cfg.output, filepath.Ext(cfg.output)) + ".json"
}

func writeDebug(bg *background.Background, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(bg.Debug(), debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

var _ renderer.Renderer = (*canvasrenderer.Renderer)(nil)
