package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置项不合法
var ErrInvalidConfig = errors.New("invalid config")

// Config 保存所有配置项的顶级结构
type Config struct {
	Grid    GridConfig    `yaml:"grid" json:"grid"`
	Roads   RoadsConfig   `yaml:"roads" json:"roads"`
	Traffic TrafficConfig `yaml:"traffic" json:"traffic"`
	Turn    TurnConfig    `yaml:"turn" json:"turn"`
	Reseed  ReseedConfig  `yaml:"reseed" json:"reseed"`
	Mode    ModeConfig    `yaml:"mode" json:"mode"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GridConfig 网格尺寸
type GridConfig struct {
	Height int `yaml:"height" json:"height"`
	Width  int `yaml:"width" json:"width"`
}

// RoadsConfig 横向道路所在行、纵向道路所在列
// 超出网格范围的索引会被忽略
type RoadsConfig struct {
	HorizontalRows []int `yaml:"horizontal_rows" json:"horizontal_rows"`
	VerticalCols   []int `yaml:"vertical_cols" json:"vertical_cols"`
}

// TrafficConfig 交通相关的配置项
type TrafficConfig struct {
	Density float64 `yaml:"density" json:"density"`
	Steps   int     `yaml:"steps" json:"steps"`
	// Seed 为空时使用不可复现的随机数
	Seed *int64 `yaml:"seed" json:"seed"`
}

// SeedValue 返回引擎使用的种子，未配置时返回 nil
func (t TrafficConfig) SeedValue() *uint64 {
	if t.Seed == nil {
		return nil
	}
	s := uint64(*t.Seed)
	return &s
}

// TurnConfig 路口转向概率
type TurnConfig struct {
	PStraight *float64 `yaml:"p_straight" json:"p_straight"`
	PLeft     *float64 `yaml:"p_left" json:"p_left"`
	PRight    *float64 `yaml:"p_right" json:"p_right"`
	PUTurn    *float64 `yaml:"p_uturn" json:"p_uturn"`
}

// ReseedConfig 车辆清空后重新播种
type ReseedConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Density  *float64 `yaml:"density" json:"density"`
	Announce bool     `yaml:"announce" json:"announce"`
}

// ModeConfig 冲突与边界处理方式
type ModeConfig struct {
	// Conflict: "lane" - 按车道放行, "block" - 多车冲突全部等待
	Conflict string `yaml:"conflict" json:"conflict"`
	// Boundary: "sink" - 驶出网格消失, "hold" - 停在边界
	Boundary string `yaml:"boundary" json:"boundary"`
}

// OutputConfig 输出相关的配置项
type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir"`
	// PrintEvery 每隔多少步打印一次网格，0 表示不打印，未配置时由调用方决定
	PrintEvery *int   `yaml:"print_every" json:"print_every"`
	Summary    string `yaml:"summary" json:"summary"`
}

// LoggingConfig 日志相关的配置项
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
	// StatusInterval 每隔多少步输出一次系统状态，0 表示不输出
	StatusInterval int `yaml:"status_interval" json:"status_interval"`
}

// LoadConfig 加载配置文件，支持 .yaml/.yml/.json
func LoadConfig(filename string) (*Config, error) {
	raw, err := LoadRaw(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// LoadRaw 读取配置文件为通用的 map，用于场景覆盖合并
func LoadRaw(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if len(bytes.TrimSpace(data)) == 0 {
			return raw, nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
		raw = normalizeNumbers(raw).(map[string]any)
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(filename))
	}

	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// normalizeNumbers 将 json.Number 转为 int64 或 float64，避免大整数种子按 float64 截断
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

// Decode 将通用 map 解码为 Config，补全默认值并校验
func Decode(raw map[string]any) (*Config, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func float64Ptr(v float64) *float64 {
	return &v
}

// applyDefaults 设置未配置项的默认值
func (c *Config) applyDefaults() {
	// 默认转向概率：直行 0.70，左转 0.13，右转 0.13，掉头 0.04
	if c.Turn.PStraight == nil {
		c.Turn.PStraight = float64Ptr(0.70)
	}
	if c.Turn.PLeft == nil {
		c.Turn.PLeft = float64Ptr(0.13)
	}
	if c.Turn.PRight == nil {
		c.Turn.PRight = float64Ptr(0.13)
	}
	if c.Turn.PUTurn == nil {
		c.Turn.PUTurn = float64Ptr(0.04)
	}

	if c.Mode.Conflict == "" {
		c.Mode.Conflict = "lane"
	}
	if c.Mode.Boundary == "" {
		c.Mode.Boundary = "sink"
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.Summary == "" {
		c.Output.Summary = "summary.csv"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate 校验配置项
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Grid.Height <= 0 || c.Grid.Width <= 0 {
		invalid("grid dimensions must be positive, got %dx%d", c.Grid.Height, c.Grid.Width)
	}
	if c.Traffic.Density < 0 || c.Traffic.Density > 1 {
		invalid("traffic.density must be in [0,1], got %v", c.Traffic.Density)
	}
	if c.Traffic.Steps < 0 {
		invalid("traffic.steps must be non-negative, got %d", c.Traffic.Steps)
	}

	turns := []struct {
		name string
		p    *float64
	}{
		{"p_straight", c.Turn.PStraight},
		{"p_left", c.Turn.PLeft},
		{"p_right", c.Turn.PRight},
		{"p_uturn", c.Turn.PUTurn},
	}
	for _, t := range turns {
		if t.p != nil && *t.p < 0 {
			invalid("turn.%s must be non-negative, got %v", t.name, *t.p)
		}
	}

	if c.Reseed.Enabled {
		if c.Reseed.Density == nil {
			invalid("reseed.enabled requires reseed.density")
		} else if d := *c.Reseed.Density; d < 0 || d > 1 {
			invalid("reseed.density must be in [0,1], got %v", d)
		}
	}

	switch c.Mode.Conflict {
	case "lane", "block":
	default:
		invalid("mode.conflict must be lane or block, got %q", c.Mode.Conflict)
	}
	switch c.Mode.Boundary {
	case "sink", "hold":
	default:
		invalid("mode.boundary must be sink or hold, got %q", c.Mode.Boundary)
	}

	if c.Output.PrintEvery != nil && *c.Output.PrintEvery < 0 {
		invalid("output.print_every must be non-negative, got %d", *c.Output.PrintEvery)
	}
	if c.Logging.StatusInterval < 0 {
		invalid("logging.status_interval must be non-negative, got %d", c.Logging.StatusInterval)
	}

	return errors.Join(errs...)
}
