// Package config 负责加载 codestat 的配置。
// 优先级：内置默认值 < TOML 配置文件 < 环境变量（可来自 .env） < 命令行参数。
// 命令行参数的覆盖由 cmd 包完成。
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"codestat/internal/languages"
	"codestat/internal/scanner"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultFile 是未显式指定 --config 时查找的配置文件。
const DefaultFile = ".codestat.toml"

// ErrInvalid 表示配置校验失败。
var ErrInvalid = errors.New("invalid config")

// Config 是完整配置。
type Config struct {
	Scan    Scan    `toml:"scan"`
	Watch   Watch   `toml:"watch"`
	History History `toml:"history"`
	Log     Log     `toml:"log"`
	Tracing Tracing `toml:"tracing"`
}

// Scan 对应 [scan] 段。
type Scan struct {
	Workers   int      `toml:"workers"`
	Languages []string `toml:"languages"`
	Exclude   []string `toml:"exclude"`
	Top       int      `toml:"top"`
	Format    string   `toml:"format"`
	Output    string   `toml:"output"`
	// HeadersAsObjC 为 nil 表示未配置，默认 true。
	HeadersAsObjC *bool `toml:"headers_as_objc"`
	CacheSize     int   `toml:"cache_size"`
}

// Watch 对应 [watch] 段。
type Watch struct {
	Debounce            Duration `toml:"debounce"`
	MaxRescansPerSecond float64  `toml:"max_rescans_per_second"`
	MetricsAddr         string   `toml:"metrics_addr"`
}

// History 对应 [history] 段。
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log 对应 [log] 段。
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Tracing 对应 [tracing] 段。
type Tracing struct {
	Endpoint string `toml:"endpoint"`
}

// Duration 让 TOML 可以写 "500ms" 这样的字符串。
type Duration struct {
	time.Duration
}

// UnmarshalText 解析 time.ParseDuration 格式。
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText 输出 time.Duration 的字符串形式。
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default 返回全部默认值。
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load 读取配置文件并应用默认值、环境变量与校验。
//
// path 为空时尝试 DefaultFile，文件不存在则只使用默认值；
// 显式给出的 path 不存在会返回错误。
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultFile
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)

	// .env 不存在是正常情况。
	_ = godotenv.Load()
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if strings.TrimSpace(cfg.Scan.Format) == "" {
		cfg.Scan.Format = "table"
	}
	if cfg.Scan.HeadersAsObjC == nil {
		enabled := true
		cfg.Scan.HeadersAsObjC = &enabled
	}
	if cfg.Scan.Exclude == nil {
		cfg.Scan.Exclude = []string{".git", ".build", "build", "Pods", "Carthage", "DerivedData"}
	}
	if cfg.Scan.CacheSize == 0 {
		cfg.Scan.CacheSize = 4096
	}

	if cfg.Watch.Debounce.Duration == 0 {
		cfg.Watch.Debounce.Duration = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRescansPerSecond == 0 {
		cfg.Watch.MaxRescansPerSecond = 2
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".codestat/history.db"
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}
}

// applyEnv 使用 CODESTAT_* 环境变量覆盖配置。
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup("CODESTAT_WORKERS"); ok {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: CODESTAT_WORKERS: %v", ErrInvalid, err)
		}
		cfg.Scan.Workers = workers
	}
	if value, ok := lookup("CODESTAT_TOP"); ok {
		top, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: CODESTAT_TOP: %v", ErrInvalid, err)
		}
		cfg.Scan.Top = top
	}
	if value, ok := lookup("CODESTAT_LANGUAGES"); ok {
		cfg.Scan.Languages = SplitList(value)
	}
	if value, ok := lookup("CODESTAT_EXCLUDE"); ok {
		cfg.Scan.Exclude = SplitList(value)
	}
	if value, ok := lookup("CODESTAT_FORMAT"); ok {
		cfg.Scan.Format = strings.TrimSpace(value)
	}
	if value, ok := lookup("CODESTAT_HISTORY"); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: CODESTAT_HISTORY: %v", ErrInvalid, err)
		}
		cfg.History.Enabled = enabled
	}
	if value, ok := lookup("CODESTAT_HISTORY_PATH"); ok {
		cfg.History.Path = strings.TrimSpace(value)
	}
	if value, ok := lookup("CODESTAT_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.TrimSpace(value)
	}
	if value, ok := lookup("CODESTAT_LOG_FORMAT"); ok {
		cfg.Log.Format = strings.TrimSpace(value)
	}
	if value, ok := lookup("CODESTAT_OTLP_ENDPOINT"); ok {
		cfg.Tracing.Endpoint = strings.TrimSpace(value)
	}
	if value, ok := lookup("CODESTAT_METRICS_ADDR"); ok {
		cfg.Watch.MetricsAddr = strings.TrimSpace(value)
	}
	return nil
}

// Validate 检查配置取值是否合法。
func (c *Config) Validate() error {
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("%w: workers must be greater than 0", ErrInvalid)
	}
	if c.Scan.Top < 0 {
		return fmt.Errorf("%w: top must not be negative", ErrInvalid)
	}

	format := strings.ToLower(strings.TrimSpace(c.Scan.Format))
	if format != "table" && format != "json" {
		return fmt.Errorf("%w: unsupported format %q, allowed values: table, json", ErrInvalid, c.Scan.Format)
	}
	c.Scan.Format = format

	if _, err := languages.ParseTags(c.Scan.Languages); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := scanner.CompileGlobs(c.Scan.Exclude); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("%w: watch debounce must not be negative", ErrInvalid)
	}
	if c.Watch.MaxRescansPerSecond <= 0 {
		return fmt.Errorf("%w: max_rescans_per_second must be greater than 0", ErrInvalid)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// LanguageTags 返回解析后的语言过滤条件。
func (c *Config) LanguageTags() []languages.Tag {
	tags, _ := languages.ParseTags(c.Scan.Languages)
	return tags
}

// HeadersAsObjectiveC 返回 .h 的归属策略。
func (c *Config) HeadersAsObjectiveC() bool {
	return c.Scan.HeadersAsObjC == nil || *c.Scan.HeadersAsObjC
}

// SplitList 把逗号分隔的字符串拆成去空白的列表。
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
