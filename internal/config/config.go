// Package config handles configuration loading for platemap.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platemap-hts/platemap/internal/dzi"
	"github.com/platemap-hts/platemap/internal/grid"
	"github.com/platemap-hts/platemap/internal/plate"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the platemap configuration.
type Config struct {
	Plate  PlateConfig  `yaml:"plate"`
	Image  ImageConfig  `yaml:"image"`
	Render RenderConfig `yaml:"render"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// PlateConfig names the CSV columns and the positive control label.
type PlateConfig struct {
	PositiveControl string `yaml:"positive_control"`
	RowColumn       string `yaml:"row_column"`
	ColColumn       string `yaml:"col_column"`
	ValueColumn     string `yaml:"value_column"`
	GroupColumn     string `yaml:"group_column"`
}

// ImageConfig describes the zoomable plate image. DZIPath, then Montage, then
// Width/Height decide the extent.
type ImageConfig struct {
	Width   float64      `yaml:"width"`
	Height  float64      `yaml:"height"`
	DZIPath string       `yaml:"dzi_path"`
	Montage *dzi.Montage `yaml:"montage"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	HeatmapWidth  int     `yaml:"heatmap_width"`
	HeatmapHeight int     `yaml:"heatmap_height"`
	BoxplotWidth  int     `yaml:"boxplot_width"`
	BoxplotHeight int     `yaml:"boxplot_height"`
	LegendWidth   int     `yaml:"legend_width"`
	Padding       float64 `yaml:"padding"`
	Colormap      string  `yaml:"colormap"`
	MarkerRadius  float64 `yaml:"marker_radius"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	ImageSizeMB     int `yaml:"image_size_mb"`
	ImageTTLMinutes int `yaml:"image_ttl_minutes"`
	ReportCacheSize int `yaml:"report_cache_size"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	schema := plate.DefaultSchema()
	return &Config{
		Plate: PlateConfig{
			RowColumn:   schema.RowColumn,
			ColColumn:   schema.ColColumn,
			ValueColumn: schema.ValueColumn,
			GroupColumn: schema.GroupColumn,
		},
		Image: ImageConfig{
			Width:  1000,
			Height: 1000,
		},
		Render: RenderConfig{
			HeatmapWidth:  500,
			HeatmapHeight: 400,
			BoxplotWidth:  460,
			BoxplotHeight: 400,
			LegendWidth:   300,
			Padding:       0.05,
			Colormap:      "spectral",
			MarkerRadius:  4,
		},
		Cache: CacheConfig{
			ImageSizeMB:     64,
			ImageTTLMinutes: 10,
			ReportCacheSize: 32,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Plate.RowColumn == "" {
		cfg.Plate.RowColumn = defaults.Plate.RowColumn
	}
	if cfg.Plate.ColColumn == "" {
		cfg.Plate.ColColumn = defaults.Plate.ColColumn
	}
	if cfg.Plate.ValueColumn == "" {
		cfg.Plate.ValueColumn = defaults.Plate.ValueColumn
	}
	if cfg.Plate.GroupColumn == "" {
		cfg.Plate.GroupColumn = defaults.Plate.GroupColumn
	}
	if cfg.Image.Width == 0 {
		cfg.Image.Width = defaults.Image.Width
	}
	if cfg.Image.Height == 0 {
		cfg.Image.Height = defaults.Image.Height
	}
	if cfg.Render.HeatmapWidth == 0 {
		cfg.Render.HeatmapWidth = defaults.Render.HeatmapWidth
	}
	if cfg.Render.HeatmapHeight == 0 {
		cfg.Render.HeatmapHeight = defaults.Render.HeatmapHeight
	}
	if cfg.Render.BoxplotWidth == 0 {
		cfg.Render.BoxplotWidth = defaults.Render.BoxplotWidth
	}
	if cfg.Render.BoxplotHeight == 0 {
		cfg.Render.BoxplotHeight = defaults.Render.BoxplotHeight
	}
	if cfg.Render.LegendWidth == 0 {
		cfg.Render.LegendWidth = defaults.Render.LegendWidth
	}
	if cfg.Render.Padding == 0 {
		cfg.Render.Padding = defaults.Render.Padding
	}
	if cfg.Render.Colormap == "" {
		cfg.Render.Colormap = defaults.Render.Colormap
	}
	if cfg.Render.MarkerRadius == 0 {
		cfg.Render.MarkerRadius = defaults.Render.MarkerRadius
	}
	if cfg.Cache.ImageSizeMB == 0 {
		cfg.Cache.ImageSizeMB = defaults.Cache.ImageSizeMB
	}
	if cfg.Cache.ImageTTLMinutes == 0 {
		cfg.Cache.ImageTTLMinutes = defaults.Cache.ImageTTLMinutes
	}
	if cfg.Cache.ReportCacheSize == 0 {
		cfg.Cache.ReportCacheSize = defaults.Cache.ReportCacheSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// Schema returns the CSV column mapping for the loader.
func (c *Config) Schema() plate.Schema {
	return plate.Schema{
		RowColumn:       c.Plate.RowColumn,
		ColColumn:       c.Plate.ColColumn,
		ValueColumn:     c.Plate.ValueColumn,
		GroupColumn:     c.Plate.GroupColumn,
		PositiveControl: c.Plate.PositiveControl,
	}
}

// Extent resolves the pixel extent of the plate image.
func (c *Config) Extent() (grid.Extent, error) {
	switch {
	case c.Image.DZIPath != "":
		d, err := dzi.LoadDescriptor(c.Image.DZIPath)
		if err != nil {
			return grid.Extent{}, err
		}
		return grid.Extent{Width: float64(d.Width), Height: float64(d.Height)}, nil
	case c.Image.Montage != nil:
		if err := c.Image.Montage.Validate(); err != nil {
			return grid.Extent{}, err
		}
		return c.Image.Montage.Extent(), nil
	default:
		return grid.Extent{Width: c.Image.Width, Height: c.Image.Height}, nil
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Plate.PositiveControl) == "" {
		problems = append(problems, "plate.positive_control is empty")
	}
	if c.Image.DZIPath == "" && c.Image.Montage == nil && (c.Image.Width <= 0 || c.Image.Height <= 0) {
		problems = append(problems, fmt.Sprintf("image extent %gx%g is not positive", c.Image.Width, c.Image.Height))
	}
	if c.Render.Padding < 0 || c.Render.Padding >= 1 {
		problems = append(problems, fmt.Sprintf("render.padding %g not in [0, 1)", c.Render.Padding))
	}
	if c.Render.HeatmapWidth <= 0 || c.Render.HeatmapHeight <= 0 || c.Render.BoxplotWidth <= 0 || c.Render.BoxplotHeight <= 0 {
		problems = append(problems, "render canvas sizes must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not json or console", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
