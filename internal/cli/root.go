// Package cli implements the platemap command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platemap-hts/platemap/internal/cache"
	"github.com/platemap-hts/platemap/internal/config"
	"github.com/platemap-hts/platemap/internal/logging"
	"github.com/platemap-hts/platemap/internal/plate"
	"github.com/platemap-hts/platemap/internal/render"
	"github.com/platemap-hts/platemap/internal/session"
	"github.com/platemap-hts/platemap/pkg/colormap"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// appContextKey is the context key for appContext.
type appContextKey struct{}

// RootOptions holds global CLI flags. Non-empty values override the config
// file.
type RootOptions struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	PositiveControl string
	ValueColumn     string
	Colormap        string
}

// appContext carries initialized dependencies through the command tree.
type appContext struct {
	Config *config.Config
	Logger *zap.Logger
	Cache  *cache.Manager
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "platemap",
		Short:   "Inspect high-throughput screening plates",
		Long:    "platemap loads a plate of well measurements, computes per-group box-plot\nsummaries and Z-factor / SSMD quality scores, renders heatmaps, and maps\nwells onto the coordinates of a zoomable plate image.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPostRun(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "platemap.yaml", "config file path")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.LogFormat, "log-format", "", "log format (console, json)")
	pf.StringVarP(&opts.PositiveControl, "positive", "p", "", "raw group label of the positive control")
	pf.StringVar(&opts.ValueColumn, "value-column", "", "CSV column holding the measured value")
	pf.StringVar(&opts.Colormap, "colormap", "", "heatmap color ramp (spectral, rdylbu, viridis)")

	cmd.AddCommand(
		newQCCmd(),
		newHeatmapCmd(),
		newBoxplotCmd(),
		newLegendCmd(),
		newLocateCmd(),
		newDZICmd(),
		newMontageCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	mgr, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: cfg.Cache.ImageSizeMB,
		ImageTTL:         time.Duration(cfg.Cache.ImageTTLMinutes) * time.Minute,
		ReportCacheSize:  cfg.Cache.ReportCacheSize,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, &appContext{
		Config: cfg,
		Logger: logger,
		Cache:  mgr,
	}))
	return nil
}

func persistentPostRun(cmd *cobra.Command) error {
	app, err := getAppContext(cmd)
	if err != nil {
		return nil
	}
	app.Logger.Debug("cache stats", zap.Any("cache", app.Cache.Stats()))
	_ = app.Logger.Sync()
	return app.Cache.Close()
}

func applyOverrides(cfg *config.Config, opts *RootOptions) {
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if opts.PositiveControl != "" {
		cfg.Plate.PositiveControl = opts.PositiveControl
	}
	if opts.ValueColumn != "" {
		cfg.Plate.ValueColumn = opts.ValueColumn
	}
	if opts.Colormap != "" {
		cfg.Render.Colormap = opts.Colormap
	}
}

func getAppContext(cmd *cobra.Command) (*appContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New("cli: command context is nil")
	}
	app, ok := ctx.Value(appContextKey{}).(*appContext)
	if !ok || app == nil {
		return nil, errors.New("cli: application context not initialized")
	}
	return app, nil
}

// openSession loads the plate at path and builds a session from the
// configuration.
func openSession(cmd *cobra.Command, path string) (*session.Session, *appContext, error) {
	app, err := getAppContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	ext, err := cfg.Extent()
	if err != nil {
		return nil, nil, err
	}
	cmap, err := colormap.ByName(cfg.Render.Colormap)
	if err != nil {
		return nil, nil, err
	}

	ds, err := plate.LoadFile(path, cfg.Schema())
	if err != nil {
		return nil, nil, err
	}
	app.Logger.Debug("plate file read", zap.String("path", path), zap.Int("rows", ds.Len()))

	s, err := session.New(ds, session.Options{
		PositiveControl: cfg.Plate.PositiveControl,
		Extent:          ext,
		Logger:          app.Logger,
		Cache:           app.Cache,
		Renderer:        render.NewRenderer(rendererConfig(cfg)),
		Colormap:        cmap,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, app, nil
}

func rendererConfig(cfg *config.Config) render.Config {
	return render.Config{
		HeatmapWidth:  cfg.Render.HeatmapWidth,
		HeatmapHeight: cfg.Render.HeatmapHeight,
		BoxplotWidth:  cfg.Render.BoxplotWidth,
		BoxplotHeight: cfg.Render.BoxplotHeight,
		Padding:       cfg.Render.Padding,
		MarkerRadius:  cfg.Render.MarkerRadius,
	}
}
