package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/config"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/spf13/cobra"
)

var (
	configPath string
	root       string
	watch      bool
	center     bool
	debug      bool
	linear     bool
)

// runGame is swapped out in tests.
var runGame = ebiten.RunGame

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmxview <map.tmx>",
		Short: "View a Tiled map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "plugin config file (yaml)")
	cmd.Flags().StringVar(&root, "root", "", "asset root (default: config asset_root, or the map's directory)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "hot reload changed files")
	cmd.Flags().BoolVar(&center, "center", false, "center the map on the origin")
	cmd.Flags().BoolVar(&debug, "debug", false, "draw shape objects and colliders")
	cmd.Flags().BoolVar(&linear, "linear", false, "bilinear tile filtering")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	switch {
	case flags.Changed("root"):
		cfg.AssetRoot = root
	case configPath == "":
		// Serve from the map's own directory.
		cfg.AssetRoot = ""
	}
	if flags.Changed("watch") {
		cfg.Watch = watch
	}
	if flags.Changed("center") {
		cfg.Center = center
	}
	if flags.Changed("debug") {
		cfg.DebugObjects = debug
	}
	if flags.Changed("linear") && linear {
		cfg.Filter = config.FilterLinear
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, mapPath string) error {
	dir := cfg.AssetRoot
	if dir == "" {
		dir = filepath.Dir(mapPath)
	}
	rel, err := filepath.Rel(dir, mapPath)
	if err != nil {
		return fmt.Errorf("tmxview: %s is not below %s: %w", mapPath, dir, err)
	}

	world := ecs.NewWorld()
	rt := tiledmap.Plugin{Config: cfg}.Build(world, assets.NewServer(dir))
	defer rt.Close()

	mapEntity, err := rt.LoadMap(filepath.ToSlash(rel), rt.DefaultMapOptions())
	if err != nil {
		return err
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("tmxview - " + filepath.Base(mapPath))

	game, err := NewGame(rt, mapEntity, filepath.ToSlash(rel))
	if err != nil {
		return err
	}
	return runGame(game)
}
