package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/config"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
	"github.com/spf13/cobra"
)

var (
	configPath string
	chunkSize  int
	objects    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmxinfo <map.tmx>",
		Short: "Print the layers, tilesets, chunks and objects of a Tiled map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			m, err := loadMap(args[0], cfg.MapOptions())
			if err != nil {
				return err
			}
			return printMap(cmd.OutOrStdout(), m, objects)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "plugin config file (yaml)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", tiled.DefaultChunkSize, "tiles per chunk side")
	cmd.Flags().BoolVar(&objects, "objects", true, "list objects")
	return cmd
}

func loadMap(p string, opts tiled.Options) (*tiled.Map, error) {
	server := assets.NewServer(filepath.Dir(p))
	name := filepath.Base(p)
	data, err := server.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return tiled.Loader{Options: opts}.Load(assets.NewLoadContext(server, name), data)
}

func printMap(out io.Writer, m *tiled.Map, withObjects bool) error {
	src := m.Source
	fmt.Fprintf(out, "%s: %s %dx%d tiles of %dx%d, chunk size %d\n\n",
		m.Path, m.Orientation, src.Width, src.Height, src.TileWidth, src.TileHeight, m.Options.ChunkSize)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TILESET\tFIRSTGID\tTILES\tTILE SIZE\tIMAGE")
	for _, ts := range src.Tilesets {
		img := "(collection)"
		if ts.Image != nil {
			img = ts.Image.Source
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%dx%d\t%s\n", ts.Name, ts.FirstGID, ts.Count(), ts.TileWidth, ts.TileHeight, img)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintln(tw, "LAYER\tKIND\tNAME\tOPACITY\tOFFSET\tMESHES\tQUADS")
	for _, l := range m.Layers {
		meshes := m.MeshesFor(l.Index)
		quads := 0
		for _, cm := range meshes {
			quads += cm.Mesh.QuadCount()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.0f,%.0f\t%d\t%d\n",
			l.Index, l.Kind, l.Name, l.Opacity, l.Offset.X(), l.Offset.Y(), len(meshes), quads)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintln(tw, "MESH\tLAYER\tTILESET\tCHUNK\tQUADS")
	for i, cm := range m.Meshes {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d,%d\t%d\n", i, cm.LayerID, cm.TilesetGID, cm.ChunkX, cm.ChunkY, cm.Mesh.QuadCount())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(m.Animated) > 0 {
		fmt.Fprintf(out, "\n%d animated tiles\n", len(m.Animated))
	}

	if !withObjects {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(tw, "OBJECT\tLAYER\tNAME\tTYPE\tSHAPE\tPOSITION\tSIZE\tPROPERTIES")
	for _, l := range m.Layers {
		if l.Objects == nil {
			continue
		}
		for _, o := range l.Objects.Objects {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%.0f,%.0f\t%.0fx%.0f\t%s\n",
				o.ID, l.Index, o.Name, o.Type, shapeName(o), o.Position.X(), o.Position.Y(),
				o.Size.X(), o.Size.Y(), propertyList(o.Properties))
		}
	}
	return tw.Flush()
}

func shapeName(o tiled.Object) string {
	if !o.IsShape() {
		return fmt.Sprintf("tile(%d)", o.GID)
	}
	return o.Shape.String()
}

func propertyList(props tmx.Properties) string {
	m := props.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, m[k])
	}
	return s
}
