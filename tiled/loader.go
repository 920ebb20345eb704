package tiled

import (
	"bytes"
	"fmt"
	"image"
	"path"

	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/tmx"
)

// Loader reads .tmx files into Map assets.
type Loader struct {
	Options Options
}

var _ assets.Loader[*Map] = Loader{}

func (Loader) Extensions() []string {
	return []string{"tmx"}
}

func (l Loader) Load(ctx *assets.LoadContext, data []byte) (*Map, error) {
	src, err := tmx.Parse(bytes.NewReader(data), tmx.WithFS(ctx.FS(), ctx.Dir()))
	if err != nil {
		return nil, err
	}

	for _, ts := range src.Tilesets {
		if ts.Source != "" {
			ctx.AddDependency(path.Join(ctx.Dir(), ts.Source))
		}
		if ts.Image != nil {
			if err := fillImageSize(ctx, ts.Image); err != nil {
				return nil, fmt.Errorf("tiled: tileset %q: %w", ts.Name, err)
			}
			ctx.AddDependency(path.Join(ctx.Dir(), ts.Image.Source))
		}
		for _, def := range ts.Tiles {
			if def.Image != nil {
				if err := fillImageSize(ctx, def.Image); err != nil {
					return nil, fmt.Errorf("tiled: tileset %q tile %d: %w", ts.Name, def.ID, err)
				}
				ctx.AddDependency(path.Join(ctx.Dir(), def.Image.Source))
			}
		}
	}

	m, err := Build(src, l.Options)
	if err != nil {
		return nil, err
	}
	m.Path = ctx.Path()
	m.ImageFolder = ctx.Dir()
	m.Dependencies = ctx.Dependencies()
	return m, nil
}

// fillImageSize reads the image header when the document leaves out its size.
func fillImageSize(ctx *assets.LoadContext, img *tmx.Image) error {
	if img.Width > 0 && img.Height > 0 {
		return nil
	}
	b, err := ctx.ReadFile(img.Source)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("image %s: %w", img.Source, err)
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	return nil
}
