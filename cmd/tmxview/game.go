package main

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/tiledmap"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/ecs/system"
	"github.com/milk9111/tiledmap/tmx"
	"golang.design/x/clipboard"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	panSpeed = 6.0
	zoomStep = 1.02
	minZoom  = 0.1
	maxZoom  = 16.0
)

type Game struct {
	rt       *tiledmap.Runtime
	mapE     ecs.Entity
	camera   ecs.Entity
	mapPath  string
	debug    bool
	hud      *HUD
	clipOK   bool
	lastCell string

	width, height int
}

func NewGame(rt *tiledmap.Runtime, mapE ecs.Entity, mapPath string) (*Game, error) {
	g := &Game{
		rt:      rt,
		mapE:    mapE,
		mapPath: mapPath,
		hud:     NewHUD(),
		width:   baseWidth,
		height:  baseHeight,
	}
	if tm, ok := ecs.Get(rt.World, mapE, component.TiledMapComponent); ok {
		g.debug = tm.Debug.Enabled
	}

	g.camera = rt.World.CreateEntity()
	if err := ecs.Add(rt.World, g.camera, component.TransformComponent, component.Transform{}); err != nil {
		return nil, err
	}
	if err := ecs.Add(rt.World, g.camera, component.CameraComponent, component.Camera{Zoom: 1}); err != nil {
		return nil, err
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("tmxview: clipboard unavailable: %v", err)
	} else {
		g.clipOK = true
	}
	return g, nil
}

func (g *Game) Update() error {
	w := g.rt.World
	cam, _ := ecs.Get(w, g.camera, component.TransformComponent)
	lens, _ := ecs.Get(w, g.camera, component.CameraComponent)

	speed := panSpeed / lens.Zoom
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		cam.X -= speed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		cam.X += speed
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		cam.Y += speed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		cam.Y -= speed
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		lens.Zoom = min(lens.Zoom*zoomStep, maxZoom)
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		lens.Zoom = max(lens.Zoom/zoomStep, minZoom)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.debug = !g.debug
		if err := g.rt.SetDebug(g.mapE, g.debug); err != nil {
			log.Printf("tmxview: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.rt.Render.DebugPhysics = !g.rt.Render.DebugPhysics
	}

	cell := g.cellUnderCursor()
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && cell != "" && g.clipOK {
		clipboard.Write(clipboard.FmtText, []byte(cell))
		log.Printf("tmxview: copied %s", cell)
	}
	g.lastCell = cell

	g.rt.Update()
	g.hud.Update(g.status(cam, lens))
	return nil
}

// cellUnderCursor formats the cell of the first tile layer under the mouse.
func (g *Game) cellUnderCursor() string {
	w := g.rt.World
	layers, ok := ecs.Get(w, g.mapE, system.MapLayersComponent)
	if !ok {
		return ""
	}
	pos := g.cursorWorld()
	for i, le := range layers.Entities {
		l, ok := ecs.Get(w, le, component.MapLayerComponent)
		if !ok || l.Kind != tmx.TileLayer {
			continue
		}
		c, err := g.rt.TileAt(g.mapE, i, pos)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d,%d", c.X, c.Y)
	}
	return ""
}

func (g *Game) cursorWorld() mgl32.Vec2 {
	w := g.rt.World
	cam, _ := ecs.Get(w, g.camera, component.TransformComponent)
	lens, _ := ecs.Get(w, g.camera, component.CameraComponent)
	cx, cy := ebiten.CursorPosition()
	x := cam.X + (float64(cx)-float64(g.width)/2)/lens.Zoom
	y := cam.Y - (float64(cy)-float64(g.height)/2)/lens.Zoom
	return mgl32.Vec2{float32(x), float32(y)}
}

func (g *Game) status(cam *component.Transform, lens *component.Camera) string {
	s := fmt.Sprintf("%s\ncamera %.0f,%.0f  zoom %.2f", g.mapPath, cam.X, cam.Y, lens.Zoom)
	if tm, ok := ecs.Get(g.rt.World, g.mapE, component.TiledMapComponent); ok {
		if m, ok := g.rt.Maps.Get(tm.Map); ok {
			s += fmt.Sprintf("\n%dx%d %s, %d layers, %d chunks",
				m.Source.Width, m.Source.Height, m.Orientation, len(m.Layers), len(m.Meshes))
		} else {
			s += "\nloading..."
		}
	}
	if g.lastCell != "" {
		s += "\ncell " + g.lastCell
	}
	s += fmt.Sprintf("\ndebug %v  (space: toggle, p: physics, c: copy cell)", g.debug)
	return s
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.rt.Draw(screen)
	g.hud.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
