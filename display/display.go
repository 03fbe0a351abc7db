// Package display renders an interactive debug view of a running simulation
// and drives it one frame per draw tick. It is a development aid; headless
// runs never touch it.
package display

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"trenchsim/config"
	"trenchsim/sim"
)

// generationColors cycles as lineages deepen.
var generationColors = []rl.Color{
	rl.Green,
	rl.SkyBlue,
	rl.Orange,
	rl.Purple,
	rl.Yellow,
	rl.Red,
}

// Run opens the window and steps the runner until the run finishes, the
// window is closed, or E is pressed.
func Run(cfg *config.Config, r *sim.Runner) error {
	rl.InitWindow(int32(cfg.Display.Width), int32(cfg.Display.Height), "trenchsim")
	defer rl.CloseWindow()

	fps := int32(math.Round(1.0 / cfg.Physics.DT))
	if fps < 1 {
		fps = 1
	}
	rl.SetTargetFPS(fps)

	screenH := float32(cfg.Display.Height)

	for !rl.WindowShouldClose() && !r.Done() {
		if rl.IsKeyPressed(rl.KeyE) {
			break
		}

		if err := r.Tick(); err != nil {
			return err
		}

		cells := r.LiveStates()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		for _, seg := range r.StaticSegments() {
			a := rl.Vector2{X: float32(seg.A.X), Y: screenH - float32(seg.A.Y)}
			b := rl.Vector2{X: float32(seg.B.X), Y: screenH - float32(seg.B.Y)}
			rl.DrawLineEx(a, b, float32(seg.Radius)*2, rl.Gray)
		}

		for _, c := range cells {
			col := generationColors[c.Generation%len(generationColors)]
			rec := rl.Rectangle{
				X:      float32(c.X),
				Y:      screenH - float32(c.Y),
				Width:  float32(c.Length),
				Height: float32(c.Width),
			}
			origin := rl.Vector2{X: rec.Width / 2, Y: rec.Height / 2}
			// World y points up, screen y points down, so rotation flips.
			rot := float32(-c.Angle * 180 / math.Pi)
			rl.DrawRectanglePro(rec, origin, rot, col)
		}

		rl.DrawText(fmt.Sprintf("frame %d  cells %d", r.Frame(), len(cells)), 10, 10, 20, rl.RayWhite)
		rl.DrawText("E to quit", 10, 34, 16, rl.LightGray)
		rl.EndDrawing()
	}

	return nil
}
