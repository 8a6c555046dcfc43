// Package scene provides the small 2D scene model the number-block game runs on.
//
// The scene package implements:
//   - Layer-keyed sprite lists (walls, background, player, numbers, hitboxes, symbols)
//   - A keyed texture cache validated against an asset manifest
//   - Axis-aligned collision queries between a sprite and a sprite list
//
// Sprites are positioned by their center. World coordinates grow right (x) and
// down (y), matching the terminal and desktop hosts.
//
// Usage:
//
//	scn := scene.New(scene.NewTextureCache(manifest))
//	scn.SpriteList(scene.LayerNumbers).Append(sprite)
//	hits := scene.CheckCollision(player, scn.SpriteList(scene.LayerNumberHitboxes))
package scene
