package blocks

import (
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

const (
	CrateBasePath    = "assets/kenney_sokobanpack/PNG/Default size/Crates/"
	NumberBasePath   = "assets/kenney_sokobanpack/PNG/Default size/Numbers/"
	TransparentPath  = "assets/transparent.png"
	imageExt         = ".png"
	TransparentKey   = scene.AssetKey("transparent")
	crateKeyPrefix   = "crate/"
	overlayKeyPrefix = "number/"
	HitboxScale      = 1.1
	NumberScale      = 1.3
	BlockTiles       = 2 // a crate spans two tile units
)

var crateFrames = map[Classification]string{
	Movable:   "crate_44",
	Immovable: "crate_42",
	Correct:   "crate_45",
	Incorrect: "crate_43",
	Operator:  "crate_01",
}

var positionSuffixes = map[GroupPosition]string{
	Left:       "leftend",
	Right:      "rightend",
	Middle:     "middle",
	Standalone: "edit",
}

var symbolAssets = map[Value]string{
	Add:      "add",
	Subtract: "subtract",
	Multiply: "multiply",
	Divide:   "divide2",
	Equals:   "equals",
}

// TextureKeys maps a block's state to its crate frame and glyph overlay asset keys.
// Unknown inputs yield keys absent from the manifest, which the texture cache rejects.
func TextureKeys(v Value, c Classification, p GroupPosition) (frame, overlay scene.AssetKey) {
	frame = scene.AssetKey(crateKeyPrefix + crateFrames[c] + positionSuffixes[p])
	name, ok := symbolAssets[v]
	if !ok {
		name = v.String()
	}
	overlay = scene.AssetKey(overlayKeyPrefix + name)
	return frame, overlay
}

// Manifest returns every asset a block can ask for, keyed as TextureKeys produces them
func Manifest() map[scene.AssetKey]string {
	m := map[scene.AssetKey]string{
		TransparentKey: TransparentPath,
	}
	for _, frame := range crateFrames {
		for _, suffix := range positionSuffixes {
			m[scene.AssetKey(crateKeyPrefix+frame+suffix)] = CrateBasePath + frame + suffix + imageExt
		}
	}
	for d := 0; d <= 9; d++ {
		v, _ := DigitValue(d)
		m[scene.AssetKey(overlayKeyPrefix+v.String())] = NumberBasePath + v.String() + imageExt
	}
	for _, name := range symbolAssets {
		m[scene.AssetKey(overlayKeyPrefix+name)] = NumberBasePath + name + imageExt
	}
	return m
}

// requiredKeys lists every key TextureKeys can produce for valid input
func requiredKeys() []scene.AssetKey {
	values := append([]Value{}, Symbols...)
	for d := 0; d <= 9; d++ {
		v, _ := DigitValue(d)
		values = append(values, v)
	}
	keys := []scene.AssetKey{TransparentKey}
	for _, v := range values {
		for c := range crateFrames {
			for p := range positionSuffixes {
				frame, overlay := TextureKeys(v, c, p)
				keys = append(keys, frame, overlay)
			}
		}
	}
	return keys
}
