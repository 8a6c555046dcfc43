// Package blocks implements number blocks and the groups they form.
//
// A DigitBlock is a single crate showing a digit (0-9) or a symbol
// (+, -, *, /, =). It owns two auxiliary sprites, a hitbox used for interaction
// detection and an overlay showing its glyph, which always sit on the block's
// center. Blocks are created through a Table, which registers their sprites in
// the scene and resolves hitbox sprites back to their owning block by id.
//
// A Group is an ordered run of blocks read as one number (leftmost digit most
// significant) or as one symbol token. Members' GroupPosition (Left, Middle,
// Right, Standalone) is derived from their index and drives the crate texture,
// so adjacent crates render joined.
//
// Usage:
//
//	table, err := blocks.NewTable(scn, 32)
//	g, err := table.NewGroupFromNumber(42)
//	b, err := table.NewBlock('5')
//	err = g.PlaceRight(b) // g.Number() == 425
//	g.MoveTo(100, 200)
package blocks
