package graphics

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"log"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"

	"endless-chess/internal/board"
	"endless-chess/internal/mesh"
)

// Piece sprite sheet layout: one column per piece kind, one row per color.
const (
	atlasCols = 6 // pawn, knight, bishop, rook, queen, king
	atlasRows = 2 // white, black
)

// PieceAtlas maps piece types to sprite rectangles on a single sheet.
// UV lookup is pure grid math; the GL texture is only needed for drawing.
type PieceAtlas struct {
	TextureID uint32
}

// PieceUV returns the normalized sprite rectangle for a piece type.
// Implements mesh.UVSource.
func (a *PieceAtlas) PieceUV(pt board.PieceType) mesh.UVRect {
	if pt < board.WhitePawn || pt > board.BlackKing {
		panic(fmt.Sprintf("atlas: no sprite for %v", pt))
	}
	idx := int(pt - board.WhitePawn)
	col := idx % atlasCols
	row := idx / atlasCols
	cw := float32(1) / atlasCols
	rh := float32(1) / atlasRows
	return mesh.UVRect{
		U0: float32(col) * cw,
		V0: float32(row) * rh,
		U1: float32(col+1) * cw,
		V1: float32(row+1) * rh,
	}
}

// LoadPieceAtlas decodes the sprite sheet and uploads it as a GL texture.
func LoadPieceAtlas(path string) (*PieceAtlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open piece atlas %s: %v", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode piece atlas %s: %v", path, err)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{0, 0}, draw.Src)
	w := rgba.Bounds().Dx()
	h := rgba.Bounds().Dy()

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		int32(w),
		int32(h),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	log.Printf("Loaded piece atlas %s (%dx%d)", path, w, h)
	return &PieceAtlas{TextureID: texture}, nil
}
