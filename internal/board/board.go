package board

import (
	"fmt"
	"math/rand"
)

// Coord is a square on the board. The board is unbounded, so coordinates are
// int64 and can sit far beyond what float32 represents exactly.
type Coord struct {
	X, Y int64
}

// PieceType identifies one bucket of the mesh. Color is part of the type
// because each color maps to a different sprite.
type PieceType uint8

const (
	NoPiece PieceType = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// PieceTypes is the fixed bucket order. Mesh layout and sprite lookup both
// iterate types in this order.
var PieceTypes = []PieceType{
	WhitePawn, WhiteKnight, WhiteBishop, WhiteRook, WhiteQueen, WhiteKing,
	BlackPawn, BlackKnight, BlackBishop, BlackRook, BlackQueen, BlackKing,
}

var pieceNames = map[PieceType]string{
	NoPiece:     "none",
	WhitePawn:   "wP",
	WhiteKnight: "wN",
	WhiteBishop: "wB",
	WhiteRook:   "wR",
	WhiteQueen:  "wQ",
	WhiteKing:   "wK",
	BlackPawn:   "bP",
	BlackKnight: "bN",
	BlackBishop: "bB",
	BlackRook:   "bR",
	BlackQueen:  "bQ",
	BlackKing:   "bK",
}

func (pt PieceType) String() string {
	if s, ok := pieceNames[pt]; ok {
		return s
	}
	return fmt.Sprintf("PieceType(%d)", uint8(pt))
}

// IsWhite reports whether the type is a white piece.
func (pt PieceType) IsWhite() bool {
	return pt >= WhitePawn && pt <= WhiteKing
}

// Piece is one live piece. The board owns these; the mesh layer only tracks
// the (type, slot) pair.
type Piece struct {
	Type PieceType
	Pos  Coord
}

// Listener receives piece event notifications with the affected slot
// indices. The mesh layer patches its buffers from these.
type Listener interface {
	PieceMoved(pt PieceType, slot int, from, to Coord)
	PieceCaptured(pt PieceType, slot int, at Coord)
	PiecePromoted(oldPt PieceType, oldSlot int, newPt PieceType, newSlot int, at Coord)
}

type pieceRef struct {
	pt   PieceType
	slot int
}

// Board is the board-state collaborator: per-type buckets with stable slot
// indices (nil entries are holes left by captures) and the void-square set.
// It does not validate moves; legality lives elsewhere.
type Board struct {
	buckets  map[PieceType][]*Piece
	occupied map[Coord]pieceRef

	voids     map[Coord]struct{}
	voidOrder []Coord

	listener Listener
}

// New creates an empty board with a bucket per piece type.
func New() *Board {
	b := &Board{
		buckets:  make(map[PieceType][]*Piece, len(PieceTypes)),
		occupied: make(map[Coord]pieceRef),
		voids:    make(map[Coord]struct{}),
	}
	for _, pt := range PieceTypes {
		b.buckets[pt] = nil
	}
	return b
}

// SetListener installs the event listener. Pass nil to detach.
func (b *Board) SetListener(l Listener) {
	b.listener = l
}

// Bucket returns the slot slice for a type. Nil entries are holes.
func (b *Board) Bucket(pt PieceType) []*Piece {
	bucket, ok := b.buckets[pt]
	if !ok {
		panic(fmt.Sprintf("board: unknown bucket %v", pt))
	}
	return bucket
}

// Add places a new piece and returns its slot index. The first hole in the
// bucket is reused; otherwise the bucket grows by one.
func (b *Board) Add(pt PieceType, at Coord) int {
	bucket := b.Bucket(pt)
	p := &Piece{Type: pt, Pos: at}
	slot := -1
	for i, q := range bucket {
		if q == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = len(bucket)
		b.buckets[pt] = append(bucket, p)
	} else {
		bucket[slot] = p
	}
	b.occupied[at] = pieceRef{pt: pt, slot: slot}
	return slot
}

// PieceAt returns the piece occupying a square, if any.
func (b *Board) PieceAt(c Coord) (PieceType, int, bool) {
	ref, ok := b.occupied[c]
	if !ok {
		return NoPiece, 0, false
	}
	return ref.pt, ref.slot, true
}

// Move relocates the piece on from to to, capturing whatever sits on the
// destination. Reports whether a piece was found on from.
func (b *Board) Move(from, to Coord) bool {
	ref, ok := b.occupied[from]
	if !ok {
		return false
	}
	if from == to {
		return true // the capture branch below would eat the mover itself
	}
	if _, occ := b.occupied[to]; occ {
		b.Capture(to)
	}
	p := b.buckets[ref.pt][ref.slot]
	delete(b.occupied, from)
	p.Pos = to
	b.occupied[to] = ref
	if b.listener != nil {
		b.listener.PieceMoved(ref.pt, ref.slot, from, to)
	}
	return true
}

// Capture removes the piece on a square, leaving a hole at its slot.
// Reports whether a piece was found.
func (b *Board) Capture(at Coord) bool {
	ref, ok := b.occupied[at]
	if !ok {
		return false
	}
	b.buckets[ref.pt][ref.slot] = nil
	delete(b.occupied, at)
	if b.listener != nil {
		b.listener.PieceCaptured(ref.pt, ref.slot, at)
	}
	return true
}

// Promote swaps the piece on a square for one of a different type. The old
// slot becomes a hole; the new piece lands in its own bucket. Returns the
// new slot, or -1 when the square is empty.
func (b *Board) Promote(at Coord, newPt PieceType) int {
	ref, ok := b.occupied[at]
	if !ok {
		return -1
	}
	b.buckets[ref.pt][ref.slot] = nil
	delete(b.occupied, at)
	newSlot := b.Add(newPt, at)
	if b.listener != nil {
		b.listener.PiecePromoted(ref.pt, ref.slot, newPt, newSlot, at)
	}
	return newSlot
}

// AddVoid marks a square as removed from the board. Insertion order is kept
// so rectangle merging stays deterministic.
func (b *Board) AddVoid(c Coord) {
	if _, ok := b.voids[c]; ok {
		return
	}
	b.voids[c] = struct{}{}
	b.voidOrder = append(b.voidOrder, c)
}

// Voids returns the void squares in insertion order.
func (b *Board) Voids() []Coord {
	return b.voidOrder
}

// PieceCount returns the number of live pieces.
func (b *Board) PieceCount() int {
	return len(b.occupied)
}

// SetupStandard places the standard starting position with white on ranks
// 1-2 and black on ranks 7-8, files 1-8.
func (b *Board) SetupStandard() {
	back := []PieceType{WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing, WhiteBishop, WhiteKnight, WhiteRook}
	for file := int64(1); file <= 8; file++ {
		b.Add(back[file-1], Coord{X: file, Y: 1})
		b.Add(WhitePawn, Coord{X: file, Y: 2})
		b.Add(BlackPawn, Coord{X: file, Y: 7})
		b.Add(back[file-1]+6, Coord{X: file, Y: 8}) // black mirror of the white back rank
	}
}

// SetupScatter sprinkles n random pieces within +-within of the origin.
// Used by the demo and benchmarks to exercise large regenerations.
func (b *Board) SetupScatter(n int, seed int64, within int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		pt := PieceTypes[rng.Intn(len(PieceTypes))]
		c := Coord{
			X: rng.Int63n(2*within+1) - within,
			Y: rng.Int63n(2*within+1) - within,
		}
		if _, _, occ := b.PieceAt(c); occ {
			continue
		}
		b.Add(pt, c)
	}
}
