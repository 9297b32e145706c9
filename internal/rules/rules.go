package rules

// Piece is one token. PathIndex is InBase until spawned, then an index into
// the owner's path; LastIndex is home.
type Piece struct {
	ID        int  `json:"id"`
	Owner     int  `json:"player_id"`
	PathIndex int  `json:"path_index"`
	Finished  bool `json:"finished"`
}

func (p Piece) InBase() bool { return p.PathIndex == InBase }

// OnTrack reports whether the piece occupies a cell that other pieces can meet.
func (p Piece) OnTrack() bool { return p.PathIndex >= 0 && !p.Finished }

// NewPieces returns the owner's pieces, all in base.
func NewPieces(owner int) []Piece {
	out := make([]Piece, PiecesPerPlayer)
	for i := range out {
		out[i] = Piece{ID: i, Owner: owner, PathIndex: InBase}
	}
	return out
}

// LegalIndex returns the path index p would reach with dice, or false if the
// roll gives it no move.
func LegalIndex(p Piece, dice int) (int, bool) {
	if p.Finished || dice < 1 || dice > 6 {
		return 0, false
	}
	if p.InBase() {
		if dice == SpawnRoll {
			return 0, true
		}
		return 0, false
	}
	next := p.PathIndex + dice
	if next > LastIndex {
		return 0, false
	}
	return next, true
}

// LegalDestination returns the cell p would land on with dice.
func (b *Board) LegalDestination(p Piece, dice int) (Cell, bool) {
	idx, ok := LegalIndex(p, dice)
	if !ok {
		return Cell{}, false
	}
	return b.CellAt(p.Owner, idx)
}

// MovablePieces lists the ids of pieces that have a legal move for dice.
func MovablePieces(pieces []Piece, dice int) []int {
	var out []int
	for _, p := range pieces {
		if _, ok := LegalIndex(p, dice); ok {
			out = append(out, p.ID)
		}
	}
	return out
}

// Advance moves p by dice and reports whether it just reached home. The move
// must have been checked with LegalIndex.
func Advance(p *Piece, dice int) (justFinished bool) {
	idx, ok := LegalIndex(*p, dice)
	if !ok {
		return false
	}
	p.PathIndex = idx
	if idx == LastIndex {
		p.Finished = true
		return true
	}
	return false
}

// ApplyCapture sends a lone opposing piece on the mover's cell back to base.
// Safe cells never capture and two or more opposing pieces form a block that
// cannot be captured. players is indexed by owner.
func (b *Board) ApplyCapture(players [][]Piece, mover Piece) (Piece, bool) {
	if !mover.OnTrack() {
		return Piece{}, false
	}
	dest, ok := b.CellAt(mover.Owner, mover.PathIndex)
	if !ok || b.IsSafe(dest) {
		return Piece{}, false
	}

	var hitOwner, hitIdx, hits int
	for owner, pieces := range players {
		if owner == mover.Owner {
			continue
		}
		for i, p := range pieces {
			if !p.OnTrack() {
				continue
			}
			if c, ok := b.CellAt(owner, p.PathIndex); ok && c == dest {
				hitOwner, hitIdx = owner, i
				hits++
			}
		}
	}
	if hits != 1 {
		return Piece{}, false
	}

	captured := &players[hitOwner][hitIdx]
	captured.PathIndex = InBase
	captured.Finished = false
	return *captured, true
}

// HasWon reports whether every piece is home.
func HasWon(pieces []Piece) bool {
	if len(pieces) == 0 {
		return false
	}
	for _, p := range pieces {
		if !p.Finished {
			return false
		}
	}
	return true
}
