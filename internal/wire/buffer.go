package wire

import "encoding/binary"

type writer struct {
	b []byte
}

func newWriter() *writer {
	b := make([]byte, 1, 1024)
	b[0] = SchemaVersion
	return &writer{b: b}
}

func (w *writer) field(id, kind byte) {
	w.b = append(w.b, id, kind)
}

func (w *writer) i8(v int8) {
	w.b = append(w.b, byte(v))
}

func (w *writer) i32(v int32) {
	w.b = binary.BigEndian.AppendUint32(w.b, uint32(v))
}

func (w *writer) i64(v int64) {
	w.b = binary.BigEndian.AppendUint64(w.b, uint64(v))
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) rest() int {
	return len(r.b) - r.off
}

func (r *reader) u8() (byte, bool) {
	if r.off >= len(r.b) {
		return 0, false
	}
	v := r.b[r.off]
	r.off++
	return v, true
}

func (r *reader) i8() (int8, bool) {
	v, ok := r.u8()
	return int8(v), ok
}

func (r *reader) i32() (int32, bool) {
	if r.rest() < 4 {
		r.off = len(r.b)
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return int32(v), true
}

func (r *reader) i64() (int64, bool) {
	if r.rest() < 8 {
		r.off = len(r.b)
		return 0, false
	}
	v := binary.BigEndian.Uint64(r.b[r.off:])
	r.off += 8
	return int64(v), true
}

type sqRec struct {
	index     int32
	row       int32
	col       int32
	pawnID    int32
	color     int8
	owner     int8
	highlight int8
	occupied  bool
}

type decoded struct {
	seen      [16]bool
	current   int8
	phase     int8
	winner    int8
	cfgFlags  int8
	remaining [2]int32
	placed    [2]int32
	selected  int32
	lastMove  [2]int32
	cfgSize   int32
	cfgPawns  int32
	cfgWinLen int32
	winLine   []int32
	squares   []sqRec
	sequence  int64
	timestamp int64
}

// parse walks the buffer field by field. A field whose payload cannot be read
// in full is dropped; parsing stops at truncation, at an oversized vector
// count, or at a kind this reader cannot measure.
func (c *Codec) parse(buf []byte) *decoded {
	d := &decoded{}
	r := &reader{b: buf}
	if _, ok := r.u8(); !ok {
		return d
	}
	for r.rest() > 0 {
		id, ok := r.u8()
		if !ok {
			return d
		}
		kind, ok := r.u8()
		if !ok {
			return d
		}
		switch kind {
		case kindI8:
			v, ok := r.i8()
			if !ok {
				return d
			}
			d.applyI8(id, v)
		case kindI32:
			v, ok := r.i32()
			if !ok {
				return d
			}
			d.applyI32(id, v)
		case kindI64:
			v, ok := r.i64()
			if !ok {
				return d
			}
			d.applyI64(id, v)
		case kindPair:
			a, ok := r.i32()
			if !ok {
				return d
			}
			b, ok := r.i32()
			if !ok {
				return d
			}
			d.applyPair(id, a, b)
		case kindVec:
			items, ok := parseVec(r)
			if !ok {
				return d
			}
			d.applyVec(id, items)
		case kindSquares:
			recs, ok := parseSquares(r)
			if !ok {
				return d
			}
			d.applySquares(id, recs)
		case kindConfig:
			size, ok := r.i32()
			if !ok {
				return d
			}
			pawns, ok := r.i32()
			if !ok {
				return d
			}
			winLen, ok := r.i32()
			if !ok {
				return d
			}
			flags, ok := r.i8()
			if !ok {
				return d
			}
			d.applyConfig(id, size, pawns, winLen, flags)
		default:
			return d
		}
	}
	return d
}

func parseVec(r *reader) ([]int32, bool) {
	n, ok := r.i32()
	if !ok || n < 0 || n > maxVecLen {
		return nil, false
	}
	items := make([]int32, n)
	for i := range items {
		if items[i], ok = r.i32(); !ok {
			return nil, false
		}
	}
	return items, true
}

func parseSquares(r *reader) ([]sqRec, bool) {
	n, ok := r.i32()
	if !ok || n < 0 || n > maxVecLen {
		return nil, false
	}
	recs := make([]sqRec, 0, n)
	for i := int32(0); i < n; i++ {
		rec, ok := parseSquare(r)
		if !ok {
			return nil, false
		}
		recs = append(recs, rec)
	}
	return recs, true
}

func parseSquare(r *reader) (sqRec, bool) {
	var rec sqRec
	var ok bool
	if rec.index, ok = r.i32(); !ok {
		return rec, false
	}
	if rec.row, ok = r.i32(); !ok {
		return rec, false
	}
	if rec.col, ok = r.i32(); !ok {
		return rec, false
	}
	if rec.color, ok = r.i8(); !ok {
		return rec, false
	}
	occ, ok := r.i8()
	if !ok {
		return rec, false
	}
	if occ != 0 {
		rec.occupied = true
		if rec.pawnID, ok = r.i32(); !ok {
			return rec, false
		}
		if rec.owner, ok = r.i8(); !ok {
			return rec, false
		}
		if _, ok = r.i8(); !ok { // pawn color, rederived on decode
			return rec, false
		}
	}
	if rec.highlight, ok = r.i8(); !ok {
		return rec, false
	}
	return rec, true
}

func (d *decoded) applyI8(id byte, v int8) {
	switch id {
	case fieldCurrent:
		d.current = v
	case fieldPhase:
		d.phase = v
	case fieldWinner:
		d.winner = v
	default:
		return
	}
	d.seen[id] = true
}

func (d *decoded) applyI32(id byte, v int32) {
	switch id {
	case fieldRemaining1:
		d.remaining[0] = v
	case fieldRemaining2:
		d.remaining[1] = v
	case fieldPlaced1:
		d.placed[0] = v
	case fieldPlaced2:
		d.placed[1] = v
	case fieldSelected:
		d.selected = v
	default:
		return
	}
	d.seen[id] = true
}

func (d *decoded) applyI64(id byte, v int64) {
	switch id {
	case fieldSequence:
		d.sequence = v
	case fieldTimestamp:
		d.timestamp = v
	default:
		return
	}
	d.seen[id] = true
}

func (d *decoded) applyPair(id byte, a, b int32) {
	if id != fieldLastMove {
		return
	}
	d.lastMove[0], d.lastMove[1] = a, b
	d.seen[id] = true
}

func (d *decoded) applyVec(id byte, items []int32) {
	if id != fieldWinLine {
		return
	}
	d.winLine = items
	d.seen[id] = true
}

func (d *decoded) applySquares(id byte, recs []sqRec) {
	if id != fieldBoard {
		return
	}
	d.squares = recs
	d.seen[id] = true
}

func (d *decoded) applyConfig(id byte, size, pawns, winLen int32, flags int8) {
	if id != fieldConfig {
		return
	}
	d.cfgSize, d.cfgPawns, d.cfgWinLen, d.cfgFlags = size, pawns, winLen, flags
	d.seen[id] = true
}
