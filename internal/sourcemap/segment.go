package sourcemap

import (
	"sort"

	"github.com/foldmap/sourcemap/internal/helpers"
)

// Segment is the in-memory form of one VLQ-encoded mapping record. A hole
// is a Segment whose Source is NoSource — the generated column it starts
// at has no original position, and that continues until the next segment
// on the same line.
type Segment struct {
	GenCol GenCol
	Source SourceID
	Line   OrigLine
	Col    OrigCol
	Name   NameID
}

// IsHole reports whether this segment is an arity-1 hole.
func (s Segment) IsHole() bool {
	return !s.Source.IsValid()
}

// Lines is a segment container: one ordered, line-indexed sequence of
// segments per generated line. Lines[i] holds the segments for generated
// line i+1 (GenLine is 1-based; Lines is 0-indexed).
type Lines [][]Segment

// findFloor binary-searches for the greatest segment on generated line
// `line` whose GenCol is <= col. Returns (segment, true) on a hit, or
// (zero, false) if line is out of range or every segment on it starts
// after col.
func (ls Lines) findFloor(line GenLine, col GenCol) (Segment, bool) {
	idx := int(line) - 1
	if idx < 0 || idx >= len(ls) {
		return Segment{}, false
	}
	segs := ls[idx]
	i := sort.Search(len(segs), func(i int) bool {
		return segs[i].GenCol > col
	})
	if i == 0 {
		return Segment{}, false
	}
	return segs[i-1], true
}

// decodingState holds the running VLQ accumulators used while decoding a
// mappings string. source, origLine, origCol, and name persist across the
// whole map; genCol resets at every ';' (new generated line).
type decodingState struct {
	genCol   int
	source   int
	origLine int
	origCol  int
	name     int
}

// decodeMappings parses a flat `mappings` string into a Lines container.
// Segments within a line are required to be strictly increasing in GenCol;
// a violation is reported as MalformedVLQ since it can only arise from a
// corrupt or non-conformant encoding.
func decodeMappings(mappings string) (Lines, error) {
	if mappings == "" {
		return Lines{}, nil
	}

	data := []byte(mappings)
	var lines Lines
	var current []Segment
	st := decodingState{}
	pos := 0
	lastGenCol := GenCol(-1)
	haveLastGenCol := false

	flushLine := func() {
		lines = append(lines, current)
		current = nil
		st.genCol = 0
		lastGenCol = -1
		haveLastGenCol = false
	}

	for pos < len(data) {
		switch data[pos] {
		case ';':
			flushLine()
			pos++
			continue
		case ',':
			pos++
			continue
		}

		seg, next, err := decodeSegment(data, pos, &st)
		if err != nil {
			return nil, err
		}
		pos = next

		genCol := GenCol(seg.GenCol)
		if haveLastGenCol && genCol <= lastGenCol {
			return nil, newError(MalformedVLQ,
				"segments must be strictly increasing in generated column (line %d, col %d after col %d)",
				len(lines)+1, genCol, lastGenCol)
		}
		lastGenCol = genCol
		haveLastGenCol = true

		current = append(current, seg)
	}
	flushLine()

	return lines, nil
}

// decodeSegment decodes one 1/4/5-field segment starting at data[pos],
// applying deltas to st, and returns the resulting absolute Segment.
func decodeSegment(data []byte, pos int, st *decodingState) (Segment, int, error) {
	genColDelta, next, err := decodeVLQ(data, pos)
	if err != nil {
		return Segment{}, pos, err
	}
	st.genCol += genColDelta
	if st.genCol < 0 {
		return Segment{}, next, newError(MalformedVLQ, "negative generated column at offset %d", pos)
	}
	pos = next

	// Arity 1: a hole. Stop if we hit the end of input or a delimiter.
	if pos >= len(data) || data[pos] == ',' || data[pos] == ';' {
		return Segment{GenCol: GenCol(st.genCol), Source: NoSource, Name: NoName}, pos, nil
	}

	sourceDelta, next, err := decodeVLQ(data, pos)
	if err != nil {
		return Segment{}, pos, err
	}
	st.source += sourceDelta
	if st.source < 0 {
		return Segment{}, next, newError(MalformedVLQ, "negative source index at offset %d", pos)
	}
	pos = next

	lineDelta, next, err := decodeVLQ(data, pos)
	if err != nil {
		return Segment{}, pos, err
	}
	st.origLine += lineDelta
	if st.origLine < 0 {
		return Segment{}, next, newError(MalformedVLQ, "negative original line at offset %d", pos)
	}
	pos = next

	colDelta, next, err := decodeVLQ(data, pos)
	if err != nil {
		return Segment{}, pos, err
	}
	st.origCol += colDelta
	if st.origCol < 0 {
		return Segment{}, next, newError(MalformedVLQ, "negative original column at offset %d", pos)
	}
	pos = next

	seg := Segment{
		GenCol: GenCol(st.genCol),
		Source: MakeSourceID(st.source),
		Line:   OrigLine(st.origLine + 1), // OrigLine is 1-based
		Col:    OrigCol(st.origCol),
		Name:   NoName,
	}

	// Arity 5: an optional trailing name field.
	if pos < len(data) && data[pos] != ',' && data[pos] != ';' {
		nameDelta, next, err := decodeVLQ(data, pos)
		if err != nil {
			return Segment{}, pos, err
		}
		st.name += nameDelta
		if st.name < 0 {
			return Segment{}, next, newError(MalformedVLQ, "negative name index at offset %d", pos)
		}
		pos = next
		seg.Name = MakeNameID(st.name)
	}

	// Anything still left before the next delimiter is an arity this codec
	// doesn't support (a 2, 3, or 6+ field segment).
	if pos < len(data) && data[pos] != ',' && data[pos] != ';' {
		return Segment{}, pos, newError(MalformedVLQ, "segment has an unsupported arity at offset %d", pos)
	}

	return seg, pos, nil
}

// encodeMappings serializes a Lines container back into a `mappings` string,
// re-running the same per-map-persistent / per-line-resetting delta state
// used by decodeMappings. Each line is assembled separately and fed to a
// Joiner, a single-allocation-join idiom for assembling large generated
// output from many small pieces.
func encodeMappings(lines Lines) string {
	var j helpers.Joiner
	st := decodingState{}

	for i, segs := range lines {
		if i > 0 {
			j.AddString(";")
			st.genCol = 0
		}
		j.AddBytes(encodeMappingLine(segs, &st))
	}

	return string(j.Done())
}

func encodeMappingLine(segs []Segment, st *decodingState) []byte {
	var buf []byte
	for j, seg := range segs {
		if j > 0 {
			buf = append(buf, ',')
		}
		buf = encodeVLQ(buf, int(seg.GenCol)-st.genCol)
		st.genCol = int(seg.GenCol)

		if seg.IsHole() {
			continue
		}

		buf = encodeVLQ(buf, seg.Source.Index()-st.source)
		st.source = seg.Source.Index()

		buf = encodeVLQ(buf, int(seg.Line)-1-st.origLine)
		st.origLine = int(seg.Line) - 1

		buf = encodeVLQ(buf, int(seg.Col)-st.origCol)
		st.origCol = int(seg.Col)

		if seg.Name.IsValid() {
			buf = encodeVLQ(buf, seg.Name.Index()-st.name)
			st.name = seg.Name.Index()
		}
	}
	return buf
}
