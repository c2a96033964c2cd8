package sourcemap

// Compose folds a chain of source maps M₀, M₁, ..., Mₙ₋₁ into a single
// map describing the same transformation as applying them in sequence.
// M₀ is the deepest map (closest to the original sources actually
// written by a person); Mₙ₋₁ is the tail map, whose segments are walked
// directly and folded back through M₀..Mₙ₋₂.
//
// Every segment of Mₙ₋₁ is preserved 1:1 in the output: the generated
// line/column shape of the result always matches Mₙ₋₁ exactly. Only the
// original position (and name) attached to each segment changes — or the
// segment becomes a hole, if any step of the fold can't resolve further.
func Compose(maps []*Map) (*Map, error) {
	if len(maps) == 0 {
		return nil, newError(UnsupportedComposition, "composition requires at least one source map")
	}
	// A single flat map is already its own composition; a single indexed map
	// goes through the general path below, which flattens it.
	if len(maps) == 1 && !maps[0].IsIndexed() {
		return maps[0], nil
	}

	// Every intermediate map (not the deepest, not the tail) may carry at
	// most one source unless it's a flat map — the deepest map alone is
	// allowed many sources, since it's the only one modeling a multi-file
	// original program.
	for k := 1; k <= len(maps)-2; k++ {
		if maps[k].IsIndexed() && mapSourceCount(maps[k]) > 1 {
			return nil, newError(UnsupportedComposition,
				"intermediate map %d is a sectioned map with more than one source; only the deepest map in a chain may have that shape", k)
		}
	}

	consumers := make([]*Consumer, len(maps))
	for i, m := range maps {
		consumers[i] = NewConsumer(m)
	}

	tail := consumers[len(consumers)-1]
	chain := consumers[:len(consumers)-1] // C_0 .. C_{n-2}, folded from the end backward

	segs := tail.allSegments()
	outLines := make(Lines, tail.lineCount())

	sources := newInterner()
	names := newInterner()
	var facebook FacebookSources

	for _, ts := range segs {
		lineIdx := int(ts.gen.Line) - 1
		if lineIdx < 0 || lineIdx >= len(outLines) {
			continue
		}

		if ts.hole {
			outLines[lineIdx] = append(outLines[lineIdx], hole(ts.gen.Col))
			continue
		}

		seg, ok := foldSegment(ts, chain, sources, names, &facebook)
		if !ok {
			outLines[lineIdx] = append(outLines[lineIdx], hole(ts.gen.Col))
			continue
		}
		outLines[lineIdx] = append(outLines[lineIdx], seg)
	}

	return &Map{
		Flat: &FlatData{
			Sources:  sources.list,
			Names:    names.list,
			Facebook: facebook,
			Lines:    outLines,
		},
	}, nil
}

// foldSegment walks one resolved tail segment back through the consumer
// chain, from the map closest to the tail down to the deepest one, and
// interns the result's source/name into fresh output tables.
func foldSegment(ts tailSegment, chain []*Consumer, sources, names *interner, facebook *FacebookSources) (Segment, bool) {
	cur := ts.resolved
	chosenName, chosenHasName := cur.name, cur.hasName

	for k := len(chain) - 1; k >= 0; k-- {
		next, ok := chain[k].resolve(GenPos{Line: GenLine(cur.line), Col: GenCol(cur.col)})
		if !ok {
			return Segment{}, false
		}
		// Map all the way back to the deepest name if one is present there;
		// otherwise keep whatever name a shallower stage already carried.
		// This matches esbuild's own input-source-map remapping: a name
		// surviving unminified at some deeper stage wins over a name that's
		// only an artifact of a later mangling pass.
		if next.hasName {
			chosenName, chosenHasName = next.name, true
		}
		cur = next
	}

	srcID, isNewSource := sources.intern(cur.source)
	if isNewSource {
		var entry FacebookSourcesEntry
		if cur.owner != nil {
			entry = cur.owner.facebookEntryFor(cur.sourceID)
		}
		*facebook = append(*facebook, entry)
	}

	seg := Segment{
		GenCol: ts.gen.Col,
		Source: MakeSourceID(srcID),
		Line:   cur.line,
		Col:    cur.col,
		Name:   NoName,
	}
	if chosenHasName {
		nameID, _ := names.intern(chosenName)
		seg.Name = MakeNameID(nameID)
	}
	return seg, true
}

func hole(col GenCol) Segment {
	return Segment{GenCol: col, Source: NoSource, Name: NoName}
}

func mapSourceCount(m *Map) int {
	if m.Flat != nil {
		return len(m.Flat.Sources)
	}
	total := 0
	for _, s := range m.Indexed.Sections {
		total += mapSourceCount(s.Map)
	}
	return total
}

// interner assigns stable, first-seen-order indices to strings, used to
// build a composed map's fresh sources[]/names[] tables.
type interner struct {
	index map[string]int
	list  []string
}

func newInterner() *interner {
	return &interner{index: make(map[string]int)}
}

// intern returns s's index, allocating a new one (and reporting true) the
// first time s is seen.
func (in *interner) intern(s string) (int, bool) {
	if i, ok := in.index[s]; ok {
		return i, false
	}
	i := len(in.list)
	in.list = append(in.list, s)
	in.index[s] = i
	return i, true
}
