package sourcemap

import "sort"

// OrigPos is the resolved result of a Consumer query: the source path and
// name are already looked up in the owning map's own tables, so callers
// never handle a raw SourceID/NameID themselves.
type OrigPos struct {
	Source    string
	HasSource bool
	Line      OrigLine
	Col       OrigCol
	Name      string
	HasName   bool
}

// Consumer resolves generated positions to original positions for one
// parsed source map. It wraps exactly one of a flat or an indexed map,
// mirroring the Map variant it was built from.
type Consumer struct {
	flat    *flatConsumer
	indexed *indexedConsumer
}

// NewConsumer builds a Consumer over an already-parsed Map. Construction
// never fails: Parse has already validated structure, so building a
// Consumer is just wrapping tables for lookup.
func NewConsumer(m *Map) *Consumer {
	if m.Indexed != nil {
		sections := make([]consumerSection, len(m.Indexed.Sections))
		for i, s := range m.Indexed.Sections {
			sections[i] = consumerSection{start: s.Start, consumer: NewConsumer(s.Map)}
		}
		return &Consumer{indexed: &indexedConsumer{sections: sections}}
	}
	fd := m.Flat
	return &Consumer{flat: &flatConsumer{
		sources:  fd.Sources,
		names:    fd.Names,
		facebook: fd.Facebook,
		lines:    fd.Lines,
	}}
}

// OriginalPositionFor resolves a generated position to its original
// position. The second return is false when g falls in a hole, on an
// unmapped generated line, or past the end of the map.
func (c *Consumer) OriginalPositionFor(g GenPos) (OrigPos, bool) {
	r, ok := c.resolve(g)
	if !ok {
		return OrigPos{}, false
	}
	return OrigPos{
		Source:    r.source,
		HasSource: r.sourceID.IsValid(),
		Line:      r.line,
		Col:       r.col,
		Name:      r.name,
		HasName:   r.hasName,
	}, true
}

// resolve is the unexported counterpart used by the composer: besides the
// resolved position it keeps the owning flatConsumer and the local
// SourceID, so x_facebook_sources metadata can be fetched for whichever
// map actually supplied the final source.
func (c *Consumer) resolve(g GenPos) (resolved, bool) {
	if c.flat != nil {
		return c.flat.resolve(g)
	}
	return c.indexed.resolve(g)
}

// allSegments walks the tail map's own segments in generated order, each
// already resolved against its own (possibly nested) tables — this lets a
// composer iterate the tail map directly rather than through a second
// round of queries. An indexed tail is flattened by rebasing every section's
// segments to effective coordinates via toEffective, the mirror image of
// the dispatch-side toLocal.
func (c *Consumer) allSegments() []tailSegment {
	if c.flat != nil {
		return c.flat.allSegments()
	}
	return c.indexed.allSegments()
}

// lineCount reports the total number of generated lines the map spans,
// including trailing lines with no segments at all — compose.go needs
// this to reproduce the tail map's exact line count even when its last
// lines carry no mappings.
func (c *Consumer) lineCount() int {
	if c.flat != nil {
		return len(c.flat.lines)
	}
	return c.indexed.lineCount()
}

func (ic *indexedConsumer) lineCount() int {
	if len(ic.sections) == 0 {
		return 0
	}
	last := ic.sections[len(ic.sections)-1]
	return int(last.start.Line) + last.consumer.lineCount() - 1
}

type resolved struct {
	owner    *flatConsumer
	sourceID SourceID
	source   string
	line     OrigLine
	col      OrigCol
	nameID   NameID
	name     string
	hasName  bool
}

type tailSegment struct {
	gen  GenPos
	hole bool
	resolved
}

// flatConsumer is a Consumer over a flat (non-sectioned) map.
type flatConsumer struct {
	sources  []string
	names    []string
	facebook FacebookSources
	lines    Lines
}

func (fc *flatConsumer) resolve(g GenPos) (resolved, bool) {
	seg, ok := fc.lines.findFloor(g.Line, g.Col)
	if !ok || seg.IsHole() {
		return resolved{}, false
	}
	r := resolved{owner: fc, sourceID: seg.Source, line: seg.Line, col: seg.Col}
	if idx := seg.Source.Index(); idx < len(fc.sources) {
		r.source = fc.sources[idx]
	}
	if seg.Name.IsValid() {
		r.nameID = seg.Name
		if idx := seg.Name.Index(); idx < len(fc.names) {
			r.name = fc.names[idx]
			r.hasName = true
		}
	}
	return r, true
}

func (fc *flatConsumer) facebookEntryFor(id SourceID) FacebookSourcesEntry {
	if !id.IsValid() || id.Index() >= len(fc.facebook) {
		return nil
	}
	return fc.facebook[id.Index()]
}

func (fc *flatConsumer) allSegments() []tailSegment {
	var out []tailSegment
	for i, segs := range fc.lines {
		genLine := GenLine(i + 1)
		for _, seg := range segs {
			ts := tailSegment{gen: GenPos{Line: genLine, Col: seg.GenCol}}
			if seg.IsHole() {
				ts.hole = true
				out = append(out, ts)
				continue
			}
			ts.resolved = resolved{owner: fc, sourceID: seg.Source, line: seg.Line, col: seg.Col}
			if idx := seg.Source.Index(); idx < len(fc.sources) {
				ts.resolved.source = fc.sources[idx]
			}
			if seg.Name.IsValid() {
				ts.resolved.nameID = seg.Name
				if idx := seg.Name.Index(); idx < len(fc.names) {
					ts.resolved.name = fc.names[idx]
					ts.resolved.hasName = true
				}
			}
			out = append(out, ts)
		}
	}
	return out
}

// indexedConsumer is a Consumer over an indexed ("sectioned") map.
//
// Each section's raw JSON offset {line, column} is stored here as a
// `start` position — the effective generated position of that section's
// own (innerGenLine=1, innerGenCol=0). Working in terms of `start` lets
// dispatch and rebasing share one formula, and it collapses to an
// identity transform for the common case of a single section at offset
// (0,0): a flat map and its (0,0)-offset indexed wrapping must answer
// identically. Deriving a section's effective line as offset.line +
// innerGenLine − 1 would instead make a section's own line 1 unreachable
// when offset.line is 0, since that requires querying generated line 0,
// and GenLine is always ≥ 1. So offset.line is treated instead as a
// 0-based count of generated lines preceding the section (the
// conventional reading of an indexed map's section offsets), giving
// start.Line = offset.line + 1.
type indexedConsumer struct {
	sections []consumerSection
}

type consumerSection struct {
	start    GenPos
	consumer *Consumer
}

func (ic *indexedConsumer) resolve(g GenPos) (resolved, bool) {
	sec, ok := ic.sectionFor(g)
	if !ok {
		return resolved{}, false
	}
	return sec.consumer.resolve(toLocal(g, sec.start))
}

// sectionFor locates the section whose start is the greatest one <= g.
// Sections with duplicate or out-of-order offsets are stabilized in
// codec.go's stableSortSections, which keeps ties in input order; the
// search below then picks the last of any tied run.
func (ic *indexedConsumer) sectionFor(g GenPos) (consumerSection, bool) {
	i := sort.Search(len(ic.sections), func(i int) bool {
		return g.ComesBefore(ic.sections[i].start)
	})
	if i == 0 {
		return consumerSection{}, false
	}
	return ic.sections[i-1], true
}

func toLocal(g GenPos, start GenPos) GenPos {
	localLine := g.Line - start.Line + 1
	if localLine == 1 {
		return GenPos{Line: localLine, Col: g.Col - start.Col}
	}
	return GenPos{Line: localLine, Col: g.Col}
}

// allSegments flattens every section's own segments into one generated-
// order list, rebased to effective coordinates. Sections are already
// stored in ascending `start` order (codec.go's stableSortSections), so
// concatenating each section's rebased segments in order yields the whole
// map's segments in generated order too.
func (ic *indexedConsumer) allSegments() []tailSegment {
	var out []tailSegment
	for _, sec := range ic.sections {
		for _, ts := range sec.consumer.allSegments() {
			ts.gen = toEffective(ts.gen, sec.start)
			out = append(out, ts)
		}
	}
	return out
}

func toEffective(local GenPos, start GenPos) GenPos {
	effLine := start.Line + local.Line - 1
	if local.Line == 1 {
		return GenPos{Line: effLine, Col: start.Col + local.Col}
	}
	return GenPos{Line: effLine, Col: local.Col}
}
