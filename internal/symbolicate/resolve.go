// Package symbolicate is a thin host-application helper built on top of
// internal/sourcemap. It is not itself part of the composition core; it
// exists to exercise the core from the consumer's side of the API (a
// backtrace frame in, an original position out) and to let tests compare
// composition against serial symbolication directly.
package symbolicate

import "github.com/foldmap/sourcemap/internal/sourcemap"

// Frame is a single backtrace entry: a generated position in some file
// identified by url, the same shape a crash reporter or log line carries.
type Frame struct {
	URL  string
	Line sourcemap.GenLine
	Col  sourcemap.GenCol
}

// Resolve walks frame.Line/Col through a single parsed map and returns the
// original position, or ok=false if the frame falls in a hole or outside
// the map's coverage.
func Resolve(frame Frame, m *sourcemap.Map) (sourcemap.OrigPos, bool) {
	c := sourcemap.NewConsumer(m)
	return c.OriginalPositionFor(sourcemap.GenPos{Line: frame.Line, Col: frame.Col})
}

// ResolveChain symbolicates frame against a chain of maps applied in
// sequence by composing them first, then resolving once against the
// result. Equivalent to ResolveSerially; kept separate so a caller's
// choice between "compose once, query many times" and "query straight
// through the chain" is explicit rather than implied by a shared helper.
func ResolveChain(frame Frame, maps []*sourcemap.Map) (sourcemap.OrigPos, bool) {
	composed, err := sourcemap.Compose(maps)
	if err != nil {
		return sourcemap.OrigPos{}, false
	}
	return Resolve(frame, composed)
}

// ResolveSerially symbolicates frame by querying each map in turn without
// ever composing them, in the same M0..Mn-1 order Compose itself accepts:
// maps[len-1] (the tail) is queried directly with frame's own generated
// position, and each resolved position is then fed as the query into the
// next map down toward maps[0], stopping at the first hole. Walking maps
// in forward order backward like this lets a caller pass the identical
// slice to both Compose and ResolveSerially.
func ResolveSerially(frame Frame, maps []*sourcemap.Map) (sourcemap.OrigPos, bool) {
	if len(maps) == 0 {
		return sourcemap.OrigPos{}, false
	}
	pos, ok := Resolve(frame, maps[len(maps)-1])
	if !ok {
		return sourcemap.OrigPos{}, false
	}
	for i := len(maps) - 2; i >= 0; i-- {
		next, ok := Resolve(Frame{URL: pos.Source, Line: sourcemap.GenLine(pos.Line), Col: sourcemap.GenCol(pos.Col)}, maps[i])
		if !ok {
			return sourcemap.OrigPos{}, false
		}
		// As in Compose, a deeper name replaces a shallower one, and a
		// step without a name keeps the name found so far.
		if !next.HasName {
			next.Name, next.HasName = pos.Name, pos.HasName
		}
		pos = next
	}
	return pos, true
}
