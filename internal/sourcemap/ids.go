package sourcemap

// SourceID is an index into a map's sources[] table. The zero value
// represents "no source," so the stored bits are flipped: a real index
// of 0 is stored as ^uint32(0), leaving the Go zero value distinct from
// any valid index.
type SourceID struct {
	flippedBits uint32
}

// NoSource is the sentinel SourceID used by unmapped segments.
var NoSource = SourceID{}

// MakeSourceID wraps a real 0-based source table index.
func MakeSourceID(index int) SourceID {
	return SourceID{flippedBits: ^uint32(index)}
}

// IsValid reports whether id refers to an actual sources[] entry.
func (id SourceID) IsValid() bool {
	return id.flippedBits != 0
}

// Index returns the 0-based sources[] index. Only valid when IsValid().
func (id SourceID) Index() int {
	return int(^id.flippedBits)
}

// NameID is an index into a map's names[] table, with the same
// optional-index representation as SourceID.
type NameID struct {
	flippedBits uint32
}

// NoName is the sentinel NameID used when a mapping carries no symbol name.
var NoName = NameID{}

// MakeNameID wraps a real 0-based names table index.
func MakeNameID(index int) NameID {
	return NameID{flippedBits: ^uint32(index)}
}

// IsValid reports whether id refers to an actual names[] entry.
func (id NameID) IsValid() bool {
	return id.flippedBits != 0
}

// Index returns the 0-based names[] index. Only valid when IsValid().
func (id NameID) Index() int {
	return int(^id.flippedBits)
}
