package sourcemap

import (
	"encoding/json"
	"path"
	"strings"
)

// FacebookSourceItem is one entry of an x_facebook_sources metadata list:
// a set of names plus a VLQ mappings fragment, carried opaquely — this
// package never decodes the mappings fragment inside an
// x_facebook_sources item, only relays it.
type FacebookSourceItem struct {
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// FacebookSourcesEntry is the x_facebook_sources metadata for a single
// sources[] entry: nil when that source carries none.
type FacebookSourcesEntry []FacebookSourceItem

// FacebookSources is parallel to a flat map's Sources: FacebookSources[i]
// is the metadata for Sources[i], or nil. A nil FacebookSources means the
// map carried no x_facebook_sources field at all.
type FacebookSources []FacebookSourcesEntry

// FlatData is the parsed body of a flat source map: one mappings string
// plus the sources/names tables it indexes into.
type FlatData struct {
	Sources        []string
	SourcesContent []*string
	Names          []string
	Facebook       FacebookSources
	Lines          Lines
}

// Section is one entry of an indexed map's sections[] array, already
// decoded to a nested Map and an absolute starting position.
type Section struct {
	// Start is the effective generated position of the section's own line 1,
	// column 0 — see the doc comment on indexedConsumer in consumer.go for
	// the offset/start convention and why this isn't simply the raw JSON
	// offset.
	Start GenPos
	Map   *Map
}

// IndexedData is the parsed body of an indexed ("sectioned") source map.
type IndexedData struct {
	Sections []Section
}

// Map is a parsed source map: exactly one of Flat or Indexed is set.
type Map struct {
	File    string
	Flat    *FlatData
	Indexed *IndexedData
}

// IsIndexed reports whether m is a sectioned map.
func (m *Map) IsIndexed() bool {
	return m.Indexed != nil
}

type rawSectionOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type rawSection struct {
	Offset rawSectionOffset `json:"offset"`
	Map    json.RawMessage  `json:"map"`
}

type rawFlatFields struct {
	Version        int               `json:"version"`
	File           string            `json:"file"`
	SourceRoot     string            `json:"sourceRoot"`
	Sources        []string          `json:"sources"`
	SourcesContent []*string         `json:"sourcesContent"`
	Names          []string          `json:"names"`
	Mappings       string            `json:"mappings"`
	FacebookRaw    []json.RawMessage `json:"x_facebook_sources"`
}

type rawIndexedFields struct {
	Version  int          `json:"version"`
	File     string       `json:"file"`
	Sections []rawSection `json:"sections"`
}

// Parse decodes a source map JSON document. It rejects a document that
// carries both `mappings` and `sections`, or neither, as InvalidMap, and
// otherwise dispatches to the flat or indexed shape.
func Parse(data []byte) (*Map, error) {
	var presence map[string]json.RawMessage
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, wrapError(InvalidMap, err, "source map is not a JSON object")
	}

	_, hasSections := presence["sections"]
	_, hasMappings := presence["mappings"]

	switch {
	case hasSections && hasMappings:
		return nil, newError(InvalidMap, "source map has both \"mappings\" and \"sections\"; these are mutually exclusive shapes")
	case hasSections:
		return parseIndexed(data)
	case hasMappings:
		return parseFlat(data)
	default:
		return nil, newError(InvalidMap, "source map has neither \"mappings\" nor \"sections\"")
	}
}

func parseFlat(data []byte) (*Map, error) {
	var raw rawFlatFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapError(InvalidMap, err, "malformed flat source map")
	}
	if raw.Version != 3 {
		return nil, newError(InvalidMap, "unsupported source map version %d", raw.Version)
	}

	lines, err := decodeMappings(raw.Mappings)
	if err != nil {
		return nil, err
	}

	sources := make([]string, len(raw.Sources))
	for i, s := range raw.Sources {
		sources[i] = resolveSourceRoot(raw.SourceRoot, s)
	}

	facebook, err := parseFacebookSources(raw.FacebookRaw, len(sources))
	if err != nil {
		return nil, err
	}

	return &Map{
		File: raw.File,
		Flat: &FlatData{
			Sources:        sources,
			SourcesContent: raw.SourcesContent,
			Names:          raw.Names,
			Facebook:       facebook,
			Lines:          lines,
		},
	}, nil
}

func parseIndexed(data []byte) (*Map, error) {
	var raw rawIndexedFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapError(InvalidMap, err, "malformed indexed source map")
	}
	if raw.Version != 3 {
		return nil, newError(InvalidMap, "unsupported source map version %d", raw.Version)
	}

	sections := make([]Section, len(raw.Sections))
	for i, rs := range raw.Sections {
		nested, err := Parse(rs.Map)
		if err != nil {
			return nil, wrapError(InvalidMap, err, "section %d", i)
		}
		sections[i] = Section{
			Start: GenPos{
				Line: GenLine(rs.Offset.Line + 1),
				Col:  GenCol(rs.Offset.Column),
			},
			Map: nested,
		}
	}

	// Sections are expected in non-decreasing offset order; a stable sort
	// tolerates ties or minor disorder in third-party input instead of
	// rejecting it outright. consumer.go's dispatch picks the last section
	// of any tied run, so the relative order among ties still matters.
	stableSortSections(sections)

	return &Map{
		File:    raw.File,
		Indexed: &IndexedData{Sections: sections},
	}, nil
}

func stableSortSections(sections []Section) {
	for i := 1; i < len(sections); i++ {
		for j := i; j > 0 && sections[j].Start.ComesBefore(sections[j-1].Start); j-- {
			sections[j], sections[j-1] = sections[j-1], sections[j]
		}
	}
}

// resolveSourceRoot joins sourceRoot onto a sources[] entry the way the
// vendored gopkg.in/sourcemap.v1 consumer's absSource does: an absolute or
// URL-shaped source is left untouched, otherwise sourceRoot is joined as a
// path prefix.
func resolveSourceRoot(sourceRoot, source string) string {
	if sourceRoot == "" || source == "" {
		return source
	}
	if strings.Contains(source, "://") || path.IsAbs(source) {
		return source
	}
	return strings.TrimSuffix(sourceRoot, "/") + "/" + source
}

// hasAnyFacebookEntry reports whether at least one source carries
// x_facebook_sources metadata; the serializer omits the field entirely
// only when every entry is absent.
func hasAnyFacebookEntry(fs FacebookSources) bool {
	for _, entry := range fs {
		if entry != nil {
			return true
		}
	}
	return false
}

func parseFacebookSources(raw []json.RawMessage, sourceCount int) (FacebookSources, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(FacebookSources, sourceCount)
	for i, item := range raw {
		if i >= sourceCount {
			break
		}
		if item == nil || string(item) == "null" {
			continue
		}
		var entry FacebookSourcesEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, wrapError(InvalidMap, err, "malformed x_facebook_sources entry %d", i)
		}
		out[i] = entry
	}
	return out, nil
}

// rawOutputFlat mirrors rawFlatFields for serialization; a distinct type
// keeps the parse-time and write-time field sets (and omitempty rules)
// independent of each other.
type rawOutputFlat struct {
	Version        int               `json:"version"`
	File           string            `json:"file,omitempty"`
	Sources        []string          `json:"sources"`
	SourcesContent []*string         `json:"sourcesContent,omitempty"`
	Names          []string          `json:"names"`
	Mappings       string            `json:"mappings"`
	FacebookRaw    []json.RawMessage `json:"x_facebook_sources,omitempty"`
}

// Marshal serializes a flat Map back to source map v3 JSON. Composition
// never produces an indexed map, so this is the only direction the
// composer's output needs; an indexed map is rejected with InvalidMap.
func (m *Map) Marshal() ([]byte, error) {
	if m.Flat == nil {
		return nil, newError(InvalidMap, "cannot serialize an indexed map directly")
	}
	fd := m.Flat

	out := rawOutputFlat{
		Version:        3,
		File:           m.File,
		Sources:        fd.Sources,
		SourcesContent: fd.SourcesContent,
		Names:          fd.Names,
		Mappings:       encodeMappings(fd.Lines),
	}
	if len(fd.Sources) == 0 {
		out.Sources = []string{}
	}
	if len(fd.Names) == 0 {
		out.Names = []string{}
	}
	if hasAnyFacebookEntry(fd.Facebook) {
		out.FacebookRaw = make([]json.RawMessage, len(fd.Facebook))
		for i, entry := range fd.Facebook {
			if entry == nil {
				out.FacebookRaw[i] = json.RawMessage("null")
				continue
			}
			raw, err := json.Marshal(entry)
			if err != nil {
				return nil, wrapError(InvalidMap, err, "encoding x_facebook_sources entry %d", i)
			}
			out.FacebookRaw[i] = raw
		}
	}

	return json.Marshal(out)
}
