package sourcemap

import (
	"encoding/json"
	"testing"
)

func TestParseFlatMap(t *testing.T) {
	doc := `{
		"version": 3,
		"sources": ["a.js", "b.js"],
		"names": ["foo"],
		"mappings": "AAAA;AACA"
	}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if m.IsIndexed() {
		t.Fatalf("expected a flat map")
	}
	if len(m.Flat.Sources) != 2 || m.Flat.Sources[0] != "a.js" || m.Flat.Sources[1] != "b.js" {
		t.Fatalf("unexpected sources: %v", m.Flat.Sources)
	}
	if len(m.Flat.Lines) != 2 {
		t.Fatalf("expected 2 decoded generated lines, got %d", len(m.Flat.Lines))
	}
}

func TestParseIndexedMap(t *testing.T) {
	doc := `{
		"version": 3,
		"sections": [
			{"offset": {"line": 0, "column": 0}, "map": {"version": 3, "sources": ["a.js"], "names": [], "mappings": "AAAA"}},
			{"offset": {"line": 2, "column": 0}, "map": {"version": 3, "sources": ["b.js"], "names": [], "mappings": "AAAA"}}
		]
	}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if !m.IsIndexed() {
		t.Fatalf("expected an indexed map")
	}
	if len(m.Indexed.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(m.Indexed.Sections))
	}
	if m.Indexed.Sections[0].Start.Line != 1 || m.Indexed.Sections[1].Start.Line != 3 {
		t.Fatalf("unexpected section starts: %+v / %+v", m.Indexed.Sections[0].Start, m.Indexed.Sections[1].Start)
	}
}

func TestParseRejectsMixedShape(t *testing.T) {
	doc := `{"version": 3, "mappings": "AAAA", "sections": []}`
	_, err := Parse([]byte(doc))
	if !IsKind(err, InvalidMap) {
		t.Fatalf("expected InvalidMap for a map with both mappings and sections, got %v", err)
	}
}

func TestParseRejectsNeitherShape(t *testing.T) {
	doc := `{"version": 3, "sources": ["a.js"]}`
	_, err := Parse([]byte(doc))
	if !IsKind(err, InvalidMap) {
		t.Fatalf("expected InvalidMap for a map with neither mappings nor sections, got %v", err)
	}
}

func TestParseRejectsWrongVersion(t *testing.T) {
	doc := `{"version": 2, "mappings": ""}`
	_, err := Parse([]byte(doc))
	if !IsKind(err, InvalidMap) {
		t.Fatalf("expected InvalidMap for version 2, got %v", err)
	}
}

func TestSourceRootResolution(t *testing.T) {
	doc := `{
		"version": 3,
		"sourceRoot": "https://example.com/src",
		"sources": ["a.js", "https://cdn.example.com/b.js", "/abs/c.js"],
		"mappings": ""
	}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	want := []string{"https://example.com/src/a.js", "https://cdn.example.com/b.js", "/abs/c.js"}
	for i, s := range want {
		if m.Flat.Sources[i] != s {
			t.Fatalf("source %d: got %q, want %q", i, m.Flat.Sources[i], s)
		}
	}
}

func TestFacebookSourcesParseAndRoundTrip(t *testing.T) {
	doc := `{
		"version": 3,
		"sources": ["a.js"],
		"mappings": "AAAA",
		"x_facebook_sources": [[{"names": ["<global>"], "mappings": "AAA"}]]
	}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if len(m.Flat.Facebook) != 1 || len(m.Flat.Facebook[0]) != 1 {
		t.Fatalf("unexpected facebook metadata: %+v", m.Flat.Facebook)
	}
	if m.Flat.Facebook[0][0].Names[0] != "<global>" {
		t.Fatalf("unexpected facebook entry name: %+v", m.Flat.Facebook[0][0])
	}

	out, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: unexpected error: %v", err)
	}
	roundTripped, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Marshal(...)): unexpected error: %v", err)
	}
	if len(roundTripped.Flat.Facebook) != 1 || roundTripped.Flat.Facebook[0][0].Mappings != "AAA" {
		t.Fatalf("x_facebook_sources did not survive a round trip: %+v", roundTripped.Flat.Facebook)
	}
}

func TestMarshalOmitsFacebookSourcesWhenAllAbsent(t *testing.T) {
	m := &Map{Flat: &FlatData{
		Sources:  []string{"a.js"},
		Facebook: FacebookSources{nil},
		Lines:    Lines{},
	}}
	out, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: unexpected error: %v", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("unmarshaling marshaled output: %v", err)
	}
	if _, present := generic["x_facebook_sources"]; present {
		t.Fatalf("expected x_facebook_sources to be omitted when every entry is absent, got %s", out)
	}
}
