package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/HugoDaniel/valtypes/internal/diagnostic"
)

// SourceMap is a Source Map v3 document for a single source file.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping links a generated position to an original one. Lines and columns
// are 0-based; columns count UTF-16 code units. Name is -1 when the segment
// carries no name.
type Mapping struct {
	GenLine int
	GenCol  int
	SrcLine int
	SrcCol  int
	Name    int
}

// Generator collects mappings while code is printed.
type Generator struct {
	source        string
	sourceName    string
	file          string
	includeSource bool
	lines         *diagnostic.LineIndex

	mappings []Mapping
	names    map[string]int
	nameList []string
}

// NewGenerator creates a generator for output compiled from source.
func NewGenerator(source, sourceName string) *Generator {
	return &Generator{
		source:     source,
		sourceName: sourceName,
		lines:      diagnostic.NewLineIndex(source),
		names:      make(map[string]int),
	}
}

// SetFile sets the name of the generated file.
func (g *Generator) SetFile(file string) { g.file = file }

// IncludeSourceContent embeds the original source in sourcesContent.
func (g *Generator) IncludeSourceContent(include bool) { g.includeSource = include }

// AddMapping maps the generated position (genLine, genCol) to the byte
// offset srcOffset of the original source. Mappings must arrive in output
// order. A mapping at the same generated position as the previous one
// replaces it: nested expressions that start together map to the innermost.
func (g *Generator) AddMapping(genLine, genCol, srcOffset int, name string) {
	if n := len(g.mappings); n > 0 {
		last := g.mappings[n-1]
		if last.GenLine == genLine && last.GenCol == genCol {
			g.mappings = g.mappings[:n-1]
		}
	}

	line, byteCol := g.lines.ByteOffsetToLineColumn(srcOffset)
	text := g.lines.Line(line)
	if byteCol > len(text) {
		byteCol = len(text)
	}
	m := Mapping{
		GenLine: genLine,
		GenCol:  genCol,
		SrcLine: line,
		SrcCol:  len(utf16.Encode([]rune(text[:byteCol]))),
		Name:    -1,
	}

	if name != "" {
		idx, ok := g.names[name]
		if !ok {
			idx = len(g.nameList)
			g.names[name] = idx
			g.nameList = append(g.nameList, name)
		}
		m.Name = idx
	}
	g.mappings = append(g.mappings, m)
}

// ShiftLines moves every generated position down by n lines, for output
// that gets a prefix after printing.
func (g *Generator) ShiftLines(n int) {
	for i := range g.mappings {
		g.mappings[i].GenLine += n
	}
}

// Mappings returns the mappings added so far.
func (g *Generator) Mappings() []Mapping { return g.mappings }

// Generate produces the source map.
func (g *Generator) Generate() *SourceMap {
	sm := &SourceMap{
		Version:  3,
		File:     g.file,
		Sources:  []string{g.sourceName},
		Names:    append([]string{}, g.nameList...),
		Mappings: encodeMappings(g.mappings),
	}
	if g.includeSource {
		sm.SourcesContent = []string{g.source}
	}
	return sm
}

// encodeMappings writes the mappings field: lines separated by ';',
// segments by ','. Every field is a delta from the previous segment; the
// generated column restarts at each line.
func encodeMappings(mappings []Mapping) string {
	var buf []byte
	var prevCol, prevSrcLine, prevSrcCol, prevName int
	line := 0
	first := true
	for _, m := range mappings {
		for line < m.GenLine {
			buf = append(buf, ';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false

		buf = AppendVLQ(buf, m.GenCol-prevCol)
		buf = AppendVLQ(buf, 0) // single source
		buf = AppendVLQ(buf, m.SrcLine-prevSrcLine)
		buf = AppendVLQ(buf, m.SrcCol-prevSrcCol)
		prevCol, prevSrcLine, prevSrcCol = m.GenCol, m.SrcLine, m.SrcCol

		if m.Name >= 0 {
			buf = AppendVLQ(buf, m.Name-prevName)
			prevName = m.Name
		}
	}
	return string(buf)
}

// DecodeMappings parses a mappings field.
func DecodeMappings(mappings string) ([]Mapping, error) {
	var result []Mapping
	var srcLine, srcCol, name int
	for genLine, line := range strings.Split(mappings, ";") {
		genCol := 0
		for _, segment := range strings.Split(line, ",") {
			if segment == "" {
				continue
			}
			var fields []int
			for rest := segment; rest != ""; {
				v, n := DecodeVLQ(rest)
				if n == 0 {
					return nil, fmt.Errorf("invalid segment %q on line %d", segment, genLine)
				}
				fields = append(fields, v)
				rest = rest[n:]
			}
			if len(fields) != 1 && len(fields) != 4 && len(fields) != 5 {
				return nil, fmt.Errorf("segment %q on line %d has %d fields", segment, genLine, len(fields))
			}

			genCol += fields[0]
			m := Mapping{GenLine: genLine, GenCol: genCol, Name: -1}
			if len(fields) >= 4 {
				srcLine += fields[2]
				srcCol += fields[3]
				m.SrcLine, m.SrcCol = srcLine, srcCol
			}
			if len(fields) == 5 {
				name += fields[4]
				m.Name = name
			}
			result = append(result, m)
		}
	}
	return result, nil
}

// JSON returns the encoded source map.
func (sm *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(sm)
}

// DataURI returns the source map as a base64 data URI.
func (sm *SourceMap) DataURI() (string, error) {
	data, err := sm.JSON()
	if err != nil {
		return "", err
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Comment returns the sourceMappingURL comment that links generated code to
// url.
func Comment(url string) string {
	return "//# sourceMappingURL=" + url
}
