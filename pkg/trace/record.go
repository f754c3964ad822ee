package trace

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoUUID is returned when a line has no bracketed decimal identifier.
var ErrNoUUID = errors.New("no [uuid] token in record")

var uuidPattern = regexp.MustCompile(`\[(\d+)\]`)

// ExtractUUID returns the digits of the first "[digits]" group in line.
func ExtractUUID(line string) (string, error) {
	m := uuidPattern.FindStringSubmatch(line)
	if m == nil {
		return "", ErrNoUUID
	}
	return m[1], nil
}

// Record is one parsed trace line. Empty strings and nil slices mean the
// column was absent.
type Record struct {
	UUID     string
	Type     string
	Name     string
	StartInd string
	EndInd   string
	EdgeAnn  string
	ChildC   []string
	ChildD   []string
}

// HasChildren reports whether either child column was present.
func (r Record) HasChildren() bool {
	return r.ChildC != nil || r.ChildD != nil
}

// Schema maps record fields to column offsets relative to the uuid token.
// A negative offset means the field is not carried by the record type.
type Schema struct {
	Type     int `toml:"type" json:"type"`
	Name     int `toml:"name" json:"name"`
	StartInd int `toml:"startind" json:"startind"`
	EndInd   int `toml:"endind" json:"endind"`
	EdgeAnn  int `toml:"edgeann" json:"edgeann"`
	ChildC   int `toml:"child_c" json:"child_c"`
	ChildD   int `toml:"child_d" json:"child_d"`
}

// DefaultSchema is the full record layout, edge annotation included.
var DefaultSchema = Schema{
	Type:     1,
	Name:     2,
	StartInd: 3,
	EndInd:   4,
	EdgeAnn:  5,
	ChildC:   6,
	ChildD:   7,
}

// ShortSchema is the layout of records written without an edge
// annotation: [uuid] type name startind endind child_c child_d.
var ShortSchema = Schema{
	Type:     1,
	Name:     2,
	StartInd: 3,
	EndInd:   4,
	EdgeAnn:  -1,
	ChildC:   5,
	ChildD:   6,
}

// shortColumns is the column count after the id that marks a short record.
const shortColumns = 6

// Validate rejects schemas that place a field on the uuid column or reuse
// a column for two fields.
func (s Schema) Validate() error {
	seen := make(map[int]string)
	for name, off := range s.offsets() {
		if off < 0 {
			continue
		}
		if off == 0 {
			return fmt.Errorf("schema: %s cannot use the uuid column", name)
		}
		if other, ok := seen[off]; ok {
			return fmt.Errorf("schema: %s and %s share column %d", name, other, off)
		}
		seen[off] = name
	}
	return nil
}

func (s Schema) offsets() map[string]int {
	return map[string]int{
		"type":     s.Type,
		"name":     s.Name,
		"startind": s.StartInd,
		"endind":   s.EndInd,
		"edgeann":  s.EdgeAnn,
		"child_c":  s.ChildC,
		"child_d":  s.ChildD,
	}
}

// ParseRecord parses line with [ShortSchema] when exactly six columns
// follow the id and the last two both read as child lists, and with
// [DefaultSchema] otherwise. A full record missing only child_d therefore
// keeps its edge annotation unless that annotation is itself numeric.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	base := uuidColumn(fields)
	if base < 0 {
		return Record{}, ErrNoUUID
	}
	if isShort(fields[base+1:]) {
		return ShortSchema.parseFields(fields, base)
	}
	return DefaultSchema.parseFields(fields, base)
}

func isShort(cols []string) bool {
	return len(cols) == shortColumns &&
		isChildList(cols[ShortSchema.ChildC-1]) &&
		isChildList(cols[ShortSchema.ChildD-1])
}

// isChildList reports whether v is an absent marker or a comma separated
// list of decimal ids, optionally bracketed.
func isChildList(v string) bool {
	if isNone(v) {
		return true
	}
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "["), "]")
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
	}
	return true
}

func uuidColumn(fields []string) int {
	for i, f := range fields {
		if uuidPattern.MatchString(f) {
			return i
		}
	}
	return -1
}

// Parse extracts a Record from line. Missing trailing columns are absent.
func (s Schema) Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	base := uuidColumn(fields)
	if base < 0 {
		return Record{}, ErrNoUUID
	}
	return s.parseFields(fields, base)
}

func (s Schema) parseFields(fields []string, base int) (Record, error) {
	uuid := uuidPattern.FindStringSubmatch(fields[base])[1]

	col := func(off int) string {
		if off <= 0 || base+off >= len(fields) {
			return ""
		}
		v := fields[base+off]
		if isNone(v) {
			return ""
		}
		return v
	}

	return Record{
		UUID:     uuid,
		Type:     col(s.Type),
		Name:     col(s.Name),
		StartInd: col(s.StartInd),
		EndInd:   col(s.EndInd),
		EdgeAnn:  col(s.EdgeAnn),
		ChildC:   splitChildren(col(s.ChildC)),
		ChildD:   splitChildren(col(s.ChildD)),
	}, nil
}

func isNone(v string) bool {
	return v == "-" || strings.EqualFold(v, "none")
}

// splitChildren turns "1,2,3" into an id list. Bracketed ids are accepted.
func splitChildren(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "["), "]")
		if p == "" || isNone(p) {
			continue
		}
		ids = append(ids, p)
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
