package ensgold

// case.go parses the EnSight Gold case file: a small line-oriented text
// grammar of uppercase section headers and "key: value" entries. The
// token-splitting style here (read a line, split on the first colon,
// split the value into whitespace-delimited fields) mirrors the teacher's
// own line-oriented parsing in load/obj.go, adapted to the allocation-
// light byte-slice helpers in internal/rbuf since case files can reference
// many timesteps' worth of geometry/variable entries.

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ensightgold/ensgold/internal/rbuf"
)

type section int

const (
	sectionNone section = iota
	sectionFormat
	sectionGeometry
	sectionVariable
	sectionTime
	sectionFile
	sectionMaterial
)

func sectionOf(line []byte) section {
	switch strings.TrimSpace(string(line)) {
	case "FORMAT":
		return sectionFormat
	case "GEOMETRY":
		return sectionGeometry
	case "VARIABLE":
		return sectionVariable
	case "TIME":
		return sectionTime
	case "FILE":
		return sectionFile
	case "MATERIAL":
		return sectionMaterial
	default:
		return sectionNone
	}
}

// ParseCase reads and parses the case file at path.
func ParseCase(path string, cfg Config, log *slog.Logger) (*Case, error) {
	r, err := rbuf.OpenWithOptions(path, cfg.DisableMmap)
	if err != nil {
		return nil, wrapErr(KindIO, err, "opening case file %s", path)
	}
	defer r.Close()

	c := &Case{Dir: filepath.Dir(path)}
	cur := section(sectionNone)
	var curTime *TimeSet

	closeTime := func() {
		if curTime != nil {
			c.Times = append(c.Times, *curTime)
			curTime = nil
		}
	}

	for {
		line, err := r.Line()
		if err != nil {
			break
		}
		if s := sectionOf(line); s != sectionNone {
			if cur == sectionTime && s != sectionTime {
				closeTime()
			}
			cur = s
			continue
		}
		if cur == sectionNone || len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		keyBytes, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		key := string(keyBytes)
		fields := rbuf.Fields(value)
		tokens := make([]string, len(fields))
		for i, f := range fields {
			tokens[i] = string(f)
		}

		switch cur {
		case sectionFormat:
			if err := parseFormat(key, tokens); err != nil {
				return nil, err
			}
		case sectionGeometry:
			if err := parseGeometry(c, key, tokens); err != nil {
				return nil, err
			}
		case sectionVariable:
			if err := parseVariable(c, key, tokens); err != nil {
				return nil, err
			}
		case sectionTime:
			if key == "time set" {
				closeTime()
			}
			if err := parseTime(r, &curTime, key, tokens); err != nil {
				return nil, err
			}
		case sectionFile, sectionMaterial:
			// Recognized but unused by this reader; no component needs
			// per-timestep FILE step indices or MATERIAL palettes.
		}
	}
	closeTime()

	if c.Geometry.Model == nil {
		logError(log, "case file has no model geometry", "path", path)
		return nil, newErr(KindFormat, "case file %s has no GEOMETRY model entry", path)
	}
	logInfo(log, "parsed case file", "path", path, "variables", len(c.Variable), "time sets", len(c.Times))
	return c, nil
}

func splitKeyValue(line []byte) (key, value []byte, ok bool) {
	i := rbuf.IndexByte(line, ':')
	if i < 0 {
		return nil, nil, false
	}
	key = []byte(strings.TrimSpace(string(line[:i])))
	value = []byte(strings.TrimSpace(string(line[i+1:])))
	if len(key) == 0 || len(value) == 0 {
		return nil, nil, false
	}
	return key, value, true
}

func parseFormat(key string, tokens []string) error {
	if key != "type" || len(tokens) != 2 || tokens[0] != "ensight" || tokens[1] != "gold" {
		return newErr(KindFormat, "not a valid EnSight Gold case file (FORMAT type)")
	}
	return nil
}

// parseGeometry implements the GEOMETRY section's positional
// disambiguation rule: a token is a time-or-file-set number only if every
// character in it is a digit, distinguishing "[ts] filename" from
// "filename [change_coords_only]" at length 2, and similarly at length 3.
func parseGeometry(c *Case, key string, tokens []string) error {
	if len(tokens) < 1 || len(tokens) > 4 {
		return newErr(KindFormat, "invalid GEOMETRY entry %q: %v", key, tokens)
	}
	ge := &GeometryElem{}
	switch len(tokens) {
	case 1:
		ge.Filename = tokens[0]
	case 2:
		if isDigits(tokens[0]) {
			ge.TSSet = true
			ge.TS = mustInt32(tokens[0])
			ge.Filename = tokens[1]
		} else {
			ge.Filename = tokens[0]
			ge.ChangeCoordsOnlySet = true
			ge.ChangeCoordsOnly = mustInt32(tokens[1]) != 0
		}
	case 3:
		if isDigits(tokens[1]) {
			ge.TSSet = true
			ge.TS = mustInt32(tokens[0])
			ge.FSSet = true
			ge.FS = mustInt32(tokens[1])
			ge.Filename = tokens[2]
		} else {
			ge.TSSet = true
			ge.TS = mustInt32(tokens[0])
			ge.Filename = tokens[1]
			ge.ChangeCoordsOnlySet = true
			ge.ChangeCoordsOnly = mustInt32(tokens[2]) != 0
		}
	case 4:
		ge.TSSet = true
		ge.TS = mustInt32(tokens[0])
		ge.FSSet = true
		ge.FS = mustInt32(tokens[1])
		ge.Filename = tokens[2]
		ge.ChangeCoordsOnlySet = true
		ge.ChangeCoordsOnly = mustInt32(tokens[3]) != 0
	}

	switch key {
	case "model":
		c.Geometry.Model = ge
	case "measured":
		c.Geometry.Measured = ge
	case "match":
		c.Geometry.Match = ge
	case "boundary":
		c.Geometry.Boundary = ge
	default:
		return newErr(KindFormat, "invalid key in GEOMETRY section: %q", key)
	}
	return nil
}

var unimplementedVariableKeys = map[string]bool{
	"constant per case":          true,
	"constant per case file":     true,
	"tensor symm per node":       true,
	"tensor asymm per node":      true,
	"tensor symm per element":    true,
	"tensor asymm per element":   true,
	"scalar per measured node":   true,
	"vector per measured node":   true,
	"complex scalar per node":    true,
	"complex vector per node":    true,
	"complex scalar per element": true,
	"complex vector per element": true,
}

// parseVariable implements the VARIABLE section's "[ts] [fs] description
// filename" positional rule (length 2/3/4 fixed, no ambiguity since
// description never looks like a bare integer in practice and ts/fs
// always come first when present).
func parseVariable(c *Case, key string, tokens []string) error {
	if unimplementedVariableKeys[key] {
		return newErr(KindUnsupported, "variable kind %q is not implemented", key)
	}
	if len(tokens) < 2 || len(tokens) > 4 {
		return newErr(KindFormat, "invalid VARIABLE entry %q: %v", key, tokens)
	}
	df := VariableDesc{}
	switch len(tokens) {
	case 2:
		df.Description = tokens[0]
		df.Filename = tokens[1]
	case 3:
		df.TSSet = true
		df.TS = mustInt32(tokens[0])
		df.Description = tokens[1]
		df.Filename = tokens[2]
	case 4:
		df.TSSet = true
		df.TS = mustInt32(tokens[0])
		df.FSSet = true
		df.FS = mustInt32(tokens[1])
		df.Description = tokens[2]
		df.Filename = tokens[3]
	}

	switch key {
	case "scalar per node":
		df.Type = ScalarPerNode
	case "vector per node":
		df.Type = VectorPerNode
	case "scalar per element":
		df.Type = ScalarPerElement
	case "vector per element":
		df.Type = VectorPerElement
	default:
		return newErr(KindFormat, "invalid key in VARIABLE section: %q", key)
	}
	c.Variable = append(c.Variable, df)
	return nil
}

// parseTime accumulates one "time set" record; the caller closes and
// appends it once a new "time set" key or a new section appears. "time values" may continue onto following lines until
// number_of_steps values have been read.
func parseTime(r *rbuf.Reader, cur **TimeSet, key string, tokens []string) error {
	switch key {
	case "time set":
		if len(tokens) < 1 {
			return newErr(KindFormat, "time set entry missing its number")
		}
		ts := &TimeSet{Number: mustInt32(tokens[0])}
		if len(tokens) == 2 {
			ts.Description = tokens[1]
		}
		*cur = ts
		return nil
	}
	if *cur == nil {
		return newErr(KindFormat, "TIME entry %q with no preceding 'time set'", key)
	}
	t := *cur
	switch key {
	case "number of steps":
		t.NumberOfSteps = mustInt32(tokens[0])
		t.TimeValues = make([]float32, 0, t.NumberOfSteps)
	case "filename start number":
		t.FilenameStartNumber = mustInt32(tokens[0])
	case "filename increment":
		t.FilenameIncrement = mustInt32(tokens[0])
	case "time values":
		for _, tok := range tokens {
			t.TimeValues = append(t.TimeValues, mustFloat32(tok))
		}
		for int32(len(t.TimeValues)) < t.NumberOfSteps {
			line, err := r.Line()
			if err != nil {
				return newErr(KindFormat, "ran out of input while reading time values")
			}
			for _, f := range rbuf.Fields(line) {
				t.TimeValues = append(t.TimeValues, mustFloat32(string(f)))
			}
		}
	}
	return nil
}

func isDigits(s string) bool { return rbuf.IsDigits([]byte(s)) }

func mustInt32(s string) int32 {
	v, err := rbuf.ParseInt([]byte(s))
	if err != nil {
		return 0
	}
	return int32(v)
}

func mustFloat32(s string) float32 {
	v, err := rbuf.ParseFloat([]byte(s))
	if err != nil {
		return 0
	}
	return float32(v)
}

// ExpandFilename resolves a geometry/variable entry's filename template
// for one position in a time or file set. A run of consecutive '*'
// characters is replaced by fileNum formatted as decimal, zero-padded to
// the run's width; it is an error if the formatted number doesn't fit.
func ExpandFilename(template string, fileNum int32) (string, error) {
	star := strings.IndexByte(template, '*')
	if star < 0 {
		return template, nil
	}
	width := 0
	for i := star; i < len(template) && template[i] == '*'; i++ {
		width++
	}
	digits := fmt.Sprintf("%0*d", width, fileNum)
	if len(digits) != width {
		return "", newErr(KindFormat, "pattern '*' (width %d) is shorter than generated number %q", width, digits)
	}
	return template[:star] + digits + template[star+width:], nil
}

// ResolveGeometryFiles returns the file path(s), joined onto c.Dir, for a
// GeometryElem across every step of its referenced time set, in order. A
// geometry entry with no ts returns exactly one path.
func (c *Case) ResolveGeometryFiles(ge *GeometryElem) ([]string, error) {
	return resolveTimedFiles(c, ge.Filename, ge.TSSet, ge.TS)
}

// ResolveVariableFiles returns the file path(s), joined onto c.Dir, for a
// VariableDesc across every step of its referenced time set.
func (c *Case) ResolveVariableFiles(vd *VariableDesc) ([]string, error) {
	return resolveTimedFiles(c, vd.Filename, vd.TSSet, vd.TS)
}

func resolveTimedFiles(c *Case, template string, tsSet bool, ts int32) ([]string, error) {
	join := func(name string) string { return filepath.Join(c.Dir, name) }

	if !tsSet {
		return []string{join(template)}, nil
	}
	t, ok := c.TimeSetByNumber(ts)
	if !ok {
		return nil, newErr(KindConsistency, "time set number %d not found", ts)
	}
	if !strings.ContainsRune(template, '*') {
		return []string{join(template)}, nil
	}
	if t.FilenameStartNumber == 0 && t.FilenameIncrement == 0 {
		return nil, newErr(KindFormat, "time set %d has neither filename_start_number nor filename_increment", ts)
	}
	paths := make([]string, 0, t.NumberOfSteps)
	to := t.FilenameStartNumber + t.FilenameIncrement*(t.NumberOfSteps-1)
	for n := t.FilenameStartNumber; n <= to; n += t.FilenameIncrement {
		name, err := ExpandFilename(template, n)
		if err != nil {
			return nil, err
		}
		paths = append(paths, join(name))
	}
	return paths, nil
}
