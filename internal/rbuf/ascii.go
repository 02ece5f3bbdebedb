package rbuf

import (
	"strconv"

	"github.com/pkg/errors"
)

// Equal reports whether a and b hold the same bytes, ASCII-case-sensitively.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether b starts with prefix.
func HasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	return Equal(b[:len(prefix)], prefix)
}

// IndexByte returns the index of the first occurrence of c in b, or -1.
func IndexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// IsDigits reports whether every byte in b is an ASCII digit and b is
// non-empty. A leading '-' or '+' is not considered a digit run; callers
// disambiguating GEOMETRY/VARIABLE positional tokens check digit runs only,
// per the case-file grammar's own rule.
func IsDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// maxFields bounds the number of whitespace-separated tokens Fields will
// ever produce for one line of a case file.
const maxFields = 16

// Fields splits b on runs of ASCII whitespace into at most maxFields
// token slices, all aliasing b (no allocation beyond the returned slice
// header array).
func Fields(b []byte) [][]byte {
	out := make([][]byte, 0, maxFields)
	i := 0
	for i < len(b) && len(out) < maxFields {
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i >= len(b) {
			break
		}
		start := i
		for i < len(b) && !isSpace(b[i]) {
			i++
		}
		out = append(out, b[start:i])
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// ParseInt parses an ASCII decimal integer (optionally signed) from b.
func ParseInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errors.New("rbuf: ParseInt on empty input")
	}
	neg := false
	i := 0
	if b[0] == '+' || b[0] == '-' {
		neg = b[0] == '-'
		i++
	}
	if i >= len(b) {
		return 0, errors.Errorf("rbuf: ParseInt %q: no digits", b)
	}
	var v int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, errors.Errorf("rbuf: ParseInt %q: invalid digit %q", b, c)
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ParseFloat parses an ASCII decimal float (EnSight Gold geometry/variable
// case-file scalars never use exponential forms wider than 'e'/'E', both
// handled by strconv) from b.
func ParseFloat(b []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "rbuf: ParseFloat %q", b)
	}
	return v, nil
}
