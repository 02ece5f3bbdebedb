package rbuf

import "testing"

func TestFields(t *testing.T) {
	got := Fields([]byte("  ts   fs  geometry.geo   "))
	want := []string{"ts", "fs", "geometry.geo"}
	if len(got) != len(want) {
		t.Fatalf("Fields: got %d tokens, want %d", len(got), len(want))
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("Fields[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestFieldsBound(t *testing.T) {
	line := make([]byte, 0)
	for i := 0; i < 40; i++ {
		line = append(line, []byte("a ")...)
	}
	got := Fields(line)
	if len(got) != maxFields {
		t.Errorf("Fields: got %d tokens, want bounded to %d", len(got), maxFields)
	}
}

func TestIsDigits(t *testing.T) {
	cases := map[string]bool{
		"123":   true,
		"":      false,
		"12a":   false,
		"-12":   false,
		"00042": true,
	}
	for in, want := range cases {
		if got := IsDigits([]byte(in)); got != want {
			t.Errorf("IsDigits(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt([]byte("-42"))
	if err != nil {
		t.Fatal(err)
	}
	if v != -42 {
		t.Errorf("ParseInt = %d, want -42", v)
	}
	if _, err := ParseInt([]byte("")); err == nil {
		t.Error("ParseInt(\"\") should error")
	}
}

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat([]byte("1.5e3"))
	if err != nil {
		t.Fatal(err)
	}
	if v != 1500 {
		t.Errorf("ParseFloat = %v, want 1500", v)
	}
}

func TestHasPrefix(t *testing.T) {
	if !HasPrefix([]byte("g_tetra4"), []byte("g_")) {
		t.Error("expected g_ prefix match")
	}
	if HasPrefix([]byte("tetra4"), []byte("g_")) {
		t.Error("unexpected g_ prefix match")
	}
}
