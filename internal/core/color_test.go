package core

import "testing"

func TestNormalizeHex(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2c6", "#22CC66", true},
		{"#2c6", "#22CC66", true},
		{"2C6E63", "#2C6E63", true},
		{"#2c6e63", "#2C6E63", true},
		{" #fff ", "#FFFFFF", true},
		{"zzz", "", false},
		{"12", "", false},
		{"12345", "", false},
		{"1234567", "", false},
		{"", "", false},
		{"#", "", false},
		{"2c6e6g", "", false},
	}
	for i, tc := range cases {
		got, ok := NormalizeHex(tc.in)
		if ok != tc.ok {
			t.Fatalf("case %d (%q): ok=%v, want %v", i, tc.in, ok, tc.ok)
		}
		if got != tc.want {
			t.Fatalf("case %d (%q): got %q, want %q", i, tc.in, got, tc.want)
		}
	}
}
