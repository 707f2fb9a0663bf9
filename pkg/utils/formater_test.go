package utils

import "testing"

func TestFmtCount(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-42:      "-42",
		-1234567: "-1,234,567",
	}
	for in, want := range cases {
		if got := FmtCount(in); got != want {
			t.Errorf("FmtCount(%d) = %q, want %q", in, got, want)
		}
	}
}
