package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input  string
		region string
		want   string
		ok     bool
	}{
		{"(202) 456-1111", "US", "+12024561111", true},
		{"+31 20 624 1111", "US", "+31206241111", true},
		{"020 624 1111", "NL", "+31206241111", true},
		{"  ", "US", "", false},
		{"not a number", "US", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeE164(tc.input, tc.region)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeE164(%q, %q) = %q, %v; want %q, %v", tc.input, tc.region, got, ok, tc.want, tc.ok)
		}
	}
}
