package history

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Wireless  Headphones": "wireless headphones",
		"  laptop\tfor work ":  "laptop for work",
		"":                     "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		days int
	}{
		{"day", Day, 1},
		{"WEEK", Week, 7},
		{"month", Month, 30},
		{"year", Week, 7},
		{"", Week, 7},
	}
	for _, tc := range tests {
		p := ParsePeriod(tc.in)
		if p != tc.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tc.in, p, tc.want)
		}
		if p.Days() != tc.days {
			t.Errorf("%q.Days() = %d, want %d", p, p.Days(), tc.days)
		}
	}
}
