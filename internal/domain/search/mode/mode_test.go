package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Semantic, Keyword}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "hybrid", "SEMANTIC"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}
