package pathtree

import "testing"

func TestIsDescendantOrEqual(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		ancestor  string
		want      bool
	}{
		{"reflexive root", "Home", "Home", true},
		{"reflexive nested", "Home/Rent", "Home/Rent", true},
		{"direct child", "Home/Rent", "Home", true},
		{"grandchild", "Home/Rent/Utilities", "Home", true},
		{"sibling prefix not aligned", "Home2", "Home", false},
		{"sibling prefix not aligned nested", "Home2/Rent", "Home", false},
		{"segment prefix not aligned", "Home/Rental", "Home/Rent", false},
		{"ancestor deeper than candidate", "Home", "Home/Rent", false},
		{"unrelated", "Work", "Home", false},
		{"case sensitive", "home/Rent", "Home", false},
		{"no trailing slash normalization", "Home/", "Home", true}, // "Home/" splits to ["Home", ""]
		{"empty equals empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDescendantOrEqual(tt.candidate, tt.ancestor); got != tt.want {
				t.Errorf("IsDescendantOrEqual(%q, %q) = %v, want %v", tt.candidate, tt.ancestor, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join("Home", "Rent"); got != "Home/Rent" {
		t.Errorf("Join = %q, want %q", got, "Home/Rent")
	}
	// No validation at this layer: an empty child yields a path with an
	// empty trailing segment.
	if got := Join("Home", ""); got != "Home/" {
		t.Errorf("Join with empty child = %q, want %q", got, "Home/")
	}
}

func TestParent(t *testing.T) {
	tests := []struct {
		path   string
		parent string
		ok     bool
	}{
		{"Home/Rent", "Home", true},
		{"Home/Rent/Utilities", "Home/Rent", true},
		{"Home", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		parent, ok := Parent(tt.path)
		if parent != tt.parent || ok != tt.ok {
			t.Errorf("Parent(%q) = (%q, %v), want (%q, %v)", tt.path, parent, ok, tt.parent, tt.ok)
		}
	}
}

func TestJoinThenContains(t *testing.T) {
	// Every joined child must land inside its parent's subtree.
	parents := []string{"Home", "Home/Rent", "Work/Travel"}
	for _, p := range parents {
		child := Join(p, "X")
		if !IsDescendantOrEqual(child, p) {
			t.Errorf("Join(%q, \"X\") = %q not contained in %q", p, child, p)
		}
	}
}
