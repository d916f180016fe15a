// Package pathtree defines the materialized-path representation used to
// organize branches. A path is a slash-delimited string like "Home/Rent";
// containment is decided segment by segment, so "Home2" is never treated
// as part of the "Home" subtree.
package pathtree

import "strings"

// Separator delimits path segments.
const Separator = "/"

// Split returns the segment list of a path. Comparison is exact-byte:
// no case folding, no trimming, no collapsing of repeated separators.
func Split(path string) []string {
	return strings.Split(path, Separator)
}

// Join produces parent + "/" + child. The child is not validated here;
// callers decide whether to reject empty segments or embedded separators.
func Join(parent, child string) string {
	return parent + Separator + child
}

// Parent returns the path with its last segment removed. The second return
// is false for root paths, which have no separator.
func Parent(path string) (string, bool) {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return "", false
	}
	return path[:i], true
}

// IsDescendantOrEqual reports whether candidate lies in the subtree rooted
// at ancestor, including ancestor itself. The relation is reflexive and
// segment-aligned: "Home/Rent" is under "Home", "Home2" is not.
func IsDescendantOrEqual(candidate, ancestor string) bool {
	c := Split(candidate)
	a := Split(ancestor)
	if len(c) < len(a) {
		return false
	}
	for i := range a {
		if c[i] != a[i] {
			return false
		}
	}
	return true
}
