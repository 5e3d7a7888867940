package contract

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// CompareVersions orders two definition versions. Dotted numeric versions
// ("2.0" < "10.0") compare segment by segment; anything go-version cannot
// parse falls back to plain string order, and parseable versions sort before
// unparseable ones.
func CompareVersions(a, b string) int {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c
		}
		// "1.0" and "1" compare equal; keep the order total.
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
