package permission

import (
	"fmt"
	"time"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testClock advances by one second on every call so UpdatedAt changes are visible.
func testClock() func() time.Time {
	t := testEpoch
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestCatalog() *Catalog {
	return NewCatalog(WithClock(testClock()), WithIDGenerator(sequentialIDs("p")))
}

func mustInsert(c *Catalog, parentID, code string, sortOrder int) Permission {
	p, err := c.Insert(parentID, Fields{Code: code, Name: code, SortOrder: sortOrder, Enabled: true})
	if err != nil {
		panic(fmt.Sprintf("insert %s: %v", code, err))
	}
	return p
}

func ptr[T any](v T) *T {
	return &v
}

func codesOf(ps []Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Code
	}
	return out
}
