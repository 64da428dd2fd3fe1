// Package query filters and orders customer lists for display.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/MacJediWizard/subdash/internal/models"
)

// Apply filters customers by f and sorts the result when f.Sort is set.
// The input slice is not modified.
func Apply(customers []*models.Customer, f models.CustomerFilter) []*models.Customer {
	out := Filter(customers, f)
	if f.Sort != "" {
		Sort(out, f.Sort, f.Direction)
	}
	return out
}

// Filter returns the customers matching every non-empty criterion of f.
// Search is a case-insensitive substring match on name, email or phone.
func Filter(customers []*models.Customer, f models.CustomerFilter) []*models.Customer {
	folder := cases.Fold()
	term := folder.String(strings.TrimSpace(f.Search))

	out := make([]*models.Customer, 0, len(customers))
	for _, c := range customers {
		if f.Status != "" && f.Status != models.StatusFilterAll && string(c.Status) != f.Status {
			continue
		}
		if f.PackageID != "" && f.PackageID != models.StatusFilterAll && c.PackageID != f.PackageID {
			continue
		}
		if term != "" && !matches(folder, term, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matches(folder cases.Caser, term string, c *models.Customer) bool {
	for _, field := range []string{c.Name, c.Email, c.Phone} {
		if strings.Contains(folder.String(field), term) {
			return true
		}
	}
	return false
}

// Sort orders customers in place by field. Strings compare byte-wise after
// Unicode case folding, with no locale collation, so "alice" sorts before
// "Bob" and accented letters sort after ASCII ones. Dates compare by instant. Equal elements keep their relative order in both
// directions. Unknown fields leave the slice as is.
func Sort(customers []*models.Customer, field models.SortField, dir models.SortDirection) {
	less := lessFunc(field, cases.Fold())
	if less == nil {
		return
	}
	if dir == models.SortDesc {
		asc := less
		less = func(a, b *models.Customer) bool { return asc(b, a) }
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return less(customers[i], customers[j])
	})
}

func lessFunc(field models.SortField, folder cases.Caser) func(a, b *models.Customer) bool {
	byString := func(get func(*models.Customer) string) func(a, b *models.Customer) bool {
		return func(a, b *models.Customer) bool {
			return folder.String(get(a)) < folder.String(get(b))
		}
	}

	switch field {
	case models.SortByName:
		return byString(func(c *models.Customer) string { return c.Name })
	case models.SortByEmail:
		return byString(func(c *models.Customer) string { return c.Email })
	case models.SortByStatus:
		return byString(func(c *models.Customer) string { return string(c.Status) })
	case models.SortByStartDate:
		return func(a, b *models.Customer) bool { return a.StartDate.Time().Before(b.StartDate.Time()) }
	case models.SortByEndDate:
		return func(a, b *models.Customer) bool { return a.EndDate.Time().Before(b.EndDate.Time()) }
	}
	return nil
}
