package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"employee-management/internal/models"
)

// PageSize is the number of rows on one list page.
const PageSize = 10

type SortKey string

const (
	SortByName        SortKey = "name"
	SortByEmail       SortKey = "email"
	SortByCreatedDate SortKey = "created_date"
	SortByID          SortKey = "_id"
)

var SortKeys = []SortKey{SortByName, SortByEmail, SortByCreatedDate, SortByID}

func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// text is the wire representation of the key for e. Dates compare as their
// ISO text, which orders the same as the instants for UTC fixed-width values.
func (k SortKey) text(e models.Employee) string {
	switch k {
	case SortByEmail:
		return e.Email
	case SortByCreatedDate:
		return e.CreatedDateText()
	case SortByID:
		return e.ID
	default:
		return e.Name
	}
}

// Filter keeps records whose name, email or created date contains term,
// ignoring case. The term is matched as given, spaces included; only an
// empty term keeps everything.
func Filter(records []models.Employee, term string) []models.Employee {
	term = strings.ToLower(term)
	out := make([]models.Employee, 0, len(records))
	for _, e := range records {
		if term == "" ||
			strings.Contains(strings.ToLower(e.Name), term) ||
			strings.Contains(strings.ToLower(e.Email), term) ||
			strings.Contains(strings.ToLower(e.CreatedDateText()), term) {
			out = append(out, e)
		}
	}
	return out
}

// Sort returns a copy of records in ascending order of key. Equal keys keep
// their input order.
func Sort(records []models.Employee, key SortKey) []models.Employee {
	out := append([]models.Employee(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return key.text(out[i]) < key.text(out[j])
	})
	return out
}

func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns the 1-based page of records. Pages out of range are empty.
func Paginate(records []models.Employee, page, size int) []models.Employee {
	if page < 1 || size <= 0 {
		return []models.Employee{}
	}
	start := (page - 1) * size
	if start >= len(records) {
		return []models.Employee{}
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

type View struct {
	Items     []models.Employee
	Page      int
	PageCount int
	Total     int
	HasPrev   bool
	HasNext   bool
}

// Compute derives the visible page from the full record list. It is a pure
// function; callers recompute it whenever any input changes.
func Compute(records []models.Employee, term string, key SortKey, page int) View {
	matched := Sort(Filter(records, term), key)
	pages := PageCount(len(matched), PageSize)

	return View{
		Items:     Paginate(matched, page, PageSize),
		Page:      page,
		PageCount: pages,
		Total:     len(matched),
		HasPrev:   page > 1,
		HasNext:   page < pages,
	}
}
