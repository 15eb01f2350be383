package domain

import (
	"sort"
	"strings"
)

// Sort orders for the admin user table.
const (
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
	SortDateAsc  = "date_asc"
	SortDateDesc = "date_desc"
)

// UserQuery filters and orders the account list.
type UserQuery struct {
	Search string // case-insensitive substring of name or email
	Role   Role   // empty = any role
	Sort   string // one of the Sort* constants; newest first when empty or unknown
}

// ApplyQuery returns a filtered, ordered copy of users.
func ApplyQuery(users []User, q UserQuery) []User {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]User, 0, len(users))
	for _, u := range users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		out = append(out, u)
	}

	switch q.Sort {
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}
