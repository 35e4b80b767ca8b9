package workflow

import (
	"net/http"
	"strconv"
	"strings"

	"erpbot/chatbot-backend/internal"
)

// Filter narrows a workflow listing. All set fields must match; Tags matches when any tag is shared.
type Filter struct {
	IsActive *bool
	Tags     []string
	Category string
}

func (f Filter) Matches(w Workflow) bool {
	if f.IsActive != nil && w.IsActive != *f.IsActive {
		return false
	}

	if len(f.Tags) > 0 && !sharesTag(w.Tags, f.Tags) {
		return false
	}

	if f.Category != "" && (w.Metadata == nil || w.Metadata.Category != f.Category) {
		return false
	}

	return true
}

func sharesTag(have, want []string) bool {
	for _, h := range have {
		for _, t := range want {
			if h == t {
				return true
			}
		}
	}
	return false
}

// ParseFilterRequest reads the active, tags and category query parameters.
// tags is a comma separated list.
func ParseFilterRequest(r *http.Request) (Filter, error) {
	query := r.URL.Query()
	filter := Filter{}

	if activeStr := query.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return Filter{}, internal.ErrInvalidActiveParameter
		}
		filter.IsActive = &active
	}

	if tagsStr := query.Get("tags"); tagsStr != "" {
		for _, tag := range strings.Split(tagsStr, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	filter.Category = query.Get("category")

	return filter, nil
}
