package board

import (
	"slices"
	"sort"

	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

const (
	fieldGig      = "gig"
	fieldStatus   = "status"
	fieldPriority = "priority"
	noGig         = "(no gig)"
)

// GroupedSummary holds jobs grouped by a field.
type GroupedSummary struct {
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Statuses []StatusCount `json:"statuses"`
	Progress int           `json:"progress"`
	Total    int           `json:"total"`
}

// GroupBy groups jobs by gig, status or priority and summarizes each group.
// gigs supplies titles and ordering for the gig field.
func GroupBy(jobs []job.Job, gigs []gig.Gig, field string) GroupedSummary {
	groups := make(map[string][]job.Job)
	for _, j := range jobs {
		key := groupKey(j, field, gigs)
		groups[key] = append(groups[key], j)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sortGroupKeys(keys, field, gigs)

	result := GroupedSummary{Groups: make([]GroupSummary, 0, len(keys))}
	for _, key := range keys {
		members := groups[key]
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Label:    groupLabel(key, field, gigs),
			Statuses: StatusHistogram(members),
			Progress: Progress(members),
			Total:    len(members),
		})
	}
	return result
}

func groupKey(j job.Job, field string, gigs []gig.Gig) string {
	switch field {
	case fieldStatus:
		return j.Status
	case fieldPriority:
		return j.Priority
	default:
		if gigIndex(gigs, j.GigID) < 0 {
			return noGig
		}
		return j.GigID
	}
}

func groupLabel(key, field string, gigs []gig.Gig) string {
	if field != fieldGig && field != "" {
		return key
	}
	if i := gigIndex(gigs, key); i >= 0 {
		return gigs[i].Title
	}
	return key
}

func sortGroupKeys(keys []string, field string, gigs []gig.Gig) {
	var rank func(string) int
	switch field {
	case fieldStatus:
		rank = func(k string) int { return slices.Index(job.Statuses, k) }
	case fieldPriority:
		rank = func(k string) int { return -slices.Index(job.Priorities, k) }
	default:
		rank = func(k string) int {
			if i := gigIndex(gigs, k); i >= 0 {
				return i
			}
			return len(gigs)
		}
	}
	sort.SliceStable(keys, func(a, b int) bool {
		ra, rb := rank(keys[a]), rank(keys[b])
		if ra != rb {
			return ra < rb
		}
		return keys[a] < keys[b]
	})
}

func gigIndex(gigs []gig.Gig, id string) int {
	return slices.IndexFunc(gigs, func(g gig.Gig) bool { return g.ID == id })
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldGig, fieldStatus, fieldPriority}
}
