package service

import "github.com/sakif/storelink/internal/model"

// DayLabelLayout formats a bucket label as DD.MM.YYYY.
const DayLabelLayout = "02.01.2006"

// GroupByDate buckets links by the UTC calendar day they were saved on.
//
// links must already be ordered newest first. Consecutive links that share a
// day form one group; groups keep the order in which they first appear. The
// input is never re-sorted, so groups come out in date order rather than in
// label-string order.
func GroupByDate(links []model.Link) []model.DayGroup {
	groups := make([]model.DayGroup, 0)

	for _, link := range links {
		label := link.CreatedAt.UTC().Format(DayLabelLayout)

		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Links = append(groups[n-1].Links, link)
			continue
		}
		groups = append(groups, model.DayGroup{
			Label: label,
			Links: []model.Link{link},
		})
	}

	return groups
}
