package website

import (
	"time"
)

type flameItem struct {
	Offset      int64
	Duration    int64
	Category    string
	Description string
	Children    []*flameItem
	End         time.Time  `json:"-"`
	Parent      *flameItem `json:"-"`
}

type perfRecord struct {
	Route     string
	Path      string
	Method    string
	Status    int
	Duration  int64
	Breakdown *flameItem
}

// Returns the most recent requests as JSON, each with its timed blocks nested
// into a flame graph. Times are in microseconds.
func Perfmon(c *RequestContext) ResponseData {
	b := c.Perf.StartBlock("PERF", "Requesting perf data")
	perfData := c.PerfCollector.GetPerfCopy()
	b.End()

	b = c.Perf.StartBlock("PERF", "Processing perf data")
	records := []perfRecord{}
	for _, item := range perfData.AllRequests {
		record := perfRecord{
			Route:    item.Route,
			Path:     item.Path,
			Method:   item.Method,
			Status:   item.Status,
			Duration: item.End.Sub(item.Start).Microseconds(),
			Breakdown: &flameItem{
				Duration: item.End.Sub(item.Start).Microseconds(),
				End:      item.End,
			},
		}

		parent := record.Breakdown
		for _, block := range item.Blocks {
			for parent.Parent != nil && block.End.After(parent.End) {
				parent = parent.Parent
			}
			flame := flameItem{
				Offset:      block.Start.Sub(item.Start).Microseconds(),
				Duration:    block.End.Sub(block.Start).Microseconds(),
				Category:    block.Category,
				Description: block.Description,
				End:         block.End,
				Parent:      parent,
			}

			parent.Children = append(parent.Children, &flame)
			parent = &flame
		}

		records = append(records, record)
	}
	b.End()

	var res ResponseData
	res.WriteJson(records, c.Perf)
	return res
}
