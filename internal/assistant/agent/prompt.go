package agent

import (
	"encoding/json"
	"time"
)

// promptEntityLimit bounds how many projects and prospects are embedded verbatim.
const promptEntityLimit = 10

type promptData struct {
	Today         string
	Statistics    string
	ProjectCount  int
	Projects      string
	ProspectCount int
	Prospects     string
	Deadlines     string
}

// systemPrompt renders the system instruction. A nil snapshot yields empty sections.
func systemPrompt(loc *Locale, snap *Snapshot, now time.Time) string {
	if snap == nil {
		snap = &Snapshot{
			Projects:  []ProjectView{},
			Prospects: []ProspectView{},
			Deadlines: []DeadlineView{},
			Statistics: Statistics{
				Projects:  StatusStats{ByStatus: map[string]int{}},
				Prospects: StatusStats{ByStatus: map[string]int{}},
			},
		}
	}

	return loc.prompt(promptData{
		Today:         now.Format(time.DateOnly),
		Statistics:    toJSON(snap.Statistics),
		ProjectCount:  len(snap.Projects),
		Projects:      toJSON(head(snap.Projects, promptEntityLimit)),
		ProspectCount: len(snap.Prospects),
		Prospects:     toJSON(head(snap.Prospects, promptEntityLimit)),
		Deadlines:     toJSON(snap.Deadlines),
	})
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}
