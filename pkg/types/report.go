package types

// ReportResults groups the results produced for one scanned source
// (a file, a table, a schema).
type ReportResults struct {
	Source  string         `json:"source"`
	Results []*MatchResult `json:"results"`
}

// Report is an ordered collection of per-source results.
type Report struct {
	Results []ReportResults `json:"report_results"`
}

// NewReport creates a report with a single source entry.
func NewReport(source string, results []*MatchResult) Report {
	if results == nil {
		results = []*MatchResult{}
	}
	return Report{Results: []ReportResults{{Source: source, Results: results}}}
}

// Append concatenates other after the receiver's entries.
func (r *Report) Append(other Report) {
	r.Results = append(r.Results, other.Results...)
}

// Violations counts (result, rule) pairs across all sources.
func (r Report) Violations() int {
	n := 0
	for _, rr := range r.Results {
		for _, res := range rr.Results {
			n += len(res.Rules)
		}
	}
	return n
}

// Empty reports whether no source produced a result.
func (r Report) Empty() bool {
	for _, rr := range r.Results {
		if len(rr.Results) > 0 {
			return false
		}
	}
	return true
}
