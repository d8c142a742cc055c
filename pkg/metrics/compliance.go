package metrics

import (
	"time"
)

// ComplianceReport aggregates how often the main agent followed
// RoutingCore/ProbabilisticRouter's recommendation, grounded on the
// join-by-request-hash analysis routing_compliance.py performs.
type ComplianceReport struct {
	TotalRecommendations int                       `json:"total_recommendations"`
	Followed             int                       `json:"followed"`
	Ignored              int                       `json:"ignored"`
	NoDirective          int                       `json:"no_directive"`
	Unknown              int                       `json:"unknown"`
	ComplianceRate       float64                   `json:"compliance_rate"`
	IgnoredExamples      []map[string]any          `json:"ignored_examples"`
	ByAgent              map[string]map[string]int `json:"by_agent"`
}

const maxIgnoredExamples = 20

// ComplianceAnalyzer joins routing_recommendation records against
// request_tracking records by request_hash to detect when the main agent
// ignored a routing directive.
type ComplianceAnalyzer struct {
	sink *Sink
}

func NewComplianceAnalyzer(sink *Sink) *ComplianceAnalyzer {
	return &ComplianceAnalyzer{sink: sink}
}

// Analyze builds a ComplianceReport over [start, end]. A recommendation
// with no matching tracking record is classified no_directive when its
// decision was DIRECT (main agent was expected to handle it itself) and
// unknown when it was ESCALATE (a directive existed but nothing shows it
// was honored or explicitly declined).
func (a *ComplianceAnalyzer) Analyze(start, end time.Time) (ComplianceReport, error) {
	recs, err := a.sink.ReadRange(RecordRoutingRecommendation, start, end)
	if err != nil {
		return ComplianceReport{}, err
	}
	tracking, err := a.sink.ReadRange(RecordRequestTracking, start, end)
	if err != nil {
		return ComplianceReport{}, err
	}

	byHash := map[string]map[string]any{}
	for _, t := range tracking {
		hash, _ := t["request_hash"].(string)
		if hash == "" {
			continue
		}
		existing, ok := byHash[hash]
		if !ok || newer(t, existing) {
			byHash[hash] = t
		}
	}

	report := ComplianceReport{ByAgent: map[string]map[string]int{}}
	for _, rec := range recs {
		report.TotalRecommendations++

		agent := "null"
		if rm, ok := rec["recommendation"].(map[string]any); ok {
			if av, ok := rm["agent"].(string); ok && av != "" {
				agent = av
			}
		}
		if _, ok := report.ByAgent[agent]; !ok {
			report.ByAgent[agent] = map[string]int{}
		}

		hash, _ := rec["request_hash"].(string)
		track, tracked := byHash[hash]

		if tracked {
			status, _ := track["compliance_status"].(string)
			switch status {
			case "followed":
				report.Followed++
				report.ByAgent[agent]["followed"]++
			case "ignored":
				report.Ignored++
				report.ByAgent[agent]["ignored"]++
				if len(report.IgnoredExamples) < maxIgnoredExamples {
					report.IgnoredExamples = append(report.IgnoredExamples, track)
				}
			case "no_directive":
				report.NoDirective++
				report.ByAgent[agent]["no_directive"]++
			default:
				report.Unknown++
				report.ByAgent[agent]["unknown"]++
			}
			continue
		}

		decision := ""
		if fa, ok := rec["full_analysis"].(map[string]any); ok {
			decision, _ = fa["decision"].(string)
		}
		if decision == "" {
			if rm, ok := rec["recommendation"].(map[string]any); ok {
				decision, _ = rm["decision"].(string)
			}
		}
		if decision == "DIRECT" || decision == "direct" {
			report.NoDirective++
			report.ByAgent[agent]["no_directive"]++
		} else {
			report.Unknown++
			report.ByAgent[agent]["unknown"]++
		}
	}

	if report.TotalRecommendations > 0 {
		report.ComplianceRate = float64(report.Followed) / float64(report.TotalRecommendations) * 100
	}
	return report, nil
}

func newer(a, b map[string]any) bool {
	as, _ := a["timestamp"].(string)
	bs, _ := b["timestamp"].(string)
	return as > bs
}
