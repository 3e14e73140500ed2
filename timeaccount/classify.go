package timeaccount

import "strings"

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classification tags an entry. The categories overlap: time off in lieu is
// always also an absence, and a billable entry can in principle be anything.
type Classification struct {
	IsAbsence             bool `json:"is_absence"`
	IsTimeOffInLieu       bool `json:"is_time_off_in_lieu"`
	IsContinuingEducation bool `json:"is_continuing_education"`
	IsBillable            bool `json:"is_billable"`
}

// Classify tags entry by matching its project, client and task names against
// the engine's keywords. Missing names never match.
func (e *Engine) Classify(entry TimeEntry) Classification {
	project := strings.ToLower(entry.Project.Name)
	task := strings.ToLower(entry.Task.Name)
	client := ""
	if entry.Client != nil {
		client = strings.ToLower(entry.Client.Name)
	}

	toil := containsAny(task, e.rules.TimeOffInLieuKeywords)
	return Classification{
		IsAbsence: toil ||
			containsAny(project, e.rules.AbsenceProjectKeywords) ||
			containsAny(task, e.rules.AbsenceTaskKeywords),
		IsTimeOffInLieu: toil,
		IsContinuingEducation: containsAny(client, e.rules.InternalClientKeywords) &&
			containsAny(task, e.rules.CompetencyTaskKeywords),
		IsBillable: entry.Client != nil,
	}
}

// IsAbsence reports whether entry is any kind of absence.
func (e *Engine) IsAbsence(entry TimeEntry) bool { return e.Classify(entry).IsAbsence }

// IsTimeOffInLieu reports whether entry withdraws banked hours.
func (e *Engine) IsTimeOffInLieu(entry TimeEntry) bool { return e.Classify(entry).IsTimeOffInLieu }

// IsContinuingEducation reports whether entry draws on the fagtimer budget.
func (e *Engine) IsContinuingEducation(entry TimeEntry) bool {
	return e.Classify(entry).IsContinuingEducation
}

// IsBillable reports whether entry is logged against a client.
func IsBillable(entry TimeEntry) bool { return entry.Client != nil }

// keywords are already lower-cased by NewEngine.
func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
