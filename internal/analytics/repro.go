package analytics

import (
	"fmt"
	"math"

	"github.com/irfndi/bovara-ml/internal/models"
)

// Reproductive rule thresholds, in days
const (
	ProblemDaysOpen        = 150
	ProblemCalvingInterval = 450
	OptimalIntervalMin     = 350
	OptimalIntervalMax     = 400
	OptimalDaysOpenMax     = 100
)

// Reproductive rule confidences
const (
	ProblemDaysOpenBase    = 0.75
	ProblemDaysOpenSpread  = 0.10
	ProblemIntervalBase    = 0.75
	ProblemIntervalSpread  = 0.05
	ProblemSaturationDays  = 150.0
	ReproOptimalConfidence = 0.92
	ReproNormalConfidence  = 0.70
)

// ReproInputs are the aggregates the reproductive rules read
type ReproInputs struct {
	DaysOpen         int `json:"days_open"`
	CalvingInterval  int `json:"calving_interval"`
	BreedingAttempts int `json:"breeding_attempts"`
}

// EvaluateReproductiveStatus applies the priority-ordered reproductive rule table.
// Confidence of the problem rules widens with how far past the threshold the animal is.
func EvaluateReproductiveStatus(in ReproInputs) LabelDecision {
	switch {
	case in.DaysOpen > ProblemDaysOpen:
		excess := math.Min(1, float64(in.DaysOpen-ProblemDaysOpen)/ProblemSaturationDays)
		return LabelDecision{
			Label:       models.LabelReproProblem,
			Confidence:  ProblemDaysOpenBase + ProblemDaysOpenSpread*excess,
			Explanation: fmt.Sprintf("%d days open exceeds %d", in.DaysOpen, ProblemDaysOpen),
		}
	case in.CalvingInterval > ProblemCalvingInterval:
		excess := math.Min(1, float64(in.CalvingInterval-ProblemCalvingInterval)/ProblemSaturationDays)
		return LabelDecision{
			Label:       models.LabelReproProblem,
			Confidence:  ProblemIntervalBase + ProblemIntervalSpread*excess,
			Explanation: fmt.Sprintf("calving interval of %d days exceeds %d", in.CalvingInterval, ProblemCalvingInterval),
		}
	case in.CalvingInterval >= OptimalIntervalMin && in.CalvingInterval <= OptimalIntervalMax && in.DaysOpen <= OptimalDaysOpenMax:
		return LabelDecision{
			Label:       models.LabelReproOptimal,
			Confidence:  ReproOptimalConfidence,
			Explanation: fmt.Sprintf("calving interval of %d days with %d days open", in.CalvingInterval, in.DaysOpen),
		}
	default:
		return LabelDecision{
			Label:       models.LabelReproNormal,
			Confidence:  ReproNormalConfidence,
			Explanation: "reproductive indicators within normal range",
		}
	}
}

var labelSeverity = map[models.ClusterLabel]models.Severity{
	models.LabelProductiveA:  models.SeverityInfo,
	models.LabelProductiveB:  models.SeverityInfo,
	models.LabelProductiveC:  models.SeverityWarning,
	models.LabelReproOptimal: models.SeverityInfo,
	models.LabelReproProblem: models.SeverityWarning,
	models.LabelReproNormal:  models.SeverityInfo,
	models.LabelPending:      models.SeverityInfo,
}

// SeverityFor returns the severity of a final label. Unknown labels are info.
func SeverityFor(label models.ClusterLabel) models.Severity {
	if s, ok := labelSeverity[label]; ok {
		return s
	}
	return models.SeverityInfo
}

// ResolveAssignment applies the reproductive override: a REPRO_PROBLEMA evaluation
// replaces the productivity result, anything else leaves it standing.
func ResolveAssignment(productivity models.ClusterAssignment, repro LabelDecision) models.ClusterAssignment {
	out := productivity
	if repro.Label == models.LabelReproProblem {
		out = models.ClusterAssignment{
			Label:       repro.Label,
			Confidence:  repro.Confidence,
			Explanation: repro.Explanation,
			ClusterID:   productivity.ClusterID,
			Silhouette:  productivity.Silhouette,
		}
	}
	out.Confidence = models.ClampConfidence(out.Confidence)
	out.Severity = SeverityFor(out.Label)
	return out
}

// PendingAssignment builds a degraded PENDING result
func PendingAssignment(confidence float64, explanation string, reason models.DegradedReason) models.ClusterAssignment {
	return models.ClusterAssignment{
		Label:       models.LabelPending,
		Confidence:  models.ClampConfidence(confidence),
		Explanation: explanation,
		Severity:    SeverityFor(models.LabelPending),
		Reason:      reason,
	}
}
