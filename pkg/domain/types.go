// Package domain holds the serializable types shared across the control
// plane's components: WorkItem and its temporal extension, the routing
// result/decision shapes, and the enum-as-tag string types the teacher's
// source language expressed as enums or dynamic-dispatch tags (see the
// design notes on WorkStatus, ComplexityLevel, RoutingConfidence,
// WorkTiming). Every tag serializes to the literal string form the
// persisted JSON documents expect, for format compatibility.
package domain

import "time"

// WorkStatus is a WorkItem's lifecycle stage.
type WorkStatus string

const (
	StatusQueued    WorkStatus = "QUEUED"
	StatusActive    WorkStatus = "ACTIVE"
	StatusBlocked   WorkStatus = "BLOCKED"
	StatusCompleted WorkStatus = "COMPLETED"
	StatusFailed    WorkStatus = "FAILED"
	StatusScheduled WorkStatus = "SCHEDULED"
)

// WorkItem is the unit the WorkCoordinator schedules. Priority is 1-10
// (higher is more urgent); EstimatedComplexity is 1-5.
type WorkItem struct {
	ID                  string     `json:"id"`
	Description         string     `json:"description"`
	Priority            int        `json:"priority"`
	EstimatedComplexity int        `json:"estimated_complexity"`
	Dependencies        []string   `json:"dependencies"`
	Status              WorkStatus `json:"status"`
	Agent               string     `json:"agent,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	Error               string     `json:"error,omitempty"`
}

// WorkTiming classifies whether a work item needs the user present.
type WorkTiming string

const (
	TimingSync   WorkTiming = "SYNC"
	TimingAsync  WorkTiming = "ASYNC"
	TimingEither WorkTiming = "EITHER"
)

// TimedWorkItem extends WorkItem with the fields the temporal scheduler
// needs: timing class, a quota/duration estimate, and optional
// deadline/scheduling/execution-context fields.
type TimedWorkItem struct {
	WorkItem
	Timing                    WorkTiming `json:"timing"`
	EstimatedQuota            int        `json:"estimated_quota"`
	EstimatedDurationMinutes  int        `json:"estimated_duration_minutes"`
	Deadline                  *time.Time `json:"deadline,omitempty"`
	ScheduledFor              *time.Time `json:"scheduled_for,omitempty"`
	ProjectPath               string     `json:"project_path,omitempty"`
	ProjectName               string     `json:"project_name,omitempty"`
}

// RoutingDecisionKind is the mechanical pre-router's outcome (C4).
type RoutingDecisionKind string

const (
	Direct    RoutingDecisionKind = "DIRECT"
	Escalate  RoutingDecisionKind = "ESCALATE"
)

// RoutingResult is RoutingCore's return value.
type RoutingResult struct {
	Decision   RoutingDecisionKind `json:"decision"`
	Agent      string              `json:"agent,omitempty"`
	Reason     string              `json:"reason"`
	Confidence float64             `json:"confidence"`
}

// RoutingConfidence is the probabilistic router's confidence band.
type RoutingConfidence string

const (
	ConfidenceHigh   RoutingConfidence = "HIGH"
	ConfidenceMedium RoutingConfidence = "MEDIUM"
	ConfidenceLow    RoutingConfidence = "LOW"
)

// RoutingDecision is ProbabilisticRouter's return value (C5).
type RoutingDecision struct {
	RecommendedModel string            `json:"recommended_model"`
	Confidence       RoutingConfidence `json:"confidence"`
	FallbackChain    []string          `json:"fallback_chain"`
	ValidationCriteria []string        `json:"validation_criteria"`
	Reasoning        string            `json:"reasoning"`
}

// ComplexityLevel is the adaptive orchestrator's classification result.
type ComplexityLevel string

const (
	ComplexitySimple   ComplexityLevel = "SIMPLE"
	ComplexityModerate ComplexityLevel = "MODERATE"
	ComplexityComplex  ComplexityLevel = "COMPLEX"
)

// OrchestrationMode is the pipeline AdaptiveOrchestrator will run.
type OrchestrationMode string

const (
	ModeSingleStage         OrchestrationMode = "SINGLE_STAGE"
	ModeSingleStageMonitored OrchestrationMode = "SINGLE_STAGE_MONITORED"
	ModeMultiStage           OrchestrationMode = "MULTI_STAGE"
)

// ComplexityAnalysis is ComplexityClassifier's return value (C6).
type ComplexityAnalysis struct {
	Level          ComplexityLevel   `json:"level"`
	Confidence     float64           `json:"confidence"`
	Indicators     []string          `json:"indicators"`
	Recommendation OrchestrationMode `json:"recommendation"`
}

// QuotaState is the per-day quota document (C2).
type QuotaState struct {
	Date        string         `json:"date"`
	Used        map[string]int `json:"used"`
	LastUpdated time.Time      `json:"last_updated"`
}
