package store

import (
	"log/slog"
	"strings"
	"unicode"
)

// entityTables maps logical entity names to their physical tables.
var entityTables = map[string]string{
	// Challenges
	"Challenge":              "challenges",
	"ChallengeProposal":      "challenge_proposals",
	"ChallengeComment":       "challenge_comments",
	"ChallengeAttachment":    "challenge_attachments",
	"ChallengeActivity":      "challenge_activities",
	"ChallengeSolutionMatch": "challenge_solution_matches",
	"ChallengeInterest":      "challenge_interests",
	"ChallengeTag":           "challenge_tags",
	"ChallengeKPI":           "challenge_kpis",

	// Pilots
	"Pilot":               "pilots",
	"PilotKPI":            "pilot_kpis",
	"PilotKPIMeasurement": "pilot_kpi_measurements",
	"PilotExpense":        "pilot_expenses",
	"PilotIssue":          "pilot_issues",
	"PilotDocument":       "pilot_documents",
	"PilotCollaboration":  "pilot_collaborations",
	"PilotApproval":       "pilot_approvals",
	"PilotMilestone":      "pilot_milestones",
	"PilotExitPlan":       "pilot_exit_plans",
	"PilotRisk":           "pilot_risks",

	// Geography and organizations
	"Municipality":           "municipalities",
	"MunicipalityBudget":     "municipality_budgets",
	"City":                   "cities",
	"Region":                 "regions",
	"Organization":           "organizations",
	"OrganizationReputation": "organization_reputations",
	"OrganizationMember":     "organization_members",
	"StartupProfile":         "startup_profiles",
	"ProviderProfile":        "provider_profiles",
	"Partnership":            "partnerships",

	// Solutions
	"Solution":         "solutions",
	"SolutionReview":   "solution_reviews",
	"SolutionCase":     "solution_cases",
	"SolutionInterest": "solution_interests",
	"SolutionVersion":  "solution_versions",

	// Research and development
	"RDProject":          "rd_projects",
	"RDCall":             "rd_calls",
	"RDProposal":         "rd_proposals",
	"RDProjectMilestone": "rd_project_milestones",
	"RDOutput":           "rd_outputs",
	"ResearchPartner":    "research_partners",

	// Programs and events
	"Program":               "programs",
	"ProgramApplication":    "program_applications",
	"ProgramCohort":         "program_cohorts",
	"ProgramMentor":         "program_mentors",
	"Event":                 "events",
	"EventRegistration":     "event_registrations",
	"EventSpeaker":          "event_speakers",
	"MatchmakerApplication": "matchmaker_applications",
	"MatchmakerEvaluation":  "matchmaker_evaluations",

	// Living labs and sandboxes
	"LivingLab":           "living_labs",
	"LivingLabBooking":    "living_lab_bookings",
	"LivingLabResource":   "living_lab_resources",
	"LivingLabEquipment":  "living_lab_equipment",
	"Sandbox":             "sandboxes",
	"SandboxApplication":  "sandbox_applications",
	"SandboxIncident":     "sandbox_incidents",
	"RegulatoryExemption": "regulatory_exemptions",

	// Experts and evaluation
	"ExpertProfile":    "expert_profiles",
	"ExpertAssignment": "expert_assignments",
	"ExpertEvaluation": "expert_evaluations",
	"ExpertPanel":      "expert_panels",
	"EvaluationRubric": "evaluation_rubrics",

	// Strategy and policy
	"StrategicPlan":        "strategic_plans",
	"StrategicObjective":   "strategic_objectives",
	"KPIReference":         "kpi_references",
	"Policy":               "policies",
	"PolicyRecommendation": "policy_recommendations",
	"PolicyComment":        "policy_comments",
	"Trend":                "trends",
	"GlobalTrend":          "global_trends",
	"MIIResult":            "mii_results",
	"LessonLearned":        "lessons_learned",
	"CaseStudy":            "case_studies",

	// Citizens
	"CitizenIdea":     "citizen_ideas",
	"CitizenVote":     "citizen_votes",
	"CitizenFeedback": "citizen_feedback",
	"CitizenProfile":  "citizen_profiles",

	// Services
	"Service":            "services",
	"ServicePerformance": "service_performance",

	// Users and teams
	"UserProfile":     "user_profiles",
	"UserFollow":      "follows",
	"UserActivity":    "user_activities",
	"UserAchievement": "user_achievements",
	"UserInvitation":  "user_invitations",
	"Achievement":     "achievements",
	"Role":            "roles",
	"Team":            "teams",
	"TeamMember":      "team_members",
	"Delegation":      "delegations",

	// Workflow and communication
	"Task":              "tasks",
	"ApprovalRequest":   "approval_requests",
	"Comment":           "comments",
	"Notification":      "notifications",
	"Message":           "messages",
	"Bookmark":          "bookmarks",
	"Tag":               "tags",
	"Sector":            "sectors",
	"Subsector":         "subsectors",
	"Budget":            "budgets",
	"Contract":          "contracts",
	"KnowledgeDocument": "knowledge_documents",
	"Announcement":      "announcements",
	"Survey":            "surveys",
	"SurveyResponse":    "survey_responses",

	// System
	"AuditLog":      "audit_logs",
	"EmailTemplate": "email_templates",
	"EmailLog":      "email_logs",
	"AIUsageLog":    "ai_usage_logs",
	"SystemSetting": "system_settings",
}

// Resolver maps logical entity names to physical table names.
type Resolver struct {
	overrides map[string]string
	logger    *slog.Logger
}

// NewResolver creates a resolver. Overrides are consulted before the built-in
// mapping; a nil logger uses slog.Default().
func NewResolver(logger *slog.Logger, overrides map[string]string) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	ov := make(map[string]string, len(overrides))
	for k, v := range overrides {
		ov[k] = v
	}
	return &Resolver{overrides: ov, logger: logger}
}

// Resolve returns the physical table for a logical entity name. Unknown
// names are inferred (snake_case plus "s") and logged as a warning; the
// inferred table may not exist in the store.
func (r *Resolver) Resolve(entity string) string {
	if t, ok := r.overrides[entity]; ok {
		return t
	}
	if t, ok := entityTables[entity]; ok {
		return t
	}
	t := InferTableName(entity)
	r.logger.Warn("no table mapping for entity, inferring name", "entity", entity, "table", t)
	return t
}

// Known reports whether entity has an explicit mapping.
func (r *Resolver) Known(entity string) bool {
	if _, ok := r.overrides[entity]; ok {
		return true
	}
	_, ok := entityTables[entity]
	return ok
}

// InferTableName derives a table name from an entity name: an underscore
// before every capital, lower-cased, without a leading underscore, plus "s".
func InferTableName(entity string) string {
	var b strings.Builder
	b.Grow(len(entity) + 4)
	for _, r := range entity {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimPrefix(b.String(), "_") + "s"
}
