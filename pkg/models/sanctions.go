package models

import (
	"time"
)

// MatchStatus classifies the outcome of screening a name.
type MatchStatus string

const (
	MatchStatusPending       MatchStatus = "PENDING"
	MatchStatusFalsePositive MatchStatus = "FALSE_POSITIVE"
	MatchStatusTrueMatch     MatchStatus = "TRUE_MATCH"
	MatchStatusNoMatch       MatchStatus = "NO_MATCH"
	MatchStatusError         MatchStatus = "ERROR"
)

// EntityType values carried by sanction records.
const (
	EntityTypeIndividual = "Individual"
	EntityTypeCompany    = "Company"
	EntityTypeVessel     = "Vessel"
	EntityTypeAircraft   = "Aircraft"
	EntityTypeOther      = "Other"
)

// SanctionRecord is the canonical representation of one sanctioned
// person/company/vessel from one source list. Owned and mutated by the
// ingestion pipeline; the screening engine only reads snapshots of it.
type SanctionRecord struct {
	ID             string `json:"id" gorm:"primaryKey"`       // stable unique id, e.g. "EU-123"
	ListType       string `json:"list_type" gorm:"index"`     // EU, UK, US_SDN, US_NON_SDN, UN
	OriginalName   string `json:"original_name"`
	NormalizedName string `json:"normalized_name" gorm:"index"`
	AliasNames     string `json:"alias_names" gorm:"type:text"` // JSON array, or pipe/semicolon separated

	Program     string `json:"program"`
	Nationality string `json:"nationality"`
	BirthDate   string `json:"birth_date"`
	EntityType  string `json:"entity_type"` // Individual, Company, Vessel, Aircraft, Other
	Gender      string `json:"gender"`
	URL         string `json:"url"`

	UNID     string `json:"un_id"`
	Remark   string `json:"remark" gorm:"type:text"`
	Function string `json:"function"`

	IsActive    bool      `json:"is_active" gorm:"default:true"`
	LastUpdated time.Time `json:"last_updated"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// MatchDecision is a persisted human verdict for a normalized search term.
// Decisions are never deleted, only revoked and superseded; at most one
// non-revoked decision exists per term.
type MatchDecision struct {
	ID                   uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	SearchTermNormalized string      `json:"search_term_normalized" gorm:"index"`
	SanctionID           string      `json:"sanction_id" gorm:"index"`
	Decision             MatchStatus `json:"decision"`
	Comment              string      `json:"comment"`
	CreatedAt            time.Time   `json:"created_at"`
	UserID               string      `json:"user_id"`
	Revoked              bool        `json:"revoked" gorm:"default:false"`
}

// DecisionAudit records every create/revoke action on a decision.
type DecisionAudit struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DecisionID uint      `json:"decision_id" gorm:"index"`
	Action     string    `json:"action"` // create, revoke
	OldValue   string    `json:"old_value" gorm:"type:text"`
	NewValue   string    `json:"new_value" gorm:"type:text"`
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
	Comment    string    `json:"comment"`
}

// SearchLog records one single-screening call for compliance reporting.
type SearchLog struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `json:"timestamp"`
	SearchTerm  string    `json:"search_term" gorm:"not null"`
	SearchType  string    `json:"search_type" gorm:"not null"` // COMPANY or INDIVIDUAL
	ResultCount int       `json:"result_count" gorm:"not null"`
	UserID      string    `json:"user_id"`
	CompanyID   string    `json:"company_id"`
}

// ScreeningBatch tracks one uploaded list of names.
type ScreeningBatch struct {
	ID           string    `json:"id" gorm:"primaryKey"` // uuid
	Filename     string    `json:"filename"`
	UploadedAt   time.Time `json:"uploaded_at"`
	TotalRecords int       `json:"total_records"`
	FlaggedCount int       `json:"flagged_count"`
	Status       string    `json:"status"` // PROCESSING, COMPLETED, CANCELLED, FAILED
}

// ScreeningResult is the per-input outcome within a batch.
type ScreeningResult struct {
	ID          uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchID     string      `json:"batch_id" gorm:"index"`
	InputName   string      `json:"input_name"`
	MatchStatus MatchStatus `json:"match_status" gorm:"default:PENDING"`
	Error       string      `json:"error,omitempty"`

	Matches []ScreeningMatch `json:"matches" gorm:"foreignKey:ScreeningResultID"`
}

// ScreeningMatch is one category-reduced candidate for a batch input.
type ScreeningMatch struct {
	ID                uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	ScreeningResultID uint    `json:"screening_result_id" gorm:"index"`
	SanctionID        string  `json:"sanction_id" gorm:"index"`
	MatchScore        float64 `json:"match_score"`
	MatchName         string  `json:"match_name"` // the name/alias that matched
}

// ImportLog is written by the ingestion pipeline after each list refresh.
// Modeled here so the persistence gateway contract is complete; the
// screening service itself never writes it.
type ImportLog struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"` // EU, UK, US_SDN, US_NON_SDN
	RecordsAdded   int       `json:"records_added"`
	RecordsUpdated int       `json:"records_updated"`
	RecordsRemoved int       `json:"records_removed"`
	Status         string    `json:"status"` // SUCCESS, FAILED, IN_PROGRESS
	ErrorMessage   string    `json:"error_message" gorm:"type:text"`
}
