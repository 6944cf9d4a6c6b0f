package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/subsidy-tracker/internal/entity"
)

const dateLayout = "2006-01-02"

// SubsidyRepository persists normalized subsidies. Upsert is idempotent on the
// url natural key: replaying the same normalized input is safe.
type SubsidyRepository interface {
	Upsert(ctx context.Context, s *entity.Subsidy) (uuid.UUID, error)
	GetByURL(ctx context.Context, url string) (*entity.Subsidy, error)
	List(ctx context.Context) ([]*entity.Subsidy, error)
}

type subsidyRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSubsidyRepository(db *sqlx.DB, logger *slog.Logger) SubsidyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &subsidyRepository{db: db, logger: logger}
}

// subsidyRow mirrors the subsidies table; array and audit columns hold JSON
// text, decimal columns hold exact decimal strings.
type subsidyRow struct {
	ID                      string         `db:"id"`
	URL                     string         `db:"url"`
	Title                   string         `db:"title"`
	Description             string         `db:"description"`
	Eligibility             string         `db:"eligibility"`
	Documents               string         `db:"documents"`
	Deadline                sql.NullString `db:"deadline"`
	Amounts                 string         `db:"amounts"`
	Program                 string         `db:"program"`
	Agency                  string         `db:"agency"`
	Region                  string         `db:"region"`
	Sector                  string         `db:"sector"`
	FundingType             string         `db:"funding_type"`
	CoFinancingRate         sql.NullString `db:"co_financing_rate"`
	ProjectDuration         string         `db:"project_duration"`
	PaymentTerms            string         `db:"payment_terms"`
	ApplicationMethod       string         `db:"application_method"`
	EvaluationCriteria      string         `db:"evaluation_criteria"`
	PreviousAcceptanceRate  sql.NullString `db:"previous_acceptance_rate"`
	PriorityGroups          string         `db:"priority_groups"`
	LegalEntityType         string         `db:"legal_entity_type"`
	FundingSource           string         `db:"funding_source"`
	ReportingRequirements   string         `db:"reporting_requirements"`
	ComplianceRequirements  string         `db:"compliance_requirements"`
	Language                string         `db:"language"`
	TechnicalSupport        string         `db:"technical_support"`
	MatchingAlgorithmScore  sql.NullString `db:"matching_algorithm_score"`
	ApplicationRequirements string         `db:"application_requirements"`
	QuestionnaireSteps      string         `db:"questionnaire_steps"`
	ExtractionStatus        string         `db:"requirements_extraction_status"`
	CoverageScore           float64        `db:"coverage_score"`
	RequiresReview          bool           `db:"requires_review"`
	AuditJSON               string         `db:"audit_json"`
	CreatedAt               string         `db:"created_at"`
	UpdatedAt               string         `db:"updated_at"`
}

func (r *subsidyRepository) Upsert(ctx context.Context, s *entity.Subsidy) (uuid.UUID, error) {
	if s.URL == "" {
		return uuid.Nil, fmt.Errorf("upsert subsidy: empty url")
	}

	row, err := toRow(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert subsidy: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO subsidies (
			id, url, title, description, eligibility, documents, deadline, amounts,
			program, agency, region, sector, funding_type, co_financing_rate,
			project_duration, payment_terms, application_method, evaluation_criteria,
			previous_acceptance_rate, priority_groups, legal_entity_type, funding_source,
			reporting_requirements, compliance_requirements, language, technical_support,
			matching_algorithm_score, application_requirements, questionnaire_steps,
			requirements_extraction_status, coverage_score, requires_review, audit_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			eligibility = excluded.eligibility,
			documents = excluded.documents,
			deadline = excluded.deadline,
			amounts = excluded.amounts,
			program = excluded.program,
			agency = excluded.agency,
			region = excluded.region,
			sector = excluded.sector,
			funding_type = excluded.funding_type,
			co_financing_rate = excluded.co_financing_rate,
			project_duration = excluded.project_duration,
			payment_terms = excluded.payment_terms,
			application_method = excluded.application_method,
			evaluation_criteria = excluded.evaluation_criteria,
			previous_acceptance_rate = excluded.previous_acceptance_rate,
			priority_groups = excluded.priority_groups,
			legal_entity_type = excluded.legal_entity_type,
			funding_source = excluded.funding_source,
			reporting_requirements = excluded.reporting_requirements,
			compliance_requirements = excluded.compliance_requirements,
			language = excluded.language,
			technical_support = excluded.technical_support,
			matching_algorithm_score = excluded.matching_algorithm_score,
			application_requirements = excluded.application_requirements,
			questionnaire_steps = excluded.questionnaire_steps,
			requirements_extraction_status = excluded.requirements_extraction_status,
			coverage_score = excluded.coverage_score,
			requires_review = excluded.requires_review,
			audit_json = excluded.audit_json,
			updated_at = excluded.updated_at
		RETURNING id`)

	var id string
	err = r.db.QueryRowxContext(ctx, query,
		row.ID, row.URL, row.Title, row.Description, row.Eligibility, row.Documents,
		row.Deadline, row.Amounts, row.Program, row.Agency, row.Region, row.Sector,
		row.FundingType, row.CoFinancingRate, row.ProjectDuration, row.PaymentTerms,
		row.ApplicationMethod, row.EvaluationCriteria, row.PreviousAcceptanceRate,
		row.PriorityGroups, row.LegalEntityType, row.FundingSource,
		row.ReportingRequirements, row.ComplianceRequirements, row.Language,
		row.TechnicalSupport, row.MatchingAlgorithmScore, row.ApplicationRequirements,
		row.QuestionnaireSteps, row.ExtractionStatus, row.CoverageScore,
		row.RequiresReview, row.AuditJSON, row.CreatedAt, row.UpdatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to upsert subsidy", "url", s.URL, "error", err)
		return uuid.Nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert subsidy: bad id %q: %w", id, err)
	}
	r.logger.Info("subsidy upserted", "url", s.URL, "id", parsed, "requires_review", s.RequiresReview)
	return parsed, nil
}

func (r *subsidyRepository) GetByURL(ctx context.Context, url string) (*entity.Subsidy, error) {
	var row subsidyRow
	query := r.db.Rebind(`SELECT * FROM subsidies WHERE url = ?`)
	if err := r.db.GetContext(ctx, &row, query, url); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		r.logger.Error("failed to load subsidy", "url", url, "error", err)
		return nil, err
	}
	return toEntity(&row)
}

func (r *subsidyRepository) List(ctx context.Context) ([]*entity.Subsidy, error) {
	var rows []subsidyRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM subsidies ORDER BY url`); err != nil {
		r.logger.Error("failed to list subsidies", "error", err)
		return nil, err
	}
	out := make([]*entity.Subsidy, 0, len(rows))
	for i := range rows {
		s, err := toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func toRow(s *entity.Subsidy) (*subsidyRow, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	amounts := make([]string, len(s.Amounts))
	for i, d := range s.Amounts {
		amounts[i] = d.String()
	}

	row := &subsidyRow{
		ID:                     uuid.NewString(),
		URL:                    s.URL,
		Title:                  s.Title,
		Description:            s.Description,
		Eligibility:            s.Eligibility,
		Program:                s.Program,
		Agency:                 s.Agency,
		FundingType:            s.FundingType,
		ProjectDuration:        s.ProjectDuration,
		PaymentTerms:           s.PaymentTerms,
		ApplicationMethod:      s.ApplicationMethod,
		EvaluationCriteria:     s.EvaluationCriteria,
		LegalEntityType:        s.LegalEntityType,
		FundingSource:          s.FundingSource,
		ReportingRequirements:  s.ReportingRequirements,
		ComplianceRequirements: s.ComplianceRequirements,
		Language:               s.Language,
		TechnicalSupport:       s.TechnicalSupport,
		ExtractionStatus:       s.ExtractionStatus,
		CoverageScore:          s.CoverageScore,
		RequiresReview:         s.RequiresReview,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if s.Deadline != nil {
		row.Deadline = sql.NullString{String: s.Deadline.Format(dateLayout), Valid: true}
	}
	row.CoFinancingRate = decString(s.CoFinancingRate)
	row.PreviousAcceptanceRate = decString(s.PreviousAcceptanceRate)
	row.MatchingAlgorithmScore = decString(s.MatchingAlgorithmScore)

	for _, col := range []struct {
		dst *string
		src any
	}{
		{&row.Documents, s.Documents},
		{&row.Amounts, amounts},
		{&row.Region, s.Region},
		{&row.Sector, s.Sector},
		{&row.PriorityGroups, s.PriorityGroups},
		{&row.ApplicationRequirements, s.ApplicationRequirements},
		{&row.QuestionnaireSteps, s.QuestionnaireSteps},
		{&row.AuditJSON, s.Audit},
	} {
		b, err := json.Marshal(col.src)
		if err != nil {
			return nil, err
		}
		*col.dst = string(b)
	}

	return row, nil
}

func toEntity(row *subsidyRow) (*entity.Subsidy, error) {
	s := &entity.Subsidy{
		URL:                    row.URL,
		Title:                  row.Title,
		Description:            row.Description,
		Eligibility:            row.Eligibility,
		Program:                row.Program,
		Agency:                 row.Agency,
		FundingType:            row.FundingType,
		ProjectDuration:        row.ProjectDuration,
		PaymentTerms:           row.PaymentTerms,
		ApplicationMethod:      row.ApplicationMethod,
		EvaluationCriteria:     row.EvaluationCriteria,
		LegalEntityType:        row.LegalEntityType,
		FundingSource:          row.FundingSource,
		ReportingRequirements:  row.ReportingRequirements,
		ComplianceRequirements: row.ComplianceRequirements,
		Language:               row.Language,
		TechnicalSupport:       row.TechnicalSupport,
		ExtractionStatus:       row.ExtractionStatus,
		CoverageScore:          row.CoverageScore,
		RequiresReview:         row.RequiresReview,
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("subsidy %s: bad id: %w", row.URL, err)
	}
	s.ID = id

	if row.Deadline.Valid {
		t, err := time.ParseInLocation(dateLayout, row.Deadline.String, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("subsidy %s: bad deadline: %w", row.URL, err)
		}
		s.Deadline = &t
	}

	var amountStrs []string
	for _, col := range []struct {
		src string
		dst any
	}{
		{row.Documents, &s.Documents},
		{row.Amounts, &amountStrs},
		{row.Region, &s.Region},
		{row.Sector, &s.Sector},
		{row.PriorityGroups, &s.PriorityGroups},
		{row.ApplicationRequirements, &s.ApplicationRequirements},
		{row.QuestionnaireSteps, &s.QuestionnaireSteps},
		{row.AuditJSON, &s.Audit},
	} {
		if err := json.Unmarshal([]byte(col.src), col.dst); err != nil {
			return nil, fmt.Errorf("subsidy %s: bad json column: %w", row.URL, err)
		}
	}
	s.Amounts = make([]decimal.Decimal, 0, len(amountStrs))
	for _, a := range amountStrs {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return nil, fmt.Errorf("subsidy %s: bad amount %q: %w", row.URL, a, err)
		}
		s.Amounts = append(s.Amounts, d)
	}

	if s.CoFinancingRate, err = decFromNull(row.CoFinancingRate); err != nil {
		return nil, fmt.Errorf("subsidy %s: %w", row.URL, err)
	}
	if s.PreviousAcceptanceRate, err = decFromNull(row.PreviousAcceptanceRate); err != nil {
		return nil, fmt.Errorf("subsidy %s: %w", row.URL, err)
	}
	if s.MatchingAlgorithmScore, err = decFromNull(row.MatchingAlgorithmScore); err != nil {
		return nil, fmt.Errorf("subsidy %s: %w", row.URL, err)
	}

	if s.CreatedAt, err = time.Parse(time.RFC3339, row.CreatedAt); err != nil {
		return nil, fmt.Errorf("subsidy %s: bad created_at: %w", row.URL, err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, row.UpdatedAt); err != nil {
		return nil, fmt.Errorf("subsidy %s: bad updated_at: %w", row.URL, err)
	}

	return s, nil
}

func decString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decFromNull(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("bad decimal %q: %w", ns.String, err)
	}
	return &d, nil
}
