package riskcase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type corpusRepoPG struct{ pool *pgxpool.Pool }

// NewCorpusRepoPG returns a Postgres-backed corpus repository over the
// training_case table.
func NewCorpusRepoPG(pool *pgxpool.Pool) CorpusRepository { return &corpusRepoPG{pool: pool} }

func (r *corpusRepoPG) conn(ctx context.Context) queryable { return r.pool }

const caseCols = `drugs_checked, num_contraindicated, num_serious, num_significant, num_minor,
	allergy_alerts, patient_age, has_renal_impairment, has_hepatic_impairment,
	num_chronic_conditions, adverse_event, risk_score, adverse_event_probability,
	age_group, generated_at`

func (r *corpusRepoPG) scanCase(row pgx.Row) (CaseRecord, error) {
	var (
		c           CaseRecord
		drugsJSON   []byte
		allergyJSON []byte
		contra      int
		serious     int
		significant int
		minor       int
	)
	err := row.Scan(&drugsJSON, &contra, &serious, &significant, &minor,
		&allergyJSON, &c.PatientAge, &c.HasRenalImpairment, &c.HasHepaticImpairment,
		&c.NumChronicConditions, &c.AdverseEventOccurred, &c.RiskScore,
		&c.AdverseEventProbability, &c.AgeGroup, &c.GeneratedAt)
	if err != nil {
		return c, err
	}
	c.SeveritySummary = map[Severity]int{
		SeverityContraindicated: contra,
		SeveritySerious:         serious,
		SeveritySignificant:     significant,
		SeverityMinor:           minor,
	}
	if err := json.Unmarshal(drugsJSON, &c.DrugsChecked); err != nil {
		return c, fmt.Errorf("parse drugs_checked: %w", err)
	}
	if err := json.Unmarshal(allergyJSON, &c.AllergyAlerts); err != nil {
		return c, fmt.Errorf("parse allergy_alerts: %w", err)
	}
	return c, nil
}

func (r *corpusRepoPG) SaveBatch(ctx context.Context, cases []CaseRecord) error {
	for _, c := range cases {
		drugsJSON, err := json.Marshal(c.DrugsChecked)
		if err != nil {
			return fmt.Errorf("marshal drugs_checked: %w", err)
		}
		allergyJSON, err := json.Marshal(c.AllergyAlerts)
		if err != nil {
			return fmt.Errorf("marshal allergy_alerts: %w", err)
		}
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO training_case (id, drugs_checked, num_contraindicated, num_serious,
				num_significant, num_minor, allergy_alerts, patient_age,
				has_renal_impairment, has_hepatic_impairment, num_chronic_conditions,
				adverse_event, risk_score, adverse_event_probability, age_group, generated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			uuid.New(), drugsJSON,
			c.SeverityCount(SeverityContraindicated), c.SeverityCount(SeveritySerious),
			c.SeverityCount(SeveritySignificant), c.SeverityCount(SeverityMinor),
			allergyJSON, c.PatientAge, c.HasRenalImpairment, c.HasHepaticImpairment,
			c.NumChronicConditions, c.AdverseEventOccurred, c.RiskScore,
			c.AdverseEventProbability, c.AgeGroup, c.GeneratedAt)
		if err != nil {
			return fmt.Errorf("insert training case: %w", err)
		}
	}
	return nil
}

func (r *corpusRepoPG) LoadAll(ctx context.Context) ([]CaseRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+caseCols+` FROM training_case ORDER BY generated_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query training cases: %w", err)
	}
	defer rows.Close()

	var cases []CaseRecord
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training cases: %w", err)
	}
	return cases, nil
}

func (r *corpusRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM training_case`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count training cases: %w", err)
	}
	return total, nil
}
