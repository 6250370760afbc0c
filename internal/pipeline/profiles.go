// internal/pipeline/profiles.go
package pipeline

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/models"
)

// ProfileStore loads normalized user and job profiles from Postgres for
// evaluation runs.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// ActiveJobs returns every active job as a normalized profile.
func (s *ProfileStore) ActiveJobs(ctx context.Context) ([]models.NormalizedProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, requirements, instructions, languages, countries, label_types, active
		FROM jobs
		WHERE active = TRUE
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, stderrors.NewPersistenceError("load active jobs", err)
	}
	defer rows.Close()

	var out []models.NormalizedProfile
	for rows.Next() {
		var p models.NormalizedProfile
		var requirements, instructions sql.NullString
		var languages, countries, labelTypes pq.StringArray
		if err := rows.Scan(&p.ID, &p.Title, &requirements, &instructions, &languages, &countries, &labelTypes, &p.Active); err != nil {
			return nil, stderrors.NewPersistenceError("scan job profile", err)
		}
		p.Kind = models.KindJob
		p.Requirements = requirements.String
		p.Instructions = instructions.String
		p.Languages = languages
		p.Countries = countries
		p.LabelTypes = labelTypes
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewPersistenceError("iterate job profiles", err)
	}
	return out, nil
}

// Candidates returns every evaluable user as a normalized profile.
func (s *ProfileStore) Candidates(ctx context.Context) ([]models.NormalizedProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, resume, languages, countries, credentials, labeling_experience,
		       experience_years, email, phone
		FROM users
		WHERE evaluable = TRUE
		ORDER BY id`)
	if err != nil {
		return nil, stderrors.NewPersistenceError("load candidates", err)
	}
	defer rows.Close()

	var out []models.NormalizedProfile
	for rows.Next() {
		var p models.NormalizedProfile
		var title, resume, email, phone sql.NullString
		var languages, countries, credentials, labelingExperience pq.StringArray
		var years sql.NullInt64
		if err := rows.Scan(&p.ID, &title, &resume, &languages, &countries, &credentials,
			&labelingExperience, &years, &email, &phone); err != nil {
			return nil, stderrors.NewPersistenceError("scan user profile", err)
		}
		p.Kind = models.KindUser
		p.Title = title.String
		p.Resume = resume.String
		p.Languages = languages
		p.Countries = countries
		p.Credentials = credentials
		p.LabelingExperience = labelingExperience
		p.ExperienceYears = int(years.Int64)
		p.Email = email.String
		p.Phone = phone.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewPersistenceError("iterate user profiles", err)
	}
	return out, nil
}
