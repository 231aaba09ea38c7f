package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/casecraft/internal/model"
)

// PhoneCaseRepo reads customer-configured phone cases. This core never
// writes the catalog; creation belongs to the upload surface.
type PhoneCaseRepo struct{ DB *sql.DB }

func NewPhoneCaseRepo(db *sql.DB) *PhoneCaseRepo { return &PhoneCaseRepo{DB: db} }

// GetByID fetches a phone case. Returns ErrNotFound when absent.
func (r *PhoneCaseRepo) GetByID(ctx context.Context, id uint64) (model.PhoneCase, error) {
	var p model.PhoneCase
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,color,finish,material,case_model,price_cents,created_at FROM phone_cases WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Color, &p.Finish, &p.Material, &p.CaseModel, &p.PriceCents, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return model.PhoneCase{}, ErrNotFound
	}
	if err != nil {
		return model.PhoneCase{}, err
	}
	return p, nil
}
