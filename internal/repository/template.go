package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type TemplateRepository interface {
	FindByID(ctx context.Context, id string) (*model.Template, error)
	FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Template, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	Create(ctx context.Context, params model.CreateTemplateParams) (*model.Template, error)
	Update(ctx context.Context, id string, params model.UpdateTemplateParams) (*model.Template, error)
	Delete(ctx context.Context, id string) error
}

type templateRepo struct {
	db sqlxDB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	var tpl model.Template
	err := r.db.GetContext(ctx, &tpl, `
		SELECT * FROM templates WHERE id = $1
	`, id)
	return HandleNotFound(&tpl, err)
}

func (r *templateRepo) FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Template, error) {
	var tpls []model.Template
	err := r.db.SelectContext(ctx, &tpls, `
		SELECT * FROM templates
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	return tpls, err
}

func (r *templateRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM templates WHERE tenant_id = $1
	`, tenantID)
	return count, err
}

func (r *templateRepo) Create(ctx context.Context, params model.CreateTemplateParams) (*model.Template, error) {
	var tpl model.Template
	err := r.db.GetContext(ctx, &tpl, `
		INSERT INTO templates (tenant_id, name, body, variables, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.TenantID, params.Name, params.Body, pq.Array(params.Variables), params.Category)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepo) Update(ctx context.Context, id string, params model.UpdateTemplateParams) (*model.Template, error) {
	var tpl model.Template
	err := r.db.GetContext(ctx, &tpl, `
		UPDATE templates SET
			name = COALESCE($2, name),
			body = COALESCE($3, body),
			variables = COALESCE($4, variables),
			category = COALESCE($5, category),
			is_active = COALESCE($6, is_active),
			updated_at = $7
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Body, pq.Array(params.Variables), params.Category,
		params.IsActive, time.Now())
	return HandleNotFound(&tpl, err)
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	return err
}
