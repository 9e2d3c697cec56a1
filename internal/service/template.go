package service

import (
	"context"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

type TemplateListResult struct {
	Templates []model.Template
	Total     int
}

// TemplateService manages reusable outbound message bodies, scoped to the
// tenant rather than a single account.
type TemplateService struct {
	guard        *Guard
	templateRepo repository.TemplateRepository
}

func NewTemplateService(guard *Guard, templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{guard: guard, templateRepo: templateRepo}
}

func (s *TemplateService) Create(ctx context.Context, ident *identity.Identity, params model.CreateTemplateParams) (*model.Template, error) {
	if params.Name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if params.Body == "" {
		return nil, apperrors.MissingRequired("body")
	}

	params.TenantID = ident.TenantID
	tpl, err := s.templateRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return tpl, nil
}

func (s *TemplateService) Get(ctx context.Context, ident *identity.Identity, templateID string) (*model.Template, error) {
	return s.guard.Template(ctx, ident, templateID)
}

func (s *TemplateService) List(ctx context.Context, ident *identity.Identity, limit, offset int) (*TemplateListResult, error) {
	templates, err := s.templateRepo.FindByTenant(ctx, ident.TenantID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.templateRepo.CountByTenant(ctx, ident.TenantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &TemplateListResult{Templates: templates, Total: total}, nil
}

func (s *TemplateService) Update(ctx context.Context, ident *identity.Identity, templateID string, params model.UpdateTemplateParams) (*model.Template, error) {
	tpl, err := s.guard.Template(ctx, ident, templateID)
	if err != nil {
		return nil, err
	}

	updated, err := s.templateRepo.Update(ctx, tpl.ID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Template")
	}
	return updated, nil
}

func (s *TemplateService) Delete(ctx context.Context, ident *identity.Identity, templateID string) error {
	tpl, err := s.guard.Template(ctx, ident, templateID)
	if err != nil {
		return err
	}
	if err := s.templateRepo.Delete(ctx, tpl.ID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
