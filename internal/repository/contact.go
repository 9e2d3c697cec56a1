package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type ContactRepository interface {
	FindContactByID(ctx context.Context, id string) (*model.Contact, error)
	FindIdentityByPhone(ctx context.Context, tenantID, phoneNumber string) (*model.ContactIdentity, error)
	FindIdentityByContactID(ctx context.Context, contactID string) (*model.ContactIdentity, error)
	CreateContact(ctx context.Context, params model.CreateContactParams) (*model.Contact, error)
	CreateIdentity(ctx context.Context, tenantID, contactID, phoneNumber string) (*model.ContactIdentity, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ContactRepository
}

type contactRepo struct {
	db sqlxDB
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) WithTx(tx *sqlx.Tx) ContactRepository {
	return &contactRepo{db: tx}
}

func (r *contactRepo) FindContactByID(ctx context.Context, id string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, `
		SELECT * FROM contacts WHERE id = $1
	`, id)
	return HandleNotFound(&contact, err)
}

func (r *contactRepo) FindIdentityByPhone(ctx context.Context, tenantID, phoneNumber string) (*model.ContactIdentity, error) {
	var identity model.ContactIdentity
	err := r.db.GetContext(ctx, &identity, `
		SELECT * FROM contact_identities
		WHERE tenant_id = $1 AND phone_number = $2
	`, tenantID, phoneNumber)
	return HandleNotFound(&identity, err)
}

func (r *contactRepo) FindIdentityByContactID(ctx context.Context, contactID string) (*model.ContactIdentity, error) {
	var identity model.ContactIdentity
	err := r.db.GetContext(ctx, &identity, `
		SELECT * FROM contact_identities
		WHERE contact_id = $1
	`, contactID)
	return HandleNotFound(&identity, err)
}

func (r *contactRepo) CreateContact(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, `
		INSERT INTO contacts (tenant_id, name)
		VALUES ($1, $2)
		RETURNING *
	`, params.TenantID, params.Name)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateIdentity inserts the phone mapping for a contact. The unique index
// on (tenant_id, phone_number) makes concurrent first-contact creation fail
// over to the winning row; callers detect that with IsUniqueViolation.
func (r *contactRepo) CreateIdentity(ctx context.Context, tenantID, contactID, phoneNumber string) (*model.ContactIdentity, error) {
	var identity model.ContactIdentity
	err := r.db.GetContext(ctx, &identity, `
		INSERT INTO contact_identities (tenant_id, contact_id, phone_number)
		VALUES ($1, $2, $3)
		RETURNING *
	`, tenantID, contactID, phoneNumber)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
