package careteam

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Repository provides database operations for care team assignments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new care team repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert replaces a user's care team assignment
func (r *Repository) Upsert(ctx context.Context, team crisis.CareTeam) error {
	query := `
		INSERT INTO wellness.care_teams (
			user_id,
			therapist_id, therapist_email, therapist_phone,
			psychiatrist_id, psychiatrist_email, psychiatrist_phone,
			emergency_contact_id, emergency_contact_email, emergency_contact_phone,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			therapist_id = EXCLUDED.therapist_id,
			therapist_email = EXCLUDED.therapist_email,
			therapist_phone = EXCLUDED.therapist_phone,
			psychiatrist_id = EXCLUDED.psychiatrist_id,
			psychiatrist_email = EXCLUDED.psychiatrist_email,
			psychiatrist_phone = EXCLUDED.psychiatrist_phone,
			emergency_contact_id = EXCLUDED.emergency_contact_id,
			emergency_contact_email = EXCLUDED.emergency_contact_email,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone,
			updated_at = EXCLUDED.updated_at`

	therapistID, therapistEmail, therapistPhone := memberColumns(team.Therapist)
	psychiatristID, psychiatristEmail, psychiatristPhone := memberColumns(team.Psychiatrist)
	contactID, contactEmail, contactPhone := memberColumns(team.EmergencyContact)

	_, err := r.pool.Exec(ctx, query,
		team.UserID,
		therapistID, therapistEmail, therapistPhone,
		psychiatristID, psychiatristEmail, psychiatristPhone,
		contactID, contactEmail, contactPhone,
		time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert care team")
	}
	return nil
}

// Resolve returns a user's care team. A user without an assignment resolves
// to an empty team rather than an error; the escalation pipeline then logs
// the missing coverage. Implements the crisis module's resolver contract.
func (r *Repository) Resolve(ctx context.Context, userID types.ID) (crisis.CareTeam, error) {
	query := `
		SELECT
			therapist_id, therapist_email, therapist_phone,
			psychiatrist_id, psychiatrist_email, psychiatrist_phone,
			emergency_contact_id, emergency_contact_email, emergency_contact_phone
		FROM wellness.care_teams
		WHERE user_id = $1`

	var (
		therapistID, psychiatristID, contactID *types.ID
		therapistEmail, therapistPhone         *string
		psychiatristEmail, psychiatristPhone   *string
		contactEmail, contactPhone             *string
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&therapistID, &therapistEmail, &therapistPhone,
		&psychiatristID, &psychiatristEmail, &psychiatristPhone,
		&contactID, &contactEmail, &contactPhone,
	)
	if err == pgx.ErrNoRows {
		return crisis.CareTeam{UserID: userID}, nil
	}
	if err != nil {
		return crisis.CareTeam{}, errors.Wrap(err, "failed to resolve care team")
	}

	team := crisis.CareTeam{UserID: userID}
	team.Therapist = member(crisis.RoleTherapist, therapistID, therapistEmail, therapistPhone)
	team.Psychiatrist = member(crisis.RolePsychiatrist, psychiatristID, psychiatristEmail, psychiatristPhone)
	team.EmergencyContact = member(crisis.RoleEmergencyContact, contactID, contactEmail, contactPhone)

	return team, nil
}

func memberColumns(m *crisis.CareTeamMember) (*types.ID, *string, *string) {
	if m == nil {
		return nil, nil, nil
	}
	id := m.ID
	email := m.Contact.Email
	phone := m.Contact.Phone
	return &id, &email, &phone
}

func member(role string, id *types.ID, email, phone *string) *crisis.CareTeamMember {
	if id == nil {
		return nil
	}
	m := &crisis.CareTeamMember{ID: *id, Role: role}
	if email != nil {
		m.Contact.Email = *email
	}
	if phone != nil {
		m.Contact.Phone = *phone
	}
	return m
}
