// Package ehr syncs care team assignments from a legacy clinic EHR system
// into the platform. The clinic system exposes provider assignments in a
// SQL Server database; the adapter polls for rows changed since the last
// sweep and upserts them through the care team store.
package ehr

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/config"
	"github.com/mindhaven/platform/internal/shared/types"
)

// CareTeamSink receives synced assignments
type CareTeamSink interface {
	Upsert(ctx context.Context, team crisis.CareTeam) error
}

// Adapter polls the clinic EHR for care team assignments
type Adapter struct {
	db     *sql.DB
	config config.EHRConfig
	sink   CareTeamSink

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a new EHR adapter
func New(cfg config.EHRConfig, sink CareTeamSink) *Adapter {
	return &Adapter{config: cfg, sink: sink}
}

// Start opens the database connection and starts the polling loop
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)
	if a.config.SSLMode != "disable" {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	return nil
}

// Stop stops the polling loop and closes the connection
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}
	return a.db.PingContext(ctx)
}

func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			if err := a.syncAssignments(ctx, lastPoll); err != nil {
				slog.Error("failed to sync care team assignments", "error", err)
			}
		}
	}
}

// syncAssignments upserts assignments modified since the last sweep
func (a *Adapter) syncAssignments(ctx context.Context, since time.Time) error {
	query := `
		SELECT
			PatientID,
			TherapistID, TherapistEmail, TherapistPhone,
			PsychiatristID, PsychiatristEmail, PsychiatristPhone,
			EmergencyContactID, EmergencyContactEmail, EmergencyContactPhone
		FROM dbo.ProviderAssignments
		WHERE LastModified >= @since`

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return fmt.Errorf("failed to query provider assignments: %w", err)
	}
	defer rows.Close()

	synced := 0
	for rows.Next() {
		var (
			patientID                            string
			therapistID, psychiatristID          sql.NullString
			contactID                            sql.NullString
			therapistEmail, therapistPhone       sql.NullString
			psychiatristEmail, psychiatristPhone sql.NullString
			contactEmail, contactPhone           sql.NullString
		)

		if err := rows.Scan(
			&patientID,
			&therapistID, &therapistEmail, &therapistPhone,
			&psychiatristID, &psychiatristEmail, &psychiatristPhone,
			&contactID, &contactEmail, &contactPhone,
		); err != nil {
			return fmt.Errorf("failed to scan provider assignment: %w", err)
		}

		userID, err := types.ParseID(patientID)
		if err != nil {
			slog.Warn("skipping assignment with invalid patient ID",
				"patient_id", patientID, "error", err)
			continue
		}

		team := crisis.CareTeam{
			UserID:           userID,
			Therapist:        syncedMember(crisis.RoleTherapist, therapistID, therapistEmail, therapistPhone),
			Psychiatrist:     syncedMember(crisis.RolePsychiatrist, psychiatristID, psychiatristEmail, psychiatristPhone),
			EmergencyContact: syncedMember(crisis.RoleEmergencyContact, contactID, contactEmail, contactPhone),
		}

		if err := a.sink.Upsert(ctx, team); err != nil {
			slog.Error("failed to upsert synced care team",
				"user_id", userID.String(), "error", err)
			continue
		}
		synced++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read provider assignments: %w", err)
	}

	if synced > 0 {
		slog.Info("synced care team assignments from clinic system", "count", synced)
	}
	return nil
}

func syncedMember(role string, id, email, phone sql.NullString) *crisis.CareTeamMember {
	if !id.Valid {
		return nil
	}
	memberID, err := types.ParseID(id.String)
	if err != nil {
		return nil
	}

	m := &crisis.CareTeamMember{ID: memberID, Role: role}
	if email.Valid {
		m.Contact.Email = email.String
	}
	if phone.Valid {
		m.Contact.Phone = phone.String
	}
	return m
}
