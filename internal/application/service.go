package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/core/events"
	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/internal/grant"
	"github.com/frahmantamala/access-approval/internal/metrics"
)

const (
	partyOwner = "owner"
	partyAdmin = "admin"
)

// Directory is the subset of the directory store the workflow reads.
type Directory interface {
	FindUser(ctx context.Context, id int64) (*directory.User, error)
	FindService(ctx context.Context, id int64) (*directory.Service, error)
	FindRole(ctx context.Context, id int64) (*directory.Role, error)
	FindDepartment(ctx context.Context, id int64) (*directory.Department, error)
	ServicesOwnedBy(ctx context.Context, userID int64) ([]*directory.Service, error)
}

type Repository interface {
	Directory
	grant.Writer
	AccessGrants(ctx context.Context, userID, roleID int64) ([]*grant.AccessGrant, error)

	FindApplication(ctx context.Context, id int64) (*Application, error)
	ApplicationsByService(ctx context.Context, serviceID int64) ([]*Application, error)
	ApplicationsByApplicant(ctx context.Context, userID int64) ([]*Application, error)
	SaveApplication(ctx context.Context, app *Application) error
	// SaveDecision writes a decided record only if it is still pending, else ErrStaleDecision.
	SaveDecision(ctx context.Context, rec *CheckingRecord) error

	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	catalog   directory.RoleCatalog
	issuer    *grant.Issuer
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the approval workflow. publisher and m may be nil.
func NewService(repo Repository, catalog directory.RoleCatalog, issuer *grant.Issuer, publisher EventPublisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		issuer:    issuer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit creates an application with its three checking records in one transaction.
func (s *Service) Submit(ctx context.Context, applicantID int64, dto SubmitApplicationDTO) (*Application, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("application validation failed", "error", err, "user_id", applicantID)
		return nil, err
	}

	var app *Application
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.FindUser(ctx, applicantID); err != nil {
			return err
		}
		svc, err := tx.FindService(ctx, dto.ServiceID)
		if err != nil {
			return err
		}
		role, err := tx.FindRole(ctx, dto.RoleID)
		if err != nil {
			return err
		}
		if dto.DepartmentID != nil {
			if _, err := tx.FindDepartment(ctx, *dto.DepartmentID); err != nil {
				return err
			}
		}
		if !svc.Offers(role.ID) {
			return ErrRoleNotOffered
		}

		app = NewApplication(applicantID, svc, *role, dto.DepartmentID, dto.Note, s.catalog, s.now().UTC())
		return tx.SaveApplication(ctx, app)
	})
	if err != nil {
		return nil, s.fail("failed to submit application", err, "user_id", applicantID, "service_id", dto.ServiceID)
	}

	s.metrics.IncrementSubmitted()
	s.publish(ctx, events.NewApplicationSubmittedEvent(app.ID, applicantID, app.ServiceID, dto.RoleID, app.CreatedAt))
	s.logger.Info("application submitted",
		"application_id", app.ID,
		"user_id", applicantID,
		"service_id", app.ServiceID,
		"role_id", dto.RoleID)

	return app, nil
}

// OwnerDecide records the service owner's decision.
func (s *Service) OwnerDecide(ctx context.Context, applicationID, ownerID int64, dto DecisionDTO) (*DecisionResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	approve := *dto.Approve

	var app *Application
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		if app, err = tx.FindApplication(ctx, applicationID); err != nil {
			return err
		}
		if _, err := tx.FindUser(ctx, ownerID); err != nil {
			return err
		}
		svc, err := tx.FindService(ctx, app.ServiceID)
		if err != nil {
			return err
		}
		if !svc.OwnedBy(ownerID) {
			return ErrNotServiceOwner
		}

		rec, err := app.DecideAsOwner(ownerID, approve, dto.Note, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.SaveDecision(ctx, rec); err != nil {
			if errors.Is(err, ErrStaleDecision) {
				return s.staleConflict(ctx, tx, applicationID, (*Application).OwnerReadiness)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.IncrementConflict(partyOwner)
		}
		return nil, s.fail("failed to record owner decision", err, "application_id", applicationID, "user_id", ownerID)
	}

	outcome := string(OutcomeOf(approve))
	s.metrics.IncrementDecision(partyOwner, outcome)
	s.publish(ctx, events.NewOwnerDecidedEvent(app.ID, ownerID, app.ServiceID, outcome, s.now().UTC()))
	s.logger.Info("owner decision recorded",
		"application_id", app.ID,
		"user_id", ownerID,
		"service_id", app.ServiceID,
		"outcome", outcome)

	return &DecisionResult{Application: app}, nil
}

// AdminDecide records an administrator's decision. Approval issues the access grant inside
// the same transaction.
func (s *Service) AdminDecide(ctx context.Context, applicationID, adminID int64, dto DecisionDTO) (*DecisionResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	approve := *dto.Approve

	var (
		app    *Application
		issued *grant.AccessGrant
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		if app, err = tx.FindApplication(ctx, applicationID); err != nil {
			return err
		}
		if _, err := tx.FindUser(ctx, adminID); err != nil {
			return err
		}
		grants, err := tx.AccessGrants(ctx, adminID, s.catalog.Admin.ID)
		if err != nil {
			return err
		}
		if !grant.Covers(grants, app.ServiceID) {
			return ErrNotServiceAdmin
		}

		rec, err := app.DecideAsAdmin(adminID, approve, dto.Note, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.SaveDecision(ctx, rec); err != nil {
			if errors.Is(err, ErrStaleDecision) {
				return s.staleConflict(ctx, tx, applicationID, (*Application).AdminReadiness)
			}
			return err
		}
		if !approve {
			return nil
		}

		role, ok := app.RequestedRole()
		if !ok {
			return ErrMalformedApplication
		}
		issued, err = s.issuer.Issue(ctx, tx, grant.Request{
			UserID:       app.ApplicantID,
			RoleID:       role.ID,
			ServiceID:    app.ServiceID,
			DepartmentID: app.DepartmentID,
		})
		return err
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.IncrementConflict(partyAdmin)
		}
		return nil, s.fail("failed to record admin decision", err, "application_id", applicationID, "user_id", adminID)
	}

	outcome := string(OutcomeOf(approve))
	s.metrics.IncrementDecision(partyAdmin, outcome)
	s.publish(ctx, events.NewAdminDecidedEvent(app.ID, adminID, app.ServiceID, outcome, s.now().UTC()))
	s.logger.Info("admin decision recorded",
		"application_id", app.ID,
		"user_id", adminID,
		"service_id", app.ServiceID,
		"outcome", outcome)

	if issued != nil {
		s.metrics.IncrementGrantsIssued()
		s.publish(ctx, events.NewGrantIssuedEvent(issued.ID, issued.UserID, issued.RoleID, issued.ServiceID, issued.DepartmentID, issued.CreatedAt))
		s.logger.Info("access grant issued",
			"grant_id", issued.ID,
			"application_id", app.ID,
			"user_id", issued.UserID,
			"role_id", issued.RoleID,
			"service_id", issued.ServiceID)
	}

	return &DecisionResult{Application: app, Grant: issued}, nil
}

// GetApplication is visible to the applicant, the service owner and the service's admins.
func (s *Service) GetApplication(ctx context.Context, applicationID, requesterID int64) (*Application, error) {
	if _, err := s.repo.FindUser(ctx, requesterID); err != nil {
		return nil, s.fail("failed to get application", err, "user_id", requesterID)
	}
	app, err := s.repo.FindApplication(ctx, applicationID)
	if err != nil {
		return nil, s.fail("failed to get application", err, "application_id", applicationID)
	}
	if app.ApplicantID == requesterID {
		return app, nil
	}

	svc, err := s.repo.FindService(ctx, app.ServiceID)
	if err != nil {
		return nil, s.fail("failed to get application", err, "application_id", applicationID)
	}
	if svc.OwnedBy(requesterID) {
		return app, nil
	}

	grants, err := s.repo.AccessGrants(ctx, requesterID, s.catalog.Admin.ID)
	if err != nil {
		return nil, s.fail("failed to get application", err, "application_id", applicationID)
	}
	if grant.Covers(grants, app.ServiceID) {
		return app, nil
	}

	s.logger.Warn("application access denied", "application_id", applicationID, "user_id", requesterID)
	return nil, ErrApplicationHidden
}

// PendingForOwner lists the applications awaiting the owner across every owned service.
func (s *Service) PendingForOwner(ctx context.Context, ownerID int64) ([]*Application, error) {
	return s.ListForOwner(ctx, ownerID, OwnerQuery{PendingOnly: true})
}

// PendingForAdmin lists the owner-approved applications awaiting an admin across every
// administered service.
func (s *Service) PendingForAdmin(ctx context.Context, adminID int64) ([]*Application, error) {
	return s.ListForAdmin(ctx, adminID, true)
}

func (s *Service) ListForOwner(ctx context.Context, ownerID int64, q OwnerQuery) ([]*Application, error) {
	if _, err := s.repo.FindUser(ctx, ownerID); err != nil {
		return nil, s.fail("failed to list owner applications", err, "user_id", ownerID)
	}

	var serviceIDs []int64
	if q.ServiceID != nil {
		svc, err := s.repo.FindService(ctx, *q.ServiceID)
		if err != nil {
			return nil, s.fail("failed to list owner applications", err, "service_id", *q.ServiceID)
		}
		if !svc.OwnedBy(ownerID) {
			return nil, ErrNotServiceOwner
		}
		serviceIDs = []int64{svc.ID}
	} else {
		owned, err := s.repo.ServicesOwnedBy(ctx, ownerID)
		if err != nil {
			return nil, s.fail("failed to list owner applications", err, "user_id", ownerID)
		}
		for _, svc := range owned {
			serviceIDs = append(serviceIDs, svc.ID)
		}
	}

	apps, err := s.collect(ctx, serviceIDs)
	if err != nil {
		return nil, s.fail("failed to list owner applications", err, "user_id", ownerID)
	}
	if q.PendingOnly {
		return PendingForOwner(apps), nil
	}
	return apps, nil
}

func (s *Service) ListForAdmin(ctx context.Context, adminID int64, pendingOnly bool) ([]*Application, error) {
	if _, err := s.repo.FindUser(ctx, adminID); err != nil {
		return nil, s.fail("failed to list admin applications", err, "user_id", adminID)
	}
	grants, err := s.repo.AccessGrants(ctx, adminID, s.catalog.Admin.ID)
	if err != nil {
		return nil, s.fail("failed to list admin applications", err, "user_id", adminID)
	}

	apps, err := s.collect(ctx, grant.ServiceIDs(grants))
	if err != nil {
		return nil, s.fail("failed to list admin applications", err, "user_id", adminID)
	}
	if pendingOnly {
		return PendingForAdmin(apps), nil
	}
	return apps, nil
}

func (s *Service) ListForApplicant(ctx context.Context, userID int64) ([]*Application, error) {
	if _, err := s.repo.FindUser(ctx, userID); err != nil {
		return nil, s.fail("failed to list applications", err, "user_id", userID)
	}
	apps, err := s.repo.ApplicationsByApplicant(ctx, userID)
	if err != nil {
		return nil, s.fail("failed to list applications", err, "user_id", userID)
	}
	return apps, nil
}

func (s *Service) collect(ctx context.Context, serviceIDs []int64) ([]*Application, error) {
	apps := make([]*Application, 0)
	for _, id := range serviceIDs {
		batch, err := s.repo.ApplicationsByService(ctx, id)
		if err != nil {
			return nil, err
		}
		apps = append(apps, batch...)
	}
	return apps, nil
}

// staleConflict re-reads the application after a lost conditional write and reports the
// conflict matching the outcome the other writer committed.
func (s *Service) staleConflict(ctx context.Context, tx Repository, applicationID int64, readiness func(*Application) error) error {
	fresh, err := tx.FindApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := readiness(fresh); err != nil {
		return err
	}
	return ErrDecisionConflict
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}

// fail passes domain errors through and converts everything else into an internal error.
func (s *Service) fail(msg string, err error, attrs ...any) error {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= 500 {
			s.logger.Error(msg, append(attrs, "error", err)...)
		} else {
			s.logger.Warn(msg, append(attrs, "error", err)...)
		}
		return appErr
	}
	s.logger.Error(msg, append(attrs, "error", err)...)
	return internal.NewInternalError(msg, err)
}

func isConflict(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.Type == internal.ErrorTypeConflict
}
