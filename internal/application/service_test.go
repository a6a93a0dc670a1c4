package application_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/application"
	"github.com/frahmantamala/access-approval/internal/core/events"
	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/internal/grant"
	"github.com/frahmantamala/access-approval/internal/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("ApplicationService", func() {
	var (
		ctx       context.Context
		repo      *fakeRepository
		publisher *recordingPublisher
		m         *metrics.Metrics
		service   *application.Service
		now       time.Time
	)

	submit := func() *application.Application {
		app, err := service.Submit(ctx, applicant, application.SubmitApplicationDTO{
			ServiceID:    serviceID,
			RoleID:       roleUser.ID,
			DepartmentID: ptr(departmentID),
			Note:         ptr("need read access"),
		})
		Expect(err).NotTo(HaveOccurred())
		return app
	}

	approve := application.DecisionDTO{Approve: ptr(true)}
	reject := application.DecisionDTO{Approve: ptr(false), Note: ptr("not needed")}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeRepository()
		publisher = &recordingPublisher{}
		m = metrics.New(prometheus.NewRegistry())
		now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		issuer := grant.NewIssuer().WithClock(func() time.Time { return now })
		service = application.NewService(repo, testCatalog, issuer, publisher, m, slogger).
			WithClock(func() time.Time { return now })
	})

	Describe("Submit", func() {
		It("creates the application with three checking records", func() {
			app := submit()

			Expect(app.ID).To(BeNumerically(">", 0))
			Expect(app.ApplicantID).To(Equal(applicant))
			Expect(app.ServiceID).To(Equal(serviceID))
			Expect(app.DepartmentID).To(Equal(ptr(departmentID)))
			Expect(app.CreatedAt).To(Equal(now))
			Expect(app.CheckingRecords).To(HaveLen(3))

			request := app.UserRequest()
			Expect(request.Kind).To(Equal(application.KindUserRequest))
			Expect(request.Role).To(Equal(roleUser))
			Expect(request.Outcome).To(Equal(application.OutcomeApproved))
			Expect(request.DecidedBy).To(Equal(ptr(applicant)))
			Expect(request.DecidedAt).To(Equal(ptr(now)))
			Expect(request.Note).To(Equal(ptr("need read access")))

			Expect(app.OwnerDecision().Outcome).To(Equal(application.OutcomePending))
			Expect(app.OwnerDecision().DecidedBy).To(BeNil())
			Expect(app.AdminDecision().Outcome).To(Equal(application.OutcomePending))
			Expect(app.AdminDecision().DecidedAt).To(BeNil())
			Expect(app.State()).To(Equal(application.StateAwaitingOwner))
		})

		It("publishes a submitted event and counts the submission", func() {
			submit()
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeApplicationSubmitted}))
			Expect(testutil.ToFloat64(m.ApplicationsSubmitted)).To(Equal(1.0))
		})

		It("accepts a request without department or note", func() {
			app, err := service.Submit(ctx, applicant, application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: roleAdmin.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(app.DepartmentID).To(BeNil())
			Expect(app.UserRequest().Note).To(BeNil())
		})

		DescribeTable("returns NotFound for unknown references",
			func(userID int64, dto application.SubmitApplicationDTO, expected error) {
				_, err := service.Submit(ctx, userID, dto)
				Expect(errors.Is(err, expected)).To(BeTrue(), "got %v", err)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeNotFound))
				Expect(repo.apps).To(BeEmpty())
			},
			Entry("applicant", int64(99), application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: roleUser.ID}, directory.ErrUserNotFound),
			Entry("service", applicant, application.SubmitApplicationDTO{ServiceID: 99, RoleID: roleUser.ID}, directory.ErrServiceNotFound),
			Entry("role", applicant, application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: 99}, directory.ErrRoleNotFound),
			Entry("department", applicant, application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: roleUser.ID, DepartmentID: ptr(int64(99))}, directory.ErrDepartmentNotFound),
		)

		It("rejects a role the service does not offer", func() {
			_, err := service.Submit(ctx, applicant, application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: roleAudit.ID})
			Expect(errors.Is(err, application.ErrRoleNotOffered)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(repo.apps).To(BeEmpty())
		})

		It("validates ids and note length before touching storage", func() {
			long := make([]byte, 1001)
			for i := range long {
				long[i] = 'x'
			}
			_, err := service.Submit(ctx, applicant, application.SubmitApplicationDTO{ServiceID: 0, RoleID: -1, Note: ptr(string(long))})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details := appErr.Details.(internal.ValidationErrors)
			fields := make([]string, 0, len(details.Errors))
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			Expect(fields).To(ContainElements("service_id", "role_id", "note"))
		})

		It("surfaces storage failures as internal errors", func() {
			repo.saveAppErr = errors.New("disk full")
			_, err := service.Submit(ctx, applicant, application.SubmitApplicationDTO{ServiceID: serviceID, RoleID: roleUser.ID})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})

	Describe("OwnerDecide", func() {
		var app *application.Application

		BeforeEach(func() {
			app = submit()
		})

		It("moves an approved application to AwaitingAdmin", func() {
			result, err := service.OwnerDecide(ctx, app.ID, ownerID, application.DecisionDTO{Approve: ptr(true), Note: ptr("ok")})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Grant).To(BeNil())

			owner := result.Application.OwnerDecision()
			Expect(owner.Outcome).To(Equal(application.OutcomeApproved))
			Expect(owner.DecidedBy).To(Equal(ptr(ownerID)))
			Expect(owner.DecidedAt).To(Equal(ptr(now)))
			Expect(owner.Note).To(Equal(ptr("ok")))
			Expect(result.Application.State()).To(Equal(application.StateAwaitingAdmin))

			stored, _ := repo.FindApplication(ctx, app.ID)
			Expect(stored.State()).To(Equal(application.StateAwaitingAdmin))
		})

		It("moves a rejected application to the terminal OwnerRejected state", func() {
			result, err := service.OwnerDecide(ctx, app.ID, ownerID, reject)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Application.State()).To(Equal(application.StateOwnerRejected))
			Expect(result.Application.State().IsTerminal()).To(BeTrue())

			_, err = service.AdminDecide(ctx, app.ID, adminID, approve)
			Expect(errors.Is(err, application.ErrOwnerDeclined)).To(BeTrue())
			Expect(err.Error()).To(Equal("owner declined the request"))
		})

		It("refuses a second decision with the committed outcome in the message", func() {
			_, err := service.OwnerDecide(ctx, app.ID, ownerID, approve)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.OwnerDecide(ctx, app.ID, ownerID, reject)
			Expect(errors.Is(err, application.ErrOwnerAlreadyAccepted)).To(BeTrue())
			Expect(err.Error()).To(Equal("owner already accepted the request"))
			Expect(testutil.ToFloat64(m.DecisionConflicts.WithLabelValues("owner"))).To(Equal(1.0))
		})

		It("reports already declined after a rejection", func() {
			_, err := service.OwnerDecide(ctx, app.ID, ownerID, reject)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.OwnerDecide(ctx, app.ID, ownerID, approve)
			Expect(errors.Is(err, application.ErrOwnerAlreadyDeclined)).To(BeTrue())
			Expect(err.Error()).To(Equal("owner already declined the request"))
		})

		It("forbids users who do not own the service", func() {
			_, err := service.OwnerDecide(ctx, app.ID, strangerID, approve)
			Expect(errors.Is(err, application.ErrNotServiceOwner)).To(BeTrue())

			_, err = service.OwnerDecide(ctx, app.ID, adminID, approve)
			Expect(errors.Is(err, application.ErrNotServiceOwner)).To(BeTrue())
			Expect(app.State()).To(Equal(application.StateAwaitingOwner))
		})

		It("returns NotFound for unknown application or user", func() {
			_, err := service.OwnerDecide(ctx, 999, ownerID, approve)
			Expect(errors.Is(err, application.ErrApplicationNotFound)).To(BeTrue())

			_, err = service.OwnerDecide(ctx, app.ID, 999, approve)
			Expect(errors.Is(err, directory.ErrUserNotFound)).To(BeTrue())
		})

		It("requires the approve flag", func() {
			_, err := service.OwnerDecide(ctx, app.ID, ownerID, application.DecisionDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("loses cleanly to a concurrent owner decision", func() {
			repo.beforeSaveDecision = func(rec *application.CheckingRecord) {
				repo.setStoredOutcome(app.ID, rec.ID, ownerID, application.OutcomeRejected)
			}

			_, err := service.OwnerDecide(ctx, app.ID, ownerID, approve)
			Expect(errors.Is(err, application.ErrOwnerAlreadyDeclined)).To(BeTrue())

			stored, _ := repo.FindApplication(ctx, app.ID)
			Expect(stored.State()).To(Equal(application.StateOwnerRejected))
		})

		It("publishes the decision after it is stored", func() {
			_, err := service.OwnerDecide(ctx, app.ID, ownerID, approve)
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.Types()).To(Equal([]string{
				events.EventTypeApplicationSubmitted,
				events.EventTypeApplicationOwnerDecided,
			}))
			Expect(testutil.ToFloat64(m.Decisions.WithLabelValues("owner", "approved"))).To(Equal(1.0))
		})
	})

	Describe("AdminDecide", func() {
		var app *application.Application

		BeforeEach(func() {
			app = submit()
		})

		DescribeTable("refuses to act before the owner has reviewed",
			func(decision bool) {
				_, err := service.AdminDecide(ctx, app.ID, adminID, application.DecisionDTO{Approve: ptr(decision)})
				Expect(errors.Is(err, application.ErrOwnerNotReviewed)).To(BeTrue())
				Expect(err.Error()).To(Equal("owner has not yet reviewed the request"))
				Expect(repo.grantsFor(applicant)).To(BeEmpty())

				stored, err := repo.FindApplication(ctx, app.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.State()).To(Equal(application.StateAwaitingOwner))
				Expect(stored.AdminDecision().IsPending()).To(BeTrue())
				Expect(testutil.ToFloat64(m.DecisionConflicts.WithLabelValues("admin"))).To(Equal(1.0))
			},
			Entry("approving", true),
			Entry("rejecting", false),
		)

		Context("after the owner approved", func() {
			BeforeEach(func() {
				_, err := service.OwnerDecide(ctx, app.ID, ownerID, approve)
				Expect(err).NotTo(HaveOccurred())
			})

			It("grants the requested role exactly once", func() {
				result, err := service.AdminDecide(ctx, app.ID, adminID, application.DecisionDTO{Approve: ptr(true), Note: ptr("granted")})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Application.State()).To(Equal(application.StateGranted))
				Expect(result.Application.AdminDecision().DecidedBy).To(Equal(ptr(adminID)))

				Expect(result.Grant).NotTo(BeNil())
				Expect(result.Grant.UserID).To(Equal(applicant))
				Expect(result.Grant.RoleID).To(Equal(roleUser.ID))
				Expect(result.Grant.ServiceID).To(Equal(serviceID))
				Expect(result.Grant.DepartmentID).To(Equal(ptr(departmentID)))
				Expect(result.Grant.CreatedAt).To(Equal(now))

				grants := repo.grantsFor(applicant)
				Expect(grants).To(HaveLen(1))
				Expect(grants[0].ID).To(Equal(result.Grant.ID))
				Expect(testutil.ToFloat64(m.GrantsIssued)).To(Equal(1.0))
				Expect(publisher.Types()).To(ContainElements(events.EventTypeApplicationAdminDecided, events.EventTypeGrantIssued))
			})

			It("issues no grant on rejection", func() {
				result, err := service.AdminDecide(ctx, app.ID, adminID, reject)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Application.State()).To(Equal(application.StateAdminRejected))
				Expect(result.Grant).To(BeNil())
				Expect(repo.grantsFor(applicant)).To(BeEmpty())
				Expect(publisher.Types()).NotTo(ContainElement(events.EventTypeGrantIssued))
			})

			It("refuses a second admin decision and keeps a single grant", func() {
				_, err := service.AdminDecide(ctx, app.ID, adminID, approve)
				Expect(err).NotTo(HaveOccurred())

				_, err = service.AdminDecide(ctx, app.ID, adminID, approve)
				Expect(errors.Is(err, application.ErrAdminAlreadyAccepted)).To(BeTrue())
				Expect(err.Error()).To(Equal("administrator already accepted the request"))
				Expect(repo.grantsFor(applicant)).To(HaveLen(1))
			})

			It("reports already declined after an admin rejection", func() {
				_, err := service.AdminDecide(ctx, app.ID, adminID, reject)
				Expect(err).NotTo(HaveOccurred())

				_, err = service.AdminDecide(ctx, app.ID, adminID, approve)
				Expect(errors.Is(err, application.ErrAdminAlreadyDeclined)).To(BeTrue())
				Expect(err.Error()).To(Equal("administrator already declined the request"))
				Expect(repo.grantsFor(applicant)).To(BeEmpty())
			})

			It("forbids callers without an admin grant on the service", func() {
				_, err := service.AdminDecide(ctx, app.ID, ownerID, approve)
				Expect(errors.Is(err, application.ErrNotServiceAdmin)).To(BeTrue())

				repo.grants = append(repo.grants, &grant.AccessGrant{ID: 50, UserID: strangerID, RoleID: roleAdmin.ID, ServiceID: otherServiceID})
				_, err = service.AdminDecide(ctx, app.ID, strangerID, approve)
				Expect(errors.Is(err, application.ErrNotServiceAdmin)).To(BeTrue())
				Expect(repo.grantsFor(applicant)).To(BeEmpty())
			})

			It("issues no grant when a concurrent admin approval committed first", func() {
				repo.beforeSaveDecision = func(rec *application.CheckingRecord) {
					repo.setStoredOutcome(app.ID, rec.ID, adminID, application.OutcomeApproved)
				}

				_, err := service.AdminDecide(ctx, app.ID, adminID, approve)
				Expect(errors.Is(err, application.ErrAdminAlreadyAccepted)).To(BeTrue())
				Expect(repo.grantsFor(applicant)).To(BeEmpty())
				Expect(testutil.ToFloat64(m.DecisionConflicts.WithLabelValues("admin"))).To(Equal(1.0))
			})

			It("fails the decision when the grant cannot be stored", func() {
				repo.saveGrantErr = errors.New("connection reset")
				_, err := service.AdminDecide(ctx, app.ID, adminID, approve)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			})
		})
	})

	Describe("work queues", func() {
		var awaitingOwner, awaitingAdmin, rejected, granted *application.Application

		BeforeEach(func() {
			awaitingOwner = submit()
			awaitingAdmin = submit()
			rejected = submit()
			granted = submit()

			_, err := service.OwnerDecide(ctx, awaitingAdmin.ID, ownerID, approve)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.OwnerDecide(ctx, rejected.ID, ownerID, reject)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.OwnerDecide(ctx, granted.ID, ownerID, approve)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AdminDecide(ctx, granted.ID, adminID, approve)
			Expect(err).NotTo(HaveOccurred())
		})

		ids := func(apps []*application.Application) []int64 {
			out := make([]int64, len(apps))
			for i, a := range apps {
				out[i] = a.ID
			}
			return out
		}

		It("lists only applications awaiting the owner", func() {
			apps, err := service.PendingForOwner(ctx, ownerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(apps)).To(Equal([]int64{awaitingOwner.ID}))
		})

		It("lists only owner-approved applications awaiting an admin", func() {
			apps, err := service.PendingForAdmin(ctx, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(apps)).To(Equal([]int64{awaitingAdmin.ID}))
		})

		It("lists every application of the owner when not filtering", func() {
			apps, err := service.ListForOwner(ctx, ownerID, application.OwnerQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(apps).To(HaveLen(4))

			apps, err = service.ListForOwner(ctx, ownerID, application.OwnerQuery{ServiceID: ptr(serviceID), PendingOnly: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(apps)).To(Equal([]int64{awaitingOwner.ID}))
		})

		It("forbids filtering by a service the caller does not own", func() {
			_, err := service.ListForOwner(ctx, ownerID, application.OwnerQuery{ServiceID: ptr(otherServiceID)})
			Expect(errors.Is(err, application.ErrNotServiceOwner)).To(BeTrue())
		})

		It("returns empty queues for users without services or grants", func() {
			apps, err := service.PendingForOwner(ctx, applicant)
			Expect(err).NotTo(HaveOccurred())
			Expect(apps).To(BeEmpty())

			apps, err = service.PendingForAdmin(ctx, ownerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(apps).To(BeEmpty())
		})

		It("returns NotFound for unknown users", func() {
			_, err := service.PendingForOwner(ctx, 999)
			Expect(errors.Is(err, directory.ErrUserNotFound)).To(BeTrue())
			_, err = service.PendingForAdmin(ctx, 999)
			Expect(errors.Is(err, directory.ErrUserNotFound)).To(BeTrue())
		})

		It("lists the applicant's own applications", func() {
			apps, err := service.ListForApplicant(ctx, applicant)
			Expect(err).NotTo(HaveOccurred())
			Expect(apps).To(HaveLen(4))

			apps, err = service.ListForApplicant(ctx, strangerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(apps).To(BeEmpty())
		})
	})

	Describe("GetApplication", func() {
		var app *application.Application

		BeforeEach(func() {
			app = submit()
		})

		DescribeTable("is visible to the parties of the application",
			func(requester int64) {
				got, err := service.GetApplication(ctx, app.ID, requester)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.ID).To(Equal(app.ID))
			},
			Entry("applicant", applicant),
			Entry("owner", ownerID),
			Entry("admin", adminID),
		)

		It("is hidden from everyone else", func() {
			_, err := service.GetApplication(ctx, app.ID, strangerID)
			Expect(errors.Is(err, application.ErrApplicationHidden)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
		})

		It("returns NotFound for unknown ids", func() {
			_, err := service.GetApplication(ctx, 999, applicant)
			Expect(errors.Is(err, application.ErrApplicationNotFound)).To(BeTrue())
			_, err = service.GetApplication(ctx, app.ID, 999)
			Expect(errors.Is(err, directory.ErrUserNotFound)).To(BeTrue())
		})
	})
})
