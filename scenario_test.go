package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/access-approval/cmd"
	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/application"
	"github.com/frahmantamala/access-approval/internal/auth"
	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
	"github.com/frahmantamala/access-approval/internal/grant"
	"github.com/frahmantamala/access-approval/internal/testsupport"
	"github.com/frahmantamala/access-approval/internal/user"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Access approval over HTTP", func() {
	var (
		db     *gorm.DB
		fx     *testsupport.Fixture
		server *httptest.Server
		tokens map[int64]string
	)

	call := func(method, path string, as int64, body interface{}) (int, []byte) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req, err := http.NewRequest(method, server.URL+"/api/v1"+path, &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token, ok := tokens[as]; ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := server.Client().Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, raw
	}

	login := func(name string, id int64) {
		status, raw := call(http.MethodPost, "/auth/login", 0, auth.LoginDTO{Login: name, Password: testsupport.Password})
		Expect(status).To(Equal(http.StatusOK), string(raw))
		var t auth.AuthTokens
		Expect(json.Unmarshal(raw, &t)).To(Succeed())
		tokens[id] = t.AccessToken
	}

	queue := func(path string, as int64) []int64 {
		status, raw := call(http.MethodGet, path, as, nil)
		Expect(status).To(Equal(http.StatusOK), string(raw))
		var resp application.ApplicationsResponse
		Expect(json.Unmarshal(raw, &resp)).To(Succeed())
		ids := make([]int64, 0, len(resp.Applications))
		for _, a := range resp.Applications {
			ids = append(ids, a.ID)
		}
		return ids
	}
	ownerQueue := func() []int64 { return queue("/owner/applications?pending=true", fx.OwnerID) }
	adminQueue := func() []int64 { return queue("/admin/applications?pending=true", fx.AdminID) }

	decide := func(party string, id, as int64, approve bool) (int, []byte) {
		return call(http.MethodPost, fmt.Sprintf("/%s/applications/%d/decision", party, id), as, map[string]interface{}{"approve": approve})
	}

	submit := func() int64 {
		status, raw := call(http.MethodPost, "/applications", fx.ApplicantID, map[string]interface{}{
			"service_id":    fx.ServiceID,
			"role_id":       fx.UserRole.ID,
			"department_id": fx.DepartmentID,
		})
		Expect(status).To(Equal(http.StatusCreated), string(raw))
		var resp application.ApplicationResponse
		Expect(json.Unmarshal(raw, &resp)).To(Succeed())
		return resp.ID
	}

	grantsFor := func(userID int64) []grantDatamodel.AccessGrant {
		var rows []grantDatamodel.AccessGrant
		Expect(db.Where("user_id = ? AND role_id = ?", userID, fx.UserRole.ID).Find(&rows).Error).To(Succeed())
		return rows
	}

	BeforeEach(func() {
		var err error
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		fx, err = testsupport.Seed(db)
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		cfg := &internal.Config{
			Env:      "test",
			Database: internal.DatabaseConfig{Driver: internal.DriverSQLite},
			Security: internal.SecurityConfig{
				AccessTokenSecret:    "scenario-access-secret-0123456789abcdef",
				RefreshTokenSecret:   "scenario-refresh-secret-0123456789abcdef",
				AccessTokenDuration:  15 * time.Minute,
				RefreshTokenDuration: time.Hour,
			},
			Observability: internal.ObservabilityConfig{
				Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
			},
		}
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		deps, err := cmd.NewDependencies(context.Background(), cfg, db, sqlx.NewDb(sqlDB, "sqlite3"), lg)
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(deps.Router)
		tokens = map[int64]string{}
		login("admin", fx.AdminID)
		login("owner", fx.OwnerID)
		login("applicant", fx.ApplicantID)
	})

	AfterEach(func() {
		server.Close()
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("grants access after owner and admin approval", func() {
		id := submit()
		Expect(ownerQueue()).To(ConsistOf(id))
		Expect(adminQueue()).To(BeEmpty())

		status, raw := decide("owner", id, fx.OwnerID, true)
		Expect(status).To(Equal(http.StatusOK), string(raw))
		Expect(ownerQueue()).To(BeEmpty())
		Expect(adminQueue()).To(ConsistOf(id))

		status, raw = decide("admin", id, fx.AdminID, true)
		Expect(status).To(Equal(http.StatusOK), string(raw))
		Expect(adminQueue()).To(BeEmpty())

		rows := grantsFor(fx.ApplicantID)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].ServiceID).To(Equal(fx.ServiceID))
		Expect(rows[0].DepartmentID).NotTo(BeNil())
		Expect(*rows[0].DepartmentID).To(Equal(fx.DepartmentID))

		status, raw = call(http.MethodGet, "/grants", fx.ApplicantID, nil)
		Expect(status).To(Equal(http.StatusOK))
		var mine grant.GrantsResponse
		Expect(json.Unmarshal(raw, &mine)).To(Succeed())
		Expect(mine.Grants).To(HaveLen(1))
	})

	It("keeps an owner-declined application away from the admin", func() {
		id := submit()

		status, raw := decide("owner", id, fx.OwnerID, false)
		Expect(status).To(Equal(http.StatusOK), string(raw))
		Expect(adminQueue()).To(BeEmpty())

		status, raw = decide("admin", id, fx.AdminID, true)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(string(raw)).To(ContainSubstring("owner declined the request"))

		Expect(adminQueue()).To(BeEmpty())
		Expect(grantsFor(fx.ApplicantID)).To(BeEmpty())
	})

	It("serves the ambient endpoints", func() {
		status, _ := call(http.MethodGet, "/health", 0, nil)
		Expect(status).To(Equal(http.StatusOK))

		status, _ = call(http.MethodGet, "/services", 0, nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		status, _ = call(http.MethodGet, "/services", fx.ApplicantID, nil)
		Expect(status).To(Equal(http.StatusOK))

		status, raw := call(http.MethodGet, "/users/me", fx.OwnerID, nil)
		Expect(status).To(Equal(http.StatusOK))
		var profile user.Profile
		Expect(json.Unmarshal(raw, &profile)).To(Succeed())
		Expect(profile.User.ID).To(Equal(fx.OwnerID))
		Expect(profile.OwnedServices).To(HaveLen(1))
		Expect(profile.Worker.Department.ID).To(Equal(fx.DepartmentID))

		status, _ = call(http.MethodGet, "/directory/users", fx.ApplicantID, nil)
		Expect(status).To(Equal(http.StatusForbidden))
		status, _ = call(http.MethodGet, "/directory/users", fx.AdminID, nil)
		Expect(status).To(Equal(http.StatusOK))

		resp, err := server.Client().Get(server.URL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("access_approval_applications_submitted_total"))
	})
})
