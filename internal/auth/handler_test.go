package auth_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/auth"
	authPostgres "github.com/frahmantamala/access-approval/internal/auth/postgres"
	"github.com/frahmantamala/access-approval/internal/grant"
	grantPostgres "github.com/frahmantamala/access-approval/internal/grant/postgres"
	"github.com/frahmantamala/access-approval/internal/testsupport"
	"github.com/frahmantamala/access-approval/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Auth Handler", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(name string) auth.AuthTokens {
		w := do(http.MethodPost, "/auth/login", "", auth.LoginDTO{Login: name, Password: testsupport.Password})
		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		return tokens
	}

	BeforeEach(func() {
		var err error
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		fx, err := testsupport.Seed(db)
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := transport.NewBaseHandler(slogger)
		service := auth.NewService(authPostgres.NewRepository(db), auth.NewJWTTokenGenerator(testSecurityConfig()), slogger)
		handler := auth.NewHandler(base, service)
		grants := grant.NewService(grantPostgres.NewGrantRepository(db), slogger)
		roles := auth.NewRoleAuthorization(base, grants)

		whoami := func(w http.ResponseWriter, r *http.Request) {
			id, _ := internal.UserIDFromContext(r.Context())
			base.WriteJSON(w, http.StatusOK, map[string]int64{"user_id": id})
		}

		router = chi.NewRouter()
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/refresh", handler.Refresh)
		router.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware)
			r.Get("/me", whoami)
			r.With(roles.RequireAdmin(fx.Catalog.Admin.ID)).Get("/admin-only", whoami)
		})
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("logs in and resolves the caller from the bearer token", func() {
		tokens := login("applicant")
		w := do(http.MethodGet, "/me", tokens.AccessToken, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"user_id"`))
	})

	It("returns 401 for bad credentials and missing or invalid tokens", func() {
		w := do(http.MethodPost, "/auth/login", "", auth.LoginDTO{Login: "applicant", Password: "wrong"})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		Expect(do(http.MethodGet, "/me", "", nil).Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/me", "garbage", nil).Code).To(Equal(http.StatusUnauthorized))

		tokens := login("applicant")
		Expect(do(http.MethodGet, "/me", tokens.RefreshToken, nil).Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns 400 for malformed bodies", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodPost, "/auth/refresh", "", map[string]string{})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("refreshes tokens", func() {
		tokens := login("owner")
		w := do(http.MethodPost, "/auth/refresh", "", auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
		Expect(w.Code).To(Equal(http.StatusOK))
		var refreshed auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&refreshed)).To(Succeed())
		Expect(do(http.MethodGet, "/me", refreshed.AccessToken, nil).Code).To(Equal(http.StatusOK))
	})

	It("limits admin routes to admin grant holders", func() {
		Expect(do(http.MethodGet, "/admin-only", login("admin").AccessToken, nil).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/admin-only", login("owner").AccessToken, nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeNotAdministrator)))
	})
})
