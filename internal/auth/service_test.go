package auth_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/auth"
	authPostgres "github.com/frahmantamala/access-approval/internal/auth/postgres"
	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	"github.com/frahmantamala/access-approval/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("AuthService", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		fx        *testsupport.Fixture
		generator *auth.JWTTokenGenerator
		service   *auth.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		fx, err = testsupport.Seed(db)
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		generator = auth.NewJWTTokenGenerator(testSecurityConfig())
		service = auth.NewService(authPostgres.NewRepository(db), generator, slogger)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	deactivate := func(userID int64) {
		Expect(db.Model(&directoryDatamodel.User{}).Where("id = ?", userID).Update("is_active", false).Error).To(Succeed())
	}

	Describe("Login", func() {
		It("issues a token pair for valid credentials", func() {
			tokens, err := service.Login(ctx, auth.LoginDTO{Login: "applicant", Password: testsupport.Password})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.TokenType).To(Equal("Bearer"))
			Expect(tokens.ExpiresIn).To(Equal(int64((15 * time.Minute).Seconds())))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(fx.ApplicantID))
		})

		It("rejects a wrong password and an unknown login the same way", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Login: "applicant", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))

			_, err = service.Login(ctx, auth.LoginDTO{Login: "ghost", Password: testsupport.Password})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("requires both fields", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Login: "applicant"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("refuses inactive users", func() {
			deactivate(fx.ApplicantID)
			_, err := service.Login(ctx, auth.LoginDTO{Login: "applicant", Password: testsupport.Password})
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})
	})

	Describe("Refresh", func() {
		It("rotates the pair", func() {
			tokens, err := service.Login(ctx, auth.LoginDTO{Login: "owner", Password: testsupport.Password})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(fx.OwnerID))
		})

		It("rejects access tokens and deactivated users", func() {
			tokens, err := service.Login(ctx, auth.LoginDTO{Login: "owner", Password: testsupport.Password})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.AccessToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))

			deactivate(fx.OwnerID)
			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})
	})

	Describe("IssueTokens", func() {
		It("mints tokens for a known user", func() {
			tokens, err := service.IssueTokens(ctx, fx.AdminID)
			Expect(err).NotTo(HaveOccurred())
			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Login).To(Equal("admin"))
		})

		It("fails for unknown users", func() {
			_, err := service.IssueTokens(ctx, 9999)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	It("hashes passwords with bcrypt", func() {
		hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass"))).To(Succeed())
	})

	It("refuses to hash a short password", func() {
		_, err := auth.HashPassword("short", bcrypt.MinCost)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
		Expect(appErr.Error()).To(ContainSubstring("at least 8 characters"))
	})
})
