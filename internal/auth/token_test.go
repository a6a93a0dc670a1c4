package auth_test

import (
	"time"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testSecurityConfig() internal.SecurityConfig {
	return internal.SecurityConfig{
		AccessTokenSecret:    "access-secret-access-secret-access-secret",
		RefreshTokenSecret:   "refresh-secret-refresh-secret-refresh-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
	}
}

var _ = Describe("JWTTokenGenerator", func() {
	var (
		now       time.Time
		generator *auth.JWTTokenGenerator
	)

	BeforeEach(func() {
		now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		generator = auth.NewJWTTokenGenerator(testSecurityConfig()).WithClock(func() time.Time { return now })
	})

	It("round-trips an access token", func() {
		token, err := generator.GenerateAccessToken(42, "ana")
		Expect(err).NotTo(HaveOccurred())

		claims, err := generator.ValidateToken(token, auth.TokenTypeAccess)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Login).To(Equal("ana"))
		Expect(claims.Subject).To(Equal("42"))
		Expect(claims.TokenType).To(Equal(auth.TokenTypeAccess))
	})

	It("does not accept a refresh token as an access token", func() {
		refresh, err := generator.GenerateRefreshToken(42, "ana")
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(refresh, auth.TokenTypeAccess)
		Expect(err).To(MatchError(internal.ErrInvalidToken))

		access, err := generator.GenerateAccessToken(42, "ana")
		Expect(err).NotTo(HaveOccurred())
		_, err = generator.ValidateToken(access, auth.TokenTypeRefresh)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("reports expiry separately", func() {
		token, err := generator.GenerateAccessToken(42, "ana")
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(16 * time.Minute)
		_, err = generator.ValidateToken(token, auth.TokenTypeAccess)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})

	It("rejects tokens signed with another key or algorithm", func() {
		other := auth.NewJWTTokenGenerator(internal.SecurityConfig{
			AccessTokenSecret:  "a-completely-different-secret-value-here",
			RefreshTokenSecret: "another-completely-different-secret-value",
		}).WithClock(func() time.Time { return now })
		token, err := other.GenerateAccessToken(42, "ana")
		Expect(err).NotTo(HaveOccurred())
		_, err = generator.ValidateToken(token, auth.TokenTypeAccess)
		Expect(err).To(MatchError(internal.ErrInvalidToken))

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: 42, TokenType: auth.TokenTypeAccess})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())
		_, err = generator.ValidateToken(raw, auth.TokenTypeAccess)
		Expect(err).To(MatchError(internal.ErrInvalidToken))

		_, err = generator.ValidateToken("not-a-jwt", auth.TokenTypeAccess)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})
})
