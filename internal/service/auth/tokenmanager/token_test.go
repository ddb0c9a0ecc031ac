package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/repository"
	"github.com/nkiryanov/sims/internal/repository/postgres"
	"github.com/nkiryanov/sims/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Start transaction, create user the tokens are issued for and run fn with token manager
	withTx := func(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration, fn func(m *TokenManager, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			account, err := storage.Account().CreateAccount(t.Context(), repository.CreateAccountParams{
				Username: "testuser", PasswordHash: "hashed_password", Role: models.RoleSupervisor,
			})
			require.NoError(t, err)

			cfg := Config{
				SecretKey:  "test-secret-key",
				AccessTTL:  accessTTL,
				RefreshTTL: refreshTTL,
			}
			tokenManager, err := New(cfg, storage.Refresh())
			require.NoError(t, err, "token manager should be created without errors")

			fn(tokenManager, account.User)
		})
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "secret", m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fails", func(t *testing.T) {
		_, err := New(Config{}, nil)
		require.Error(t, err, "secret key is required")

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"}, nil)
		require.Error(t, err, "only HMAC methods are supported")

		_, err = New(Config{SecretKey: "secret", Alg: "nope"}, nil)
		require.Error(t, err)
	})

	t.Run("GeneratePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)

				require.NoError(t, err)
				assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
				assert.Len(t, pair.Refresh.Value, 32, "refresh token is 16 random bytes hex encoded")
				assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
			})
		})

		t.Run("access claims", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				claims := &AccessTokenClaims{}
				token, err := jwt.ParseWithClaims(pair.Access.Value, claims, func(token *jwt.Token) (any, error) {
					return []byte("test-secret-key"), nil
				})
				require.NoError(t, err)
				require.True(t, token.Valid, "access token should be valid")

				assert.Equal(t, user.ID, claims.UserID, "user ID in token should match")
				assert.Equal(t, models.RoleSupervisor, claims.Role)
				assert.NotEmpty(t, claims.ID, "token has to has jti")
				assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
			})
		})

		t.Run("generate different tokens", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair1, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				pair2, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
				assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
			})
		})
	})

	t.Run("UseRefresh", func(t *testing.T) {
		t.Run("use token once", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				token, err := m.UseRefresh(t.Context(), pair.Refresh.Value)

				require.NoError(t, err, "using refresh token should not return an error")
				require.Equal(t, user.ID, token.UserID)
			})
		})

		t.Run("use token twice", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)
				_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)

				require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
			})
		})

		t.Run("use expired token", func(t *testing.T) {
			withTx(t, time.Second, time.Second, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				time.Sleep(time.Second)

				_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
			})
		})

		t.Run("use revoked token", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)
				require.NoError(t, m.RevokeAll(t.Context(), user.ID))

				_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)

				require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
			})
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err, "token pair should be generated without errors")

				claims, err := m.ParseAccess(t.Context(), pair.Access.Value)

				require.NoError(t, err, "valid token should be parsed without errors")
				require.Equal(t, user.ID, claims.UserID)
				require.Equal(t, user.Role, claims.Role)
			})
		})

		t.Run("not a token", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), "invalid token")

			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
		})

		t.Run("expired token", func(t *testing.T) {
			withTx(t, time.Second, time.Second, func(m *TokenManager, user models.User) {
				pair, err := m.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				time.Sleep(time.Second)

				_, err = m.ParseAccess(t.Context(), pair.Access.Value)
				require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token has to become expired")
				require.ErrorIs(t, err, jwt.ErrTokenExpired)
			})
		})

		t.Run("foreign key", func(t *testing.T) {
			withTx(t, 15*time.Minute, 24*time.Hour, func(m *TokenManager, user models.User) {
				other, err := New(Config{SecretKey: "other-secret"}, m.refreshRepo)
				require.NoError(t, err)
				pair, err := other.GeneratePair(t.Context(), user)
				require.NoError(t, err)

				_, err = m.ParseAccess(t.Context(), pair.Access.Value)

				require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
			})
		})

		tokenWith := func(method jwt.SigningMethod, claims AccessTokenClaims, key any) string {
			access, err := jwt.NewWithClaims(method, claims).SignedString(key)
			require.NoError(t, err)
			return access
		}

		t.Run("not signed token", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			access := tokenWith(jwt.SigningMethodNone, AccessTokenClaims{
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        uuid.NewString(),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
				},
				UserID: 1,
			}, jwt.UnsafeAllowNoneSignatureType)

			_, err = m.ParseAccess(t.Context(), access)
			require.Error(t, err, "Valid token with empty alg must fail")
		})

		t.Run("token without expiration", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			access := tokenWith(jwt.SigningMethodHS256, AccessTokenClaims{UserID: 1}, []byte("test-secret-key"))

			_, err = m.ParseAccess(t.Context(), access)
			require.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
		})
	})
}
