package service

import (
	"context"
	"testing"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/parisxmas/OxiEnroll/internal/testutil"
	"github.com/parisxmas/OxiEnroll/internal/wizard"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store    db.Store
	config   *ConfigService
	subs     *SubmissionService
	uploads  *UploadService
	auth     *AuthService
	sessions *wizard.Sessions
	enroll   *EnrollmentService
}

// newEnv wires every service over an in-memory store. The configuration is
// seeded unless seed is false.
func newEnv(t *testing.T, seed bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	log := zap.NewNop()

	cfgRepo := repository.NewConfigRepo(store)
	subRepo := repository.NewSubmissionRepo(store)
	upRepo := repository.NewUploadRepo(store)
	userRepo := repository.NewUserRepo(store)
	require.NoError(t, cfgRepo.EnsureIndexes(ctx))
	require.NoError(t, subRepo.EnsureIndexes(ctx))
	require.NoError(t, upRepo.EnsureIndexes(ctx))
	require.NoError(t, userRepo.EnsureIndexes(ctx))

	e := &testEnv{
		store:    store,
		config:   NewConfigService(cfgRepo, log),
		subs:     NewSubmissionService(subRepo, log),
		uploads:  NewUploadService(upRepo, 25, log),
		auth:     NewAuthService(userRepo, "test-secret", time.Hour, log),
		sessions: wizard.NewSessions(time.Hour, time.Minute, 0),
	}
	t.Cleanup(e.sessions.Close)
	e.enroll = NewEnrollmentService(e.config, e.sessions, e.subs, e.uploads, log)

	if seed {
		created, err := e.config.Seed(ctx, testutil.Config(), false)
		require.NoError(t, err)
		require.True(t, created)
	}
	return e
}
