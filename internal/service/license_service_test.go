package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestValidateUser_DecisionOrder(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user *models.User
		want models.ValidationOutcome
	}{
		{"nil user", nil, models.OutcomeNotFound},
		{
			"banned wins over everything",
			&models.User{Banned: true, Locked: true, LicenseKey: strPtr("K"), LicenseExpires: &past},
			models.OutcomeBanned,
		},
		{
			"locked wins over missing license",
			&models.User{Locked: true},
			models.OutcomeLocked,
		},
		{
			"no key",
			&models.User{},
			models.OutcomeNoLicense,
		},
		{
			"empty key",
			&models.User{LicenseKey: strPtr("")},
			models.OutcomeNoLicense,
		},
		{
			"key without expiry",
			&models.User{LicenseKey: strPtr("K")},
			models.OutcomeNoLicense,
		},
		{
			"expired",
			&models.User{LicenseKey: strPtr("K"), LicenseExpires: &past},
			models.OutcomeExpired,
		},
		{
			"valid",
			&models.User{LicenseKey: strPtr("K"), LicenseExpires: &future},
			models.OutcomeValid,
		},
		{
			"exactly at expiry is still valid",
			&models.User{LicenseKey: strPtr("K"), LicenseExpires: &now},
			models.OutcomeValid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUser(tt.user, now))
		})
	}
}

func TestDurationFromDays_FractionalDays(t *testing.T) {
	assert.Equal(t, 36*time.Hour, models.DurationFromDays(1.5))
	assert.Equal(t, 24*time.Hour, models.DurationFromDays(1))
	assert.Equal(t, 12*time.Hour, models.DurationFromDays(0.5))
}

type licenseFixture struct {
	users      *fakeUserRepo
	licenses   *fakeLicenseRepo
	executions *fakeExecutionRepo
	publisher  *fakePublisher
	svc        *LicenseService
}

func newLicenseFixture() *licenseFixture {
	users := newFakeUserRepo()
	licenses := newFakeLicenseRepo(users)
	executions := &fakeExecutionRepo{}
	publisher := &fakePublisher{}
	return &licenseFixture{
		users:      users,
		licenses:   licenses,
		executions: executions,
		publisher:  publisher,
		svc:        NewLicenseService(users, licenses, executions, publisher, zap.NewNop()),
	}
}

func TestRedeem_StampsExpiryFromDuration(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	user := f.users.add(&models.User{TelegramID: 100})
	require.NoError(t, f.licenses.Create(ctx, &models.License{
		Key:           "ABCDEFGH12345678",
		DurationDays:  1.5,
		MaxExecutions: models.UnlimitedExecutions,
	}))

	license, err := f.svc.Redeem(ctx, "ABCDEFGH12345678", user, now)
	require.NoError(t, err)
	require.NotNil(t, license.ExpiresAt)
	assert.Equal(t, now.Add(36*time.Hour), *license.ExpiresAt)
	assert.True(t, license.IsUsed)
	assert.Equal(t, user.ID, *license.UsedByUser)
	assert.Equal(t, user.TelegramID, *license.UsedByIdentifier)

	stored := f.users.get(user.ID)
	require.NotNil(t, stored.LicenseKey)
	assert.Equal(t, "ABCDEFGH12345678", *stored.LicenseKey)
	assert.Equal(t, now.Add(36*time.Hour), *stored.LicenseExpires)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.Locked)

	assert.Contains(t, f.publisher.types(), "bot.license.activated")
}

func TestRedeem_LiftsLockButNotBan(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	user := f.users.add(&models.User{TelegramID: 200, Locked: true})
	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "LOCKEDUSERKEY001", DurationDays: 7}))

	_, err := f.svc.Redeem(ctx, "LOCKEDUSERKEY001", user, now)
	require.NoError(t, err)
	assert.False(t, f.users.get(user.ID).Locked)
}

func TestRedeem_UnknownOrUsedKey(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()
	user := f.users.add(&models.User{TelegramID: 300})

	_, err := f.svc.Redeem(ctx, "NOSUCHKEY0000000", user, now)
	assert.ErrorIs(t, err, domainErrors.ErrLicenseInvalidOrUsed)

	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "ONCEONLYKEY00001", DurationDays: 7}))
	_, err = f.svc.Redeem(ctx, "ONCEONLYKEY00001", user, now)
	require.NoError(t, err)

	other := f.users.add(&models.User{TelegramID: 301})
	_, err = f.svc.Redeem(ctx, "ONCEONLYKEY00001", other, now)
	assert.ErrorIs(t, err, domainErrors.ErrLicenseInvalidOrUsed)
	assert.Nil(t, f.users.get(other.ID).LicenseKey)
}

func TestRedeem_ConcurrentClaimersExactlyOneWins(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "CONTENDEDKEY0001", DurationDays: 7}))

	const claimers = 16
	users := make([]*models.User, claimers)
	for i := range users {
		users[i] = f.users.add(&models.User{TelegramID: int64(1000 + i)})
	}

	var wg sync.WaitGroup
	errs := make([]error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Redeem(ctx, "CONTENDEDKEY0001", users[i], now)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			assert.NotNil(t, f.users.get(users[i].ID).LicenseKey)
		} else {
			assert.ErrorIs(t, err, domainErrors.ErrLicenseInvalidOrUsed)
			assert.Nil(t, f.users.get(users[i].ID).LicenseKey)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRunProgram_RecordsExactlyOneExecution(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	user := f.users.add(&models.User{TelegramID: 400})
	require.NoError(t, f.licenses.Create(ctx, &models.License{
		Key:           "RUNNABLEKEY00001",
		DurationDays:  7,
		MaxExecutions: models.UnlimitedExecutions,
	}))
	_, err := f.svc.Redeem(ctx, "RUNNABLEKEY00001", user, now)
	require.NoError(t, err)

	user = f.users.get(user.ID)
	require.NoError(t, f.svc.RunProgram(ctx, user, now))

	stored := f.users.get(user.ID)
	assert.Equal(t, 1, stored.ScriptExecutions)
	require.NotNil(t, stored.LastLogin)

	license, err := f.licenses.FindByKey(ctx, "RUNNABLEKEY00001")
	require.NoError(t, err)
	assert.Equal(t, 1, license.ExecutionsUsed)

	entries, err := f.executions.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, user.ID, entries[0].UserID)
	assert.Equal(t, "RUNNABLEKEY00001", entries[0].LicenseKey)
}

func TestRunProgram_GateRejections(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		user    *models.User
		wantErr error
	}{
		{"banned", &models.User{Banned: true, LicenseKey: strPtr("K"), LicenseExpires: &future}, domainErrors.ErrUserBanned},
		{"locked", &models.User{Locked: true}, domainErrors.ErrUserLocked},
		{"no license", &models.User{}, domainErrors.ErrNoActiveLicense},
		{"expired", &models.User{LicenseKey: strPtr("K"), LicenseExpires: &past}, domainErrors.ErrLicenseExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := f.users.add(tt.user)
			err := f.svc.RunProgram(ctx, user, now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.users.get(user.ID).ScriptExecutions)
		})
	}
}

func TestRunProgram_QuotaExhausted(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	user := f.users.add(&models.User{TelegramID: 500})
	require.NoError(t, f.licenses.Create(ctx, &models.License{
		Key:           "QUOTAKEY00000001",
		DurationDays:  7,
		MaxExecutions: 2,
	}))
	_, err := f.svc.Redeem(ctx, "QUOTAKEY00000001", user, now)
	require.NoError(t, err)
	user = f.users.get(user.ID)

	require.NoError(t, f.svc.RunProgram(ctx, user, now))
	require.NoError(t, f.svc.RunProgram(ctx, user, now))

	err = f.svc.RunProgram(ctx, user, now)
	assert.ErrorIs(t, err, domainErrors.ErrQuotaExhausted)

	// The rejected run must not have mutated any counter.
	assert.Equal(t, 2, f.users.get(user.ID).ScriptExecutions)
	license, err := f.licenses.FindByKey(ctx, "QUOTAKEY00000001")
	require.NoError(t, err)
	assert.Equal(t, 2, license.ExecutionsUsed)
	entries, err := f.executions.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestValidate_UnknownTelegramID(t *testing.T) {
	f := newLicenseFixture()
	outcome, user, err := f.svc.Validate(context.Background(), 999, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, models.OutcomeNotFound, outcome)
}

func TestBanThenUnban_RestoresValidity(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	user := f.users.add(&models.User{TelegramID: 600})
	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "BANCYCLEKEY00001", DurationDays: 7}))
	_, err := f.svc.Redeem(ctx, "BANCYCLEKEY00001", user, now)
	require.NoError(t, err)

	require.NoError(t, f.users.SetBanned(ctx, user.ID, true))
	outcome, _, err := f.svc.Validate(ctx, 600, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeBanned, outcome)

	require.NoError(t, f.users.SetBanned(ctx, user.ID, false))
	outcome, _, err = f.svc.Validate(ctx, 600, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeValid, outcome)
}

func TestResetThenRedeemFresh(t *testing.T) {
	f := newLicenseFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	user := f.users.add(&models.User{TelegramID: 700})
	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "FIRSTKEY00000001", DurationDays: 7}))
	_, err := f.svc.Redeem(ctx, "FIRSTKEY00000001", user, now)
	require.NoError(t, err)

	// Admin reset: clear binding, tombstone the old key.
	require.NoError(t, f.users.ClearLicense(ctx, user.ID))
	require.NoError(t, f.licenses.MarkReset(ctx, "FIRSTKEY00000001"))

	outcome, _, err := f.svc.Validate(ctx, 700, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoLicense, outcome)

	old, err := f.licenses.FindByKey(ctx, "FIRSTKEY00000001")
	require.NoError(t, err)
	assert.True(t, old.IsReset)
	assert.True(t, old.IsUsed)

	// The old key stays burned.
	_, err = f.svc.Redeem(ctx, "FIRSTKEY00000001", f.users.get(user.ID), now)
	assert.ErrorIs(t, err, domainErrors.ErrLicenseInvalidOrUsed)

	// A fresh key works.
	require.NoError(t, f.licenses.Create(ctx, &models.License{Key: "SECONDKEY0000001", DurationDays: 7}))
	_, err = f.svc.Redeem(ctx, "SECONDKEY0000001", f.users.get(user.ID), now)
	require.NoError(t, err)

	outcome, _, err = f.svc.Validate(ctx, 700, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeValid, outcome)
}

func TestOutcomeError_Mapping(t *testing.T) {
	tests := []struct {
		outcome models.ValidationOutcome
		wantErr error
	}{
		{models.OutcomeNotFound, domainErrors.ErrUserNotFound},
		{models.OutcomeBanned, domainErrors.ErrUserBanned},
		{models.OutcomeLocked, domainErrors.ErrUserLocked},
		{models.OutcomeNoLicense, domainErrors.ErrNoActiveLicense},
		{models.OutcomeExpired, domainErrors.ErrLicenseExpired},
		{models.OutcomeValid, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			if tt.wantErr == nil {
				assert.NoError(t, outcomeError(tt.outcome))
			} else {
				assert.ErrorIs(t, outcomeError(tt.outcome), tt.wantErr)
			}
		})
	}
}
