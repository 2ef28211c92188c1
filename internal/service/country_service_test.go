package service_test

import (
	"context"
	"testing"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryService_RenameCascades(t *testing.T) {
	f := newFixture(t)
	admin := as(domain.RoleSuperAdmin)

	norway, err := f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Norway", Code: "no"})
	require.NoError(t, err)
	assert.Equal(t, "NO", norway.Code)
	_, err = f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Sweden"})
	require.NoError(t, err)

	outbound := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	inbound := testutil.CreateQuoteRequest(t, f.db, "Sweden", "Norway")
	user := testutil.CreateUser(t, f.db, "ola@example.com", domain.RoleUser, "Norway", "Sweden")
	testutil.CreateUser(t, f.db, "sven@example.com", domain.RoleUser, "Sweden")
	_, err = f.customers.Create(admin, &domain.CreateCustomerRequest{Name: "Fjord AS", Country: "Norway"})
	require.NoError(t, err)
	_, err = f.notifications.UpdateSettings(admin, "Norway", &domain.UpdateNotificationSettingsRequest{StartDateWarningDays: 5, EndDateWarningDays: 2, Enabled: true})
	require.NoError(t, err)
	f.notifications.NotifyCountry(context.Background(), &domain.Notification{
		TargetCountry: "Norway", Type: domain.NotificationTypeBroadcast, Title: "hi", Message: "hello",
	})

	result, err := f.countries.Update(admin, norway.ID, &domain.UpdateCountryRequest{Name: "Noreg", Code: "NO"})
	require.NoError(t, err)

	assert.Equal(t, "Noreg", result.Country.Name)
	assert.Equal(t, int64(2), result.QuoteRequestsUpdated)
	assert.Equal(t, int64(1), result.UsersUpdated)
	assert.Equal(t, int64(1), result.CustomersUpdated)
	assert.Equal(t, int64(1), result.SettingsUpdated)
	assert.Equal(t, int64(1), result.NotificationsUpdated)

	assert.Equal(t, "Noreg", reload(t, f.db, outbound.ID).CreatorCountry)
	assert.Equal(t, "Noreg", reload(t, f.db, inbound.ID).InvolvedCountry)

	var profile domain.UserProfile
	require.NoError(t, f.db.First(&profile, "id = ?", user.ID).Error)
	assert.Equal(t, []string{"Noreg", "Sweden"}, []string(profile.Countries))

	t.Run("name collision", func(t *testing.T) {
		_, err := f.countries.Update(admin, norway.ID, &domain.UpdateCountryRequest{Name: "Sweden"})
		assert.ErrorIs(t, err, service.ErrCountryExists)

		_, err = f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Noreg"})
		assert.ErrorIs(t, err, service.ErrCountryExists)
	})

	t.Run("referenced country cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, f.countries.Delete(admin, norway.ID), service.ErrCountryInUse)
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := f.countries.Create(as(domain.RoleUser, "Norway"), &domain.CreateCountryRequest{Name: "Iceland"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestCountryService_DeleteUnused(t *testing.T) {
	f := newFixture(t)
	admin := as(domain.RoleAdmin)

	iceland, err := f.countries.Create(admin, &domain.CreateCountryRequest{Name: "Iceland"})
	require.NoError(t, err)
	require.NoError(t, f.countries.Delete(admin, iceland.ID))

	countries, err := f.countries.List(admin)
	require.NoError(t, err)
	assert.Empty(t, countries)

	assert.ErrorIs(t, f.countries.Delete(admin, iceland.ID), service.ErrCountryNotFound)
}
