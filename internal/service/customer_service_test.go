package service_test

import (
	"testing"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Nearby(t *testing.T) {
	f := newFixture(t)
	norway := as(domain.RoleUser, "Norway")

	customer, err := f.customers.Create(norway, &domain.CreateCustomerRequest{Name: "Bygg AS", Country: "Norway"})
	require.NoError(t, err)
	for _, js := range []domain.CreateJobsiteRequest{
		{Name: "Drammen", Latitude: 59.7439, Longitude: 10.2045},
		{Name: "Oslo", Latitude: 59.9139, Longitude: 10.7522},
		{Name: "Bergen", Latitude: 60.3913, Longitude: 5.3221},
	} {
		_, err := f.customers.CreateJobsite(norway, customer.ID, &js)
		require.NoError(t, err)
	}

	matches, err := f.customers.Nearby(norway, 59.9139, 10.7522, 50)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Oslo", matches[0].Name)
	assert.Equal(t, "Drammen", matches[1].Name)
	require.NotNil(t, matches[1].DistanceKm)
	assert.InDelta(t, 35, *matches[1].DistanceKm, 5)

	t.Run("other countries see nothing", func(t *testing.T) {
		matches, err := f.customers.Nearby(as(domain.RoleUser, "Sweden"), 59.9139, 10.7522, 50)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.customers.Nearby(norway, 95, 10, 10)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		_, err = f.customers.Nearby(norway, 59, 10, 5000)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		_, err = f.customers.CreateJobsite(norway, customer.ID, &domain.CreateJobsiteRequest{Name: "x", Latitude: 10, Longitude: 200})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestCustomerService_Visibility(t *testing.T) {
	f := newFixture(t)
	norway := as(domain.RoleUser, "Norway")

	_, err := f.customers.Create(norway, &domain.CreateCustomerRequest{Name: "Svensk AB", Country: "Sweden"})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	customer, err := f.customers.Create(norway, &domain.CreateCustomerRequest{Name: "Bygg AS", Country: "Norway"})
	require.NoError(t, err)

	_, err = f.customers.GetByID(as(domain.RoleUser, "Sweden"), customer.ID)
	assert.ErrorIs(t, err, service.ErrCustomerNotFound)

	page, err := f.customers.List(as(domain.RoleAdmin), 1, 10, "bygg", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestCustomerService_DeleteReferencedCustomer(t *testing.T) {
	f := newFixture(t)
	norway := as(domain.RoleUser, "Norway")

	customer, err := f.customers.Create(norway, &domain.CreateCustomerRequest{Name: "Bygg AS", Country: "Norway"})
	require.NoError(t, err)
	qr := testutil.CreateQuoteRequest(t, f.db, "Norway", "Sweden")
	require.NoError(t, f.db.Model(qr).Update("customer_id", customer.ID).Error)

	assert.ErrorIs(t, f.customers.Delete(norway, customer.ID), service.ErrCustomerInUse)

	require.NoError(t, f.db.Model(qr).Update("customer_id", nil).Error)
	require.NoError(t, f.customers.Delete(norway, customer.ID))

	_, err = f.customers.GetByID(norway, customer.ID)
	assert.ErrorIs(t, err, service.ErrCustomerNotFound)
}
