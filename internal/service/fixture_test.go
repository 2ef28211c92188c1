package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/lock"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/storage"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	locker *lock.LocalLocker

	quoteRepo        *repository.QuoteRequestRepository
	notificationRepo *repository.NotificationRepository

	reconciler    *service.Reconciler
	notifications *service.NotificationService
	quotes        *service.QuoteRequestService
	dashboard     *service.DashboardService
	labels        *service.LabelService
	countries     *service.CountryService
	users         *service.UserService
	customers     *service.CustomerService
	broadcasts    *service.BroadcastService
	ideas         *service.IdeaService
	templates     *service.TemplateService
	deadlines     *service.DeadlineService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	quoteRepo := repository.NewQuoteRequestRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)
	countryRepo := repository.NewCountryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	f := &fixture{
		db:               db,
		locker:           lock.NewLocalLocker(),
		quoteRepo:        quoteRepo,
		notificationRepo: notificationRepo,
	}
	f.reconciler = service.NewReconciler(quoteRepo, labelRepo, logger)
	f.notifications = service.NewNotificationService(notificationRepo, countryRepo, logger)
	f.quotes = service.NewQuoteRequestService(
		quoteRepo, labelRepo, customerRepo,
		repository.NewModificationRepository(db),
		repository.NewMessageRepository(db),
		notificationRepo, f.reconciler, f.notifications, files, 1<<20, logger, db,
	)
	f.dashboard = service.NewDashboardService(quoteRepo, f.reconciler, logger)
	f.labels = service.NewLabelService(labelRepo, quoteRepo, logger, db)
	f.countries = service.NewCountryService(countryRepo, quoteRepo, userRepo, customerRepo, notificationRepo, logger, db)
	f.users = service.NewUserService(userRepo, logger)
	f.customers = service.NewCustomerService(customerRepo, quoteRepo, logger)
	f.broadcasts = service.NewBroadcastService(repository.NewBroadcastRepository(db), notificationRepo, logger, db)
	f.ideas = service.NewIdeaService(repository.NewIdeaRepository(db), logger)
	f.templates = service.NewTemplateService(repository.NewTemplateRepository(db), labelRepo, f.quotes, logger)
	f.deadlines = service.NewDeadlineService(quoteRepo, notificationRepo, f.reconciler, f.notifications, f.locker, nil, 0, logger)
	return f
}

func as(role domain.UserRole, countries ...string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		UID:         "uid-" + string(role),
		DisplayName: string(role),
		Email:       string(role) + "@example.com",
		Role:        role,
		Countries:   countries,
	})
}

func asProfile(u *domain.UserProfile) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    u.ID,
		UID:       *u.UID,
		Email:     u.Email,
		Role:      u.Role,
		Countries: u.Countries,
	})
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.QuoteRequest {
	t.Helper()
	var qr domain.QuoteRequest
	require.NoError(t, db.First(&qr, "id = ?", id).Error)
	return &qr
}
