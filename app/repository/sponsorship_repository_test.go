package repository

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/CareFund/app/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Donor{}, &models.Admin{}, &models.Child{}, &models.Donation{}, &models.Sponsorship{}))
	return db
}

func newSponsorship(childID uint) *models.Sponsorship {
	return &models.Sponsorship{
		ChildID:       childID,
		SponsorName:   "Omar",
		SponsorEmail:  "omar@example.com",
		MonthlyAmount: 5000,
		StartDate:     time.Now(),
		Status:        models.SponsorshipStatusActive,
		PaymentMethod: models.PaymentMethodBankTransfer,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestCreateForChild(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	child := &models.Child{Name: "Sara", Age: 9}
	require.NoError(t, repos.Child.Create(child))

	s := newSponsorship(child.ID)
	require.NoError(t, repos.Sponsorship.CreateForChild(s))
	assert.NotZero(t, s.ID)
	assert.NotEmpty(t, s.ReceiptNumber)

	got, err := repos.Child.GetByID(child.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSponsored)

	err = repos.Sponsorship.CreateForChild(newSponsorship(child.ID))
	assert.ErrorIs(t, err, ErrChildAlreadySponsored)

	err = repos.Sponsorship.CreateForChild(newSponsorship(9999))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	available, err := repos.Child.ListAvailable(0, 10)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestCreateForChild_ConcurrentSponsorsOneWins(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	child := &models.Child{Name: "Sara", Age: 9}
	require.NoError(t, repos.Child.Create(child))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repos.Sponsorship.CreateForChild(newSponsorship(child.ID))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrChildAlreadySponsored):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, db.Model(&models.Sponsorship{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReleaseChild(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	child := &models.Child{Name: "Sara", Age: 9}
	require.NoError(t, repos.Child.Create(child))
	s := newSponsorship(child.ID)
	require.NoError(t, repos.Sponsorship.CreateForChild(s))

	require.NoError(t, repos.Sponsorship.ReleaseChild(s.ID))

	got, err := repos.Sponsorship.GetByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SponsorshipStatusEnded, got.Status)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
	assert.NotNil(t, got.EndDate)

	freed, err := repos.Child.GetByID(child.ID)
	require.NoError(t, err)
	assert.False(t, freed.IsSponsored)

	// The child can be sponsored again.
	require.NoError(t, repos.Sponsorship.CreateForChild(newSponsorship(child.ID)))

	assert.ErrorIs(t, repos.Sponsorship.ReleaseChild(s.ID), ErrSponsorshipNotPending)
	assert.ErrorIs(t, repos.Sponsorship.ReleaseChild(9999), gorm.ErrRecordNotFound)
}

func TestReleaseChild_KeepsCompletedSponsorship(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	child := &models.Child{Name: "Bilal", Age: 7}
	require.NoError(t, repos.Child.Create(child))
	s := newSponsorship(child.ID)
	require.NoError(t, repos.Sponsorship.CreateForChild(s))
	require.NoError(t, db.Model(s).Update("payment_status", models.PaymentStatusCompleted).Error)

	assert.ErrorIs(t, repos.Sponsorship.ReleaseChild(s.ID), ErrSponsorshipNotPending)

	got, err := repos.Child.GetByID(child.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSponsored)
}

func TestDonationRepository(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	donorID := uint(5)
	require.NoError(t, db.Create(&models.Donation{DonorName: "A", Amount: 1000, Category: models.DonationCategoryFood, DonorID: &donorID}).Error)
	require.NoError(t, db.Create(&models.Donation{DonorName: "B", Amount: 2500, Category: models.DonationCategoryGeneral}).Error)

	total, err := repos.Donation.TotalAmount()
	require.NoError(t, err)
	assert.EqualValues(t, 3500, total)

	n, err := repos.Donation.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	mine, err := repos.Donation.ListByDonor(donorID, 0, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].DonorName)

	page, err := repos.Donation.List(1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestDonorAndAdminRepositories(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)

	donor, err := models.CreateDonor("Ayesha", "ayesha@example.com", "long-enough")
	require.NoError(t, err)
	require.NoError(t, repos.Donor.Create(donor))

	got, err := repos.Donor.GetByEmail("AYESHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, donor.ID, got.ID)
	require.NoError(t, repos.Donor.TouchLastLogin(donor.ID))
	got, err = repos.Donor.GetByID(donor.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	n, err := repos.Admin.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, repos.Admin.Create(&models.Admin{Name: "Staff", Email: "staff@example.org", Password: "x", Status: models.STATUS_ACTIVE}))
	n, err = repos.Admin.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repos.Admin.GetByEmail("nobody@example.org")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
