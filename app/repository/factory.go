package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

func (f *Factory) GetDonorRepository() DonorRepository {
	return f.GetRepositories().Donor
}

func (f *Factory) GetAdminRepository() AdminRepository {
	return f.GetRepositories().Admin
}

func (f *Factory) GetChildRepository() ChildRepository {
	return f.GetRepositories().Child
}

func (f *Factory) GetDonationRepository() DonationRepository {
	return f.GetRepositories().Donation
}

func (f *Factory) GetSponsorshipRepository() SponsorshipRepository {
	return f.GetRepositories().Sponsorship
}

// Global factory instance
var (
	globalFactory *Factory
	factoryMu     sync.RWMutex
)

// InitializeFactory initializes the global repository factory. Calling it
// again replaces the factory, which tests rely on.
func InitializeFactory(db *gorm.DB) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	globalFactory = NewFactory(db)
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
