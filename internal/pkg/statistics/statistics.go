package statistics

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/internal/pkg/cache"
	"github.com/ManuelReschke/CareFund/internal/pkg/database"
)

const (
	CacheKeyImpact  = "carefund:statistics:impact"
	CacheExpiration = 30 * time.Minute
)

// ImpactData holds the public totals shown on the donate page. Amounts are in
// the base currency.
type ImpactData struct {
	TotalDonations     int64 `json:"totalDonations"`
	TotalRaised        int64 `json:"totalRaised"`
	SponsoredChildren  int64 `json:"sponsoredChildren"`
	ActiveSponsorships int64 `json:"activeSponsorships"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached totals are older than the update interval
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// ResetCacheUpdateTimer forces the next GetImpactData call to recompute.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	lastCacheUpdate = time.Time{}
}

// Collect computes the totals directly from the database.
func Collect(db *gorm.DB) (ImpactData, error) {
	var data ImpactData

	if err := db.Model(&models.Donation{}).Count(&data.TotalDonations).Error; err != nil {
		return data, err
	}
	if err := db.Model(&models.Donation{}).Select("COALESCE(SUM(amount), 0)").Scan(&data.TotalRaised).Error; err != nil {
		return data, err
	}
	if err := db.Model(&models.Child{}).Where("is_sponsored = ?", true).Count(&data.SponsoredChildren).Error; err != nil {
		return data, err
	}
	if err := db.Model(&models.Sponsorship{}).
		Where("status = ? AND payment_status = ?", models.SponsorshipStatusActive, models.PaymentStatusCompleted).
		Count(&data.ActiveSponsorships).Error; err != nil {
		return data, err
	}
	return data, nil
}

// UpdateStatisticsCache recomputes the totals and stores them in the cache
func UpdateStatisticsCache() (ImpactData, error) {
	data, err := Collect(database.GetDB())
	if err != nil {
		log.Printf("Error collecting impact statistics: %v", err)
		return data, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return data, err
	}
	if err := cache.Set(CacheKeyImpact, string(raw), CacheExpiration); err != nil {
		log.Printf("Error caching impact statistics: %v", err)
		return data, err
	}

	cacheUpdateMutex.Lock()
	lastCacheUpdate = time.Now()
	cacheUpdateMutex.Unlock()
	return data, nil
}

// GetImpactData returns the totals from cache, recomputing them when stale or
// when the cache is unreachable.
func GetImpactData() ImpactData {
	if !ShouldUpdateCache() {
		if raw, err := cache.Get(CacheKeyImpact); err == nil {
			var data ImpactData
			if json.Unmarshal([]byte(raw), &data) == nil {
				return data
			}
		}
	}

	data, err := UpdateStatisticsCache()
	if err != nil && data == (ImpactData{}) {
		log.Printf("Impact statistics unavailable: %v", err)
	}
	return data
}

// Invalidate marks the cached totals stale on this instance, called after a
// donation is recorded.
func Invalidate() {
	ResetCacheUpdateTimer()
}
