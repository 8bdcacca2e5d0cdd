package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/cache"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
)

const (
	CacheKeyListingsTotal = "statistics:listings:total"
	CacheKeyListingsDaily = "statistics:listings:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers         = "statistics:users:total"
	CacheKeySwapsTotal    = "statistics:swaps:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData contém os números exibidos na página inicial
type StatisticsData struct {
	TodayListings int
	TotalUsers    int
	TotalListings int
	TotalSwaps    int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache verifica se o cache precisa ser atualizado
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded atualiza o cache quando o intervalo expirou
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Atualizando cache de estatísticas...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Erro ao atualizar cache de estatísticas: %v", err)
		} else {
			log.Println("Cache de estatísticas atualizado com sucesso")
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer zera o timer de atualização do cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalListings int64
	if err := db.Model(&models.Property{}).
		Where("status = ?", models.PropertyStatusPublished).
		Count(&totalListings).Error; err != nil {
		log.Printf("Error counting listings: %v", err)
		return err
	}

	var todayListings int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Property{}).
		Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).
		Count(&todayListings).Error; err != nil {
		log.Printf("Error counting today's listings: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var totalSwaps int64
	if err := db.Model(&models.SwapProposal{}).
		Where("status = ?", models.ProposalStatusAccepted).
		Count(&totalSwaps).Error; err != nil {
		log.Printf("Error counting completed swaps: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyListingsTotal, strconv.FormatInt(totalListings, 10), CacheExpiration); err != nil {
		log.Printf("Error caching listing total: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyListingsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayListings, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's listings: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching user total: %v", err)
		return err
	}

	if err := cache.Set(CacheKeySwapsTotal, strconv.FormatInt(totalSwaps, 10), CacheExpiration); err != nil {
		log.Printf("Error caching swap total: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: listings=%d today=%d users=%d swaps=%d",
		totalListings, todayListings, totalUsers, totalSwaps)

	return nil
}

// GetTotalListings returns the number of published listings from cache or database
func GetTotalListings() int {
	return cachedInt(CacheKeyListingsTotal, func() int64 {
		var count int64
		if err := database.GetDB().Model(&models.Property{}).
			Where("status = ?", models.PropertyStatusPublished).
			Count(&count).Error; err != nil {
			log.Printf("Error counting listings: %v", err)
		}
		return count
	})
}

func cachedInt(key string, fallback func() int64) int {
	val, err := cache.Get(key)
	if err != nil {
		count := fallback()
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}

// GetTodayListings returns the number of listings created today
func GetTodayListings() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyListingsDaily, today)

	return cachedInt(dailyKey, func() int64 {
		var count int64
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)
		if err := database.GetDB().Model(&models.Property{}).
			Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).
			Count(&count).Error; err != nil {
			log.Printf("Error counting today's listings: %v", err)
		}
		return count
	})
}

// GetTotalUsers returns the total number of users
func GetTotalUsers() int {
	return cachedInt(CacheKeyUsers, func() int64 {
		var count int64
		if err := database.GetDB().Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting users: %v", err)
		}
		return count
	})
}

// GetTotalSwaps returns the number of accepted swap proposals
func GetTotalSwaps() int {
	return cachedInt(CacheKeySwapsTotal, func() int64 {
		var count int64
		if err := database.GetDB().Model(&models.SwapProposal{}).
			Where("status = ?", models.ProposalStatusAccepted).
			Count(&count).Error; err != nil {
			log.Printf("Error counting completed swaps: %v", err)
		}
		return count
	})
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayListings: GetTodayListings(),
		TotalUsers:    GetTotalUsers(),
		TotalListings: GetTotalListings(),
		TotalSwaps:    GetTotalSwaps(),
	}
}
