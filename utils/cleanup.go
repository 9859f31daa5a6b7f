package utils

import (
	"time"

	"github.com/dentio/brushtrack/config"
	"github.com/dentio/brushtrack/models"
)

// StartStatsPruner launches a background goroutine that periodically deletes
// daily stat rows older than the configured retention. Best-effort; failures
// are logged and retried on the next tick.
func StartStatsPruner(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing migrations at startup
			time.Sleep(interval)
			db := config.DB()
			retention := config.Get().StatsRetentionDays
			if retention <= 0 {
				continue
			}
			cutoff := time.Now().AddDate(0, 0, -retention)
			res := db.Where("date < ?", cutoff).Delete(&models.DailyStat{})
			if res.Error != nil {
				Sugar.Warnf("stats pruner delete failed: %v", res.Error)
				continue
			}
			if res.RowsAffected > 0 {
				Sugar.Infof("stats pruner removed %d rows older than %s", res.RowsAffected, cutoff.Format("2006-01-02"))
			}
		}
	}()
}
