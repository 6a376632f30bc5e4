package cache

import (
	"context"
	"log/slog"
)

// Key under the stats helper holding the catalog-wide aggregate snapshot
const PaperStatsKey = "papers"

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidatePaperCache drops a paper's cached record and every aggregate
// snapshot, since any paper mutation can change them
func InvalidatePaperCache(ctx context.Context, cm *CacheManager, paperID string) {
	SafeDelete(ctx, cm.Paper, "id:"+paperID)
	InvalidateStatsCache(ctx, cm)
}

// InvalidateStatsCache drops every key under the stats prefix
func InvalidateStatsCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
