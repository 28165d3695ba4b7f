package accounts

import (
	"context"

	"traderiser-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DestroyAccountSessions deletes every session:<sid> listed in
// user_sessions:<account_id>, then the set itself.
func DestroyAccountSessions(ctx context.Context, rdb *redis.Client, accountID string) {
	if accountID == "" {
		return
	}
	key := middleware.UserSessionsPrefix + accountID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
