package utils

import (
	"context"
	"time"
)

// IsTokenBlacklisted reports whether the platform's auth service revoked a
// token before its natural expiration. Logout writes the blacklist keys into
// the shared Redis; this service only reads them. When Redis is unreachable
// the token is treated as valid, matching the rest of the platform.
func IsTokenBlacklisted(token string) bool {
	rc := GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := rc.Exists(ctx, "jwt:blacklist:"+token).Result()
	if err != nil {
		return false
	}
	return n > 0
}
