package helpers

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Redis key builders for transient auth tokens.

func KeyVerifyToken(tok string) string { return "email:verify:token:" + tok }
func KeyResetToken(tok string) string  { return "pwd:reset:token:" + tok }
func KeySession(uid string) string     { return "user:session:" + uid }
