// api/db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func setEncrypted(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	encrypted, err := encrypt(payload)
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}

	if err := RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encrypted), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache value: %w", err)
	}
	return nil
}

func getEncrypted(ctx context.Context, key string, out interface{}) error {
	encoded, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}

	payload, err := decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("failed to decrypt cached value: %w", err)
	}

	return json.Unmarshal(payload, out)
}

func CachePolicy(ctx context.Context, policy *model.Policy) error {
	key := fmt.Sprintf("policy:%s", policy.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	if err := setEncrypted(ctx, key, policy, defaultTTL); err != nil {
		return err
	}

	logger.Debug("Policy cached successfully", zap.String("policyID", policy.ID))
	return nil
}

func GetCachedPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	key := fmt.Sprintf("policy:%s", policyID)
	var policy model.Policy
	if err := getEncrypted(ctx, key, &policy); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

func DeleteCachedPolicy(ctx context.Context, policyID string) error {
	key := fmt.Sprintf("policy:%s", policyID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached policy: %w", err)
	}
	return nil
}

// CacheDecision stores a recent access decision keyed by the request tuple so
// that repeated identical requests within the TTL skip re-evaluation across
// instances.
func CacheDecision(ctx context.Context, requestKey string, decision *model.AccessDecision) error {
	key := fmt.Sprintf("decision:%s", requestKey)
	ttl := viper.GetDuration("engine.decisionCacheTTL")
	if err := setEncrypted(ctx, key, decision, ttl); err != nil {
		return err
	}

	logger.Debug("Decision cached successfully", zap.String("key", requestKey))
	return nil
}

func GetCachedDecision(ctx context.Context, requestKey string) (*model.AccessDecision, error) {
	key := fmt.Sprintf("decision:%s", requestKey)
	var decision model.AccessDecision
	if err := getEncrypted(ctx, key, &decision); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &decision, nil
}

// RateLimit implements a fixed-window limiter on Redis. Returns whether the
// caller identified by key is still within limit for the current window.
func RateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := RedisClient.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := RedisClient.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}
