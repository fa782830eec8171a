// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/system/indexes"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/dalemusser/drshaadi/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// connectTimeout bounds the initial connect and ping of each backend.
const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client (and Redis, when configured) and
// verifies both are reachable before the app continues starting.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	logger.Info("connecting to MongoDB",
		zap.String("uri", maskURI(appCfg.MongoURI)),
		zap.String("database", appCfg.MongoDatabase))

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisAddr != "" {
		rdb, err := connectRedis(cctx, appCfg)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}
	deps.SendLimiter = newSendLimiter(appCfg, deps.Redis)

	return deps, nil
}

// newSendLimiter returns the per-number OTP send limiter: Redis-backed when
// Redis is configured so every instance shares the count, otherwise in
// memory. nil disables the limit.
func newSendLimiter(appCfg AppConfig, rdb *redis.Client) ratelimit.KeyLimiter {
	if appCfg.OTPSendLimit <= 0 {
		return nil
	}
	if rdb != nil {
		return ratelimit.NewRedis(rdb, "drshaadi:ratelimit:", appCfg.OTPSendLimit, appCfg.OTPSendWindow)
	}
	return ratelimit.New(appCfg.OTPSendLimit, appCfg.OTPSendWindow)
}

func connectRedis(ctx context.Context, appCfg AppConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         appCfg.RedisAddr,
		Password:     appCfg.RedisPassword,
		DB:           appCfg.RedisDB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", appCfg.RedisAddr, err)
	}
	return rdb, nil
}

// maskURI hides the password in a connection string for logging.
func maskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := strings.Index(uri, "://")
	colon := strings.LastIndex(uri[:at], ":")
	if colon <= scheme+2 {
		return uri
	}
	return uri[:colon+1] + "***" + uri[at:]
}

// EnsureSchema applies the configured store timeouts, then reconciles
// indexes and collection validators.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured", zap.String("database", deps.MongoDatabase.Name()))
	return nil
}
