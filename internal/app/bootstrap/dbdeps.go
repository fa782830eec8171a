// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil unless redis_addr is configured.
	Redis *redis.Client

	// SendLimiter counts OTP sends per mobile number; nil when
	// otp_send_limit is 0. Shutdown stops it.
	SendLimiter ratelimit.KeyLimiter
}
