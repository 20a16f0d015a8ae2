// Package bootstrap wires shared runtime dependencies for the binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/filipinovation/clinic-booking/internal/config"
	"github.com/filipinovation/clinic-booking/internal/clinicprefs"
	"github.com/filipinovation/clinic-booking/internal/notify"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// With verify set, an unreachable Redis degrades to nil instead of failing.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, clinic preferences fall back to defaults", "error", err)
		return nil
	}
	return client
}

// BuildPrefsStore wires the clinic preference store when Redis is available.
func BuildPrefsStore(client *redis.Client, logger *logging.Logger) *clinicprefs.Store {
	if client == nil {
		return nil
	}
	return clinicprefs.NewStore(client, logger)
}

// BuildEmailSender picks the email provider from configuration.
// Falls back to the stub sender when the chosen provider is not usable.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but no API key configured, using stub sender")
	}
	return notify.NewStubEmailSender(logger)
}
