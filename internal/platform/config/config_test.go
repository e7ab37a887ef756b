package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseEnv(extra map[string]string) map[string]string {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID":   "swiftcart-dev",
		"API_STORAGE_ASSETS_BUCKET": "swiftcart-assets-dev",
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

func mustLoad(t *testing.T, env map[string]string, opts ...Option) Config {
	t.Helper()
	all := append([]Option{WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("")}, opts...)
	cfg, err := Load(context.Background(), all...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoadWithDefaults(t *testing.T) {
	cfg := mustLoad(t, baseEnv(nil))

	if got, want := cfg.Server.Port, "8080"; got != want {
		t.Errorf("Server.Port = %s, want %s", got, want)
	}
	if got, want := cfg.Server.ReadTimeout, 15*time.Second; got != want {
		t.Errorf("Server.ReadTimeout = %s, want %s", got, want)
	}
	if got := cfg.Firestore.ProjectID; got != "swiftcart-dev" {
		t.Errorf("Firestore.ProjectID should inherit the Firebase project, got %s", got)
	}
	if got := cfg.PubSub.ProjectID; got != "swiftcart-dev" {
		t.Errorf("PubSub.ProjectID should inherit the Firebase project, got %s", got)
	}
	if got := cfg.PubSub.OrderEventsTopic; got != defaultOrderEventsTopic {
		t.Errorf("PubSub.OrderEventsTopic = %s, want %s", got, defaultOrderEventsTopic)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis should stay disabled without an addr, got %s", cfg.Redis.Addr)
	}
	if got := cfg.Payments.Currency; got != "INR" {
		t.Errorf("Payments.Currency = %s, want INR", got)
	}
	if got := cfg.RateLimits.DefaultPerMinute; got != 120 {
		t.Errorf("RateLimits.DefaultPerMinute = %d, want 120", got)
	}
	if got := cfg.RateLimits.PaymentOrdersPerMinute; got != defaultRateLimitPayment {
		t.Errorf("RateLimits.PaymentOrdersPerMinute = %d, want %d", got, defaultRateLimitPayment)
	}
	if !cfg.Features.EnableOrderEvents {
		t.Error("Features.EnableOrderEvents should default to true")
	}
	if got := cfg.Idempotency.Header; got != defaultIdempotencyHeader {
		t.Errorf("Idempotency.Header = %s, want %s", got, defaultIdempotencyHeader)
	}
	if got := cfg.Idempotency.TTL; got != defaultIdempotencyTTL {
		t.Errorf("Idempotency.TTL = %s, want %s", got, defaultIdempotencyTTL)
	}
	if got := cfg.Idempotency.CleanupInterval; got != defaultIdempotencyInterval {
		t.Errorf("Idempotency.CleanupInterval = %s, want %s", got, defaultIdempotencyInterval)
	}
	if got := cfg.Idempotency.CleanupBatchSize; got != defaultIdempotencyBatchSize {
		t.Errorf("Idempotency.CleanupBatchSize = %d, want %d", got, defaultIdempotencyBatchSize)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                  "9090",
		"API_SERVER_READ_TIMEOUT":          "20s",
		"API_SERVER_WRITE_TIMEOUT":         "25s",
		"API_SERVER_IDLE_TIMEOUT":          "2m",
		"API_FIREBASE_PROJECT_ID":          "swiftcart-prod",
		"API_FIRESTORE_PROJECT_ID":         "swiftcart-fire",
		"API_STORAGE_ASSETS_BUCKET":        "assets-prod",
		"API_REDIS_ADDR":                   "10.0.0.5:6379",
		"API_REDIS_PASSWORD":               "secret://redis/password",
		"API_REDIS_DB":                     "2",
		"API_PAYMENTS_KEY_ID":              "rzp_live_key",
		"API_PAYMENTS_KEY_SECRET":          "secret://payments/key",
		"API_PAYMENTS_CURRENCY":            "usd",
		"API_PUBSUB_PROJECT_ID":            "swiftcart-events",
		"API_PUBSUB_ORDER_EVENTS_TOPIC":    "orders-prod",
		"API_RATELIMIT_DEFAULT_PER_MIN":    "150",
		"API_RATELIMIT_AUTH_PER_MIN":       "300",
		"API_RATELIMIT_PAYMENT_PER_MIN":    "20",
		"API_FEATURE_ORDER_EVENTS":         "false",
		"API_FEATURE_SALE_MODES":           "true",
		"API_IDEMPOTENCY_HEADER":           "X-Idem-Key",
		"API_IDEMPOTENCY_TTL":              "48h",
		"API_IDEMPOTENCY_CLEANUP_INTERVAL": "30m",
		"API_IDEMPOTENCY_CLEANUP_BATCH":    "500",
	}

	secrets := map[string]string{
		"secret://payments/key":   "rzp-secret",
		"secret://redis/password": "redis-secret",
	}
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg := mustLoad(t, env, WithSecretResolver(resolver))

	if got, want := cfg.Server.Port, "9090"; got != want {
		t.Errorf("Server.Port = %s, want %s", got, want)
	}
	if got, want := cfg.Server.IdleTimeout, 2*time.Minute; got != want {
		t.Errorf("Server.IdleTimeout = %s, want %s", got, want)
	}
	if cfg.Redis.Addr != "10.0.0.5:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v, want addr 10.0.0.5:6379 db 2", cfg.Redis)
	}
	if got := cfg.Redis.Password; got != "redis-secret" {
		t.Errorf("Redis.Password = %s, want resolved value", got)
	}
	if got := cfg.Payments.KeyID; got != "rzp_live_key" {
		t.Errorf("Payments.KeyID = %s", got)
	}
	if got := cfg.Payments.KeySecret; got != "rzp-secret" {
		t.Errorf("Payments.KeySecret = %s, want resolved value", got)
	}
	if got := cfg.Payments.Currency; got != "USD" {
		t.Errorf("Payments.Currency = %s, want USD uppercased", got)
	}
	if cfg.PubSub.ProjectID != "swiftcart-events" || cfg.PubSub.OrderEventsTopic != "orders-prod" {
		t.Errorf("PubSub = %+v", cfg.PubSub)
	}
	if got := cfg.RateLimits.PaymentOrdersPerMinute; got != 20 {
		t.Errorf("RateLimits.PaymentOrdersPerMinute = %d, want 20", got)
	}
	if cfg.Features.EnableOrderEvents {
		t.Error("Features.EnableOrderEvents should be off")
	}
	if !cfg.Features.EnableSaleModes {
		t.Error("Features.EnableSaleModes should be on")
	}
	if got := cfg.Idempotency.Header; got != "X-Idem-Key" {
		t.Errorf("Idempotency.Header = %s", got)
	}
	if got, want := cfg.Idempotency.TTL, 48*time.Hour; got != want {
		t.Errorf("Idempotency.TTL = %s, want %s", got, want)
	}
	if got, want := cfg.Idempotency.CleanupInterval, 30*time.Minute; got != want {
		t.Errorf("Idempotency.CleanupInterval = %s, want %s", got, want)
	}
	if got := cfg.Idempotency.CleanupBatchSize; got != 500 {
		t.Errorf("Idempotency.CleanupBatchSize = %d, want 500", got)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_FIREBASE_PROJECT_ID=swiftcart-dot\nAPI_STORAGE_ASSETS_BUCKET=assets-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Server.Port; got != "7070" {
		t.Errorf("Server.Port = %s, want 7070 from the dotenv file", got)
	}
	if got := cfg.Firebase.ProjectID; got != "swiftcart-dot" {
		t.Errorf("Firebase.ProjectID = %s, want swiftcart-dot from the dotenv file", got)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(nil), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v (%T), want ValidationError", err, err)
	}
	if len(validation.Fields()) == 0 {
		t.Error("ValidationError should name the missing fields")
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := baseEnv(map[string]string{
		"API_PAYMENTS_KEY_SECRET": "secret://missing",
	})

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("err = %v (%T), want SecretError", err, err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("SecretError.Ref = %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env.test")
	content := "API_FIREBASE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("writing dotenv file: %v", err)
	}

	t.Setenv("API_FIREBASE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(map[string]string{
		"API_FIREBASE_PROJECT_ID": "override-project",
		"API_SECRET_VERSION_PINS": "secret://payments/key=5",
	}))
	if err != nil {
		t.Fatalf("EnvironmentValues: %v", err)
	}

	// Explicit map beats process env beats dotenv.
	if got := values["API_FIREBASE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("API_FIREBASE_PROJECT_ID = %s, want override-project", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("API_SECRET_FALLBACK_FILE = %s, want dotenv value", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("API_SECRET_PROJECT_IDS = %s, want process env value", got)
	}
	if got := values["API_SECRET_VERSION_PINS"]; got != "secret://payments/key=5" {
		t.Fatalf("API_SECRET_VERSION_PINS = %s, want explicit map value", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(baseEnv(nil)),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Payments.KeySecret"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v (%T), want MissingSecretsError", err, err)
	}
	want := redactSecretName("Payments.KeySecret")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != want {
		t.Fatalf("RedactedNames() = %v, want [%s]", got, want)
	}
}

func TestLoadMissingRequiredSecretsPanic(t *testing.T) {
	defer func() {
		rec := recover()
		missing, ok := rec.(*MissingSecretsError)
		if !ok {
			t.Fatalf("recover() = %v (%T), want MissingSecretsError", rec, rec)
		}
		if names := missing.Names(); len(names) != 1 || names[0] != "Payments.KeySecret" {
			t.Fatalf("Names() = %v", names)
		}
	}()

	Load(context.Background(),
		WithEnvMap(baseEnv(nil)),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Payments.KeySecret"),
		WithPanicOnMissingSecrets(),
	)
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := baseEnv(map[string]string{
		"API_PAYMENTS_KEY_SECRET": "sm://payments/key",
	})

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref == "secret://payments/key" {
			return "legacy-secret", nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg := mustLoad(t, env, WithSecretResolver(resolver))
	if got := cfg.Payments.KeySecret; got != "legacy-secret" {
		t.Fatalf("Payments.KeySecret = %s, want the sm:// ref resolved via secret://", got)
	}
}
