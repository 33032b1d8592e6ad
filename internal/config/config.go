// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PhonePeConfig carries the payment gateway credentials and endpoints.
type PhonePeConfig struct {
	ClientID      string
	ClientSecret  string
	ClientVersion string
	BaseURL       string
	AuthURL       string
	// TokenTTL is how long a bearer token is reused before a lazy refresh.
	TokenTTL time.Duration
}

// PickupLocation is the registered warehouse shipments are picked up from.
type PickupLocation struct {
	Name    string
	Address string
	City    string
	PinCode string
	Country string
	Phone   string
}

// SellerDetails are the invoice/GST fields stamped on every manifest.
type SellerDetails struct {
	Name          string
	Address       string
	GSTTin        string
	InvoicePrefix string
}

// CustomerDefaults is the fallback profile the address normalizer substitutes
// field-by-field for missing input.
type CustomerDefaults struct {
	Name         string
	AddressLine1 string
	City         string
	State        string
	PinCode      string
	Phone        string
	Email        string
}

// DelhiveryConfig carries the carrier token, endpoints and manifest defaults.
type DelhiveryConfig struct {
	Token       string
	BaseURL     string
	TrackingURL string
	HSNCode     string
	Pickup      PickupLocation
	PickupState string
	Seller      SellerDetails
	Defaults    CustomerDefaults
}

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	PhonePe   PhonePeConfig
	Delhivery DelhiveryConfig

	// OutboundTimeout bounds every third-party call except manifest creation,
	// which gets the longer ManifestTimeout.
	OutboundTimeout time.Duration
	ManifestTimeout time.Duration

	RetentionWindow  time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// Load reads and validates configuration, substituting defaults for anything
// unset. Secrets have no defaults and must be provided.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  30 * time.Second,

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "keiway"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "payment-events"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "checkout-backend"),

		PhonePe: PhonePeConfig{
			ClientID:      os.Getenv("PHONEPE_CLIENT_ID"),
			ClientSecret:  os.Getenv("PHONEPE_CLIENT_SECRET"),
			ClientVersion: getEnv("PHONEPE_CLIENT_VERSION", "1"),
			BaseURL:       getEnv("PHONEPE_BASE_URL", "https://api.phonepe.com/apis/pg"),
			AuthURL:       getEnv("PHONEPE_AUTH_URL", "https://api.phonepe.com/apis/identity-manager"),
			TokenTTL:      50 * time.Minute,
		},
		Delhivery: DelhiveryConfig{
			Token:       os.Getenv("DELHIVERY_TOKEN"),
			BaseURL:     getEnv("DELHIVERY_BASE_URL", "https://track.delhivery.com"),
			TrackingURL: getEnv("DELHIVERY_TRACKING_URL", "https://track.delhivery.com"),
			HSNCode:     getEnv("DELHIVERY_HSN_CODE", "30049099"),
			Pickup: PickupLocation{
				Name:    getEnv("PICKUP_NAME", "Keiway Wellness Private Limited"),
				Address: getEnv("PICKUP_ADDRESS", "Shop no 201, Green City ,Hanumangarh town"),
				City:    getEnv("PICKUP_CITY", "Hanumangarh"),
				PinCode: getEnv("PICKUP_PIN", "335513"),
				Country: "India",
				Phone:   getEnv("PICKUP_PHONE", "9461230876"),
			},
			PickupState: getEnv("PICKUP_STATE", "Uttar Pradesh"),
			Seller: SellerDetails{
				Name:          getEnv("SELLER_NAME", "Keiway Wellness Store"),
				Address:       getEnv("SELLER_ADDRESS", "N-1/8 gka dalmia kothi lane 1, Varanasi, Uttar Pradesh - 221005"),
				GSTTin:        getEnv("SELLER_GST_TIN", "09ABCDE1234F2Z5"),
				InvoicePrefix: getEnv("SELLER_INVOICE_PREFIX", "KW"),
			},
			Defaults: CustomerDefaults{
				Name:         "Customer",
				AddressLine1: "New Abadi, Street No 18",
				City:         "Hanumangarh Town",
				State:        "Rajasthan",
				PinCode:      "335513",
				Phone:        "7800119990",
				Email:        "customer@example.com",
			},
		},

		OutboundTimeout: 15 * time.Second,
		ManifestTimeout: 30 * time.Second,

		RetentionWindow:  30 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
		CleanupBatchSize: 500,
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	outboundSec, err := getEnvInt("OUTBOUND_TIMEOUT_SEC", int(cfg.OutboundTimeout.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_TIMEOUT_SEC: %w", err)
	}
	if outboundSec <= 0 {
		return nil, fmt.Errorf("OUTBOUND_TIMEOUT_SEC must be > 0")
	}
	cfg.OutboundTimeout = time.Duration(outboundSec) * time.Second

	manifestSec, err := getEnvInt("MANIFEST_TIMEOUT_SEC", int(cfg.ManifestTimeout.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("invalid MANIFEST_TIMEOUT_SEC: %w", err)
	}
	if manifestSec <= 0 {
		return nil, fmt.Errorf("MANIFEST_TIMEOUT_SEC must be > 0")
	}
	cfg.ManifestTimeout = time.Duration(manifestSec) * time.Second

	retentionDays, err := getEnvInt("RETENTION_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_DAYS: %w", err)
	}
	if retentionDays <= 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must be > 0")
	}
	cfg.RetentionWindow = time.Duration(retentionDays) * 24 * time.Hour

	batch, err := getEnvInt("CLEANUP_BATCH_SIZE", cfg.CleanupBatchSize)
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_BATCH_SIZE: %w", err)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("CLEANUP_BATCH_SIZE must be > 0")
	}
	cfg.CleanupBatchSize = batch

	if cfg.PhonePe.ClientID == "" || cfg.PhonePe.ClientSecret == "" {
		return nil, fmt.Errorf("PHONEPE_CLIENT_ID and PHONEPE_CLIENT_SECRET are required")
	}
	if cfg.Delhivery.Token == "" {
		return nil, fmt.Errorf("DELHIVERY_TOKEN is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
