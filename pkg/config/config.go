package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// MpesaConfig holds the Daraja gateway credentials and endpoints.
type MpesaConfig struct {
	ConsumerKey        string
	ConsumerSecret     string
	Passkey            string
	InitiatorName      string
	SecurityCredential string
	B2CCommandID       string
	AuthURL            string
	StkPushURL         string
	B2CPaymentURL      string
	CallbackURL        string
	B2CResultURL       string
	Timeout            time.Duration
}

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string

	// LendingRatio caps the share of cash at hand the group will lend out.
	LendingRatio decimal.Decimal

	// CallbackRateLimit is the ulule/limiter formatted rate applied to the
	// public gateway callback routes, e.g. "60-M".
	CallbackRateLimit string

	KafkaBrokers []string
	KafkaTopic   string

	Mpesa MpesaConfig
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("LENDING_RATIO", "0.4")
	viper.SetDefault("CALLBACK_RATE_LIMIT", "60-M")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "treasury-events")
	viper.SetDefault("MPESA_CONSUMER_KEY", "")
	viper.SetDefault("MPESA_CONSUMER_SECRET", "")
	viper.SetDefault("MPESA_PASSKEY", "")
	viper.SetDefault("MPESA_INITIATOR_NAME", "")
	viper.SetDefault("MPESA_SECURITY_CREDENTIAL", "")
	viper.SetDefault("MPESA_B2C_COMMAND_ID", "BusinessPayment")
	viper.SetDefault("MPESA_AUTH_URL", "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials")
	viper.SetDefault("MPESA_STK_PUSH_URL", "https://sandbox.safaricom.co.ke/mpesa/stkpush/v1/processrequest")
	viper.SetDefault("MPESA_B2C_PAYMENT_URL", "https://sandbox.safaricom.co.ke/mpesa/b2c/v1/paymentrequest")
	viper.SetDefault("MPESA_CALLBACK_URL", "")
	viper.SetDefault("MPESA_B2C_RESULT_URL", "")
	viper.SetDefault("MPESA_TIMEOUT", "30s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	ratioStr := viper.GetString("LENDING_RATIO")
	ratio, err := decimal.NewFromString(ratioStr)
	if err != nil || !ratio.IsPositive() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		log.Printf("Warning: Invalid value for LENDING_RATIO ('%s'). Defaulting to 0.4.\n", ratioStr)
		ratio = decimal.RequireFromString("0.4")
	}
	cfg.LendingRatio = ratio

	cfg.CallbackRateLimit = viper.GetString("CALLBACK_RATE_LIMIT")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = viper.GetStringSlice("KAFKA_BROKERS")
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")

	timeoutStr := viper.GetString("MPESA_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Printf("Warning: Invalid value for MPESA_TIMEOUT ('%s'). Defaulting to 30s.\n", timeoutStr)
		timeout = 30 * time.Second
	}

	cfg.Mpesa = MpesaConfig{
		ConsumerKey:        viper.GetString("MPESA_CONSUMER_KEY"),
		ConsumerSecret:     viper.GetString("MPESA_CONSUMER_SECRET"),
		Passkey:            viper.GetString("MPESA_PASSKEY"),
		InitiatorName:      viper.GetString("MPESA_INITIATOR_NAME"),
		SecurityCredential: viper.GetString("MPESA_SECURITY_CREDENTIAL"),
		B2CCommandID:       viper.GetString("MPESA_B2C_COMMAND_ID"),
		AuthURL:            viper.GetString("MPESA_AUTH_URL"),
		StkPushURL:         viper.GetString("MPESA_STK_PUSH_URL"),
		B2CPaymentURL:      viper.GetString("MPESA_B2C_PAYMENT_URL"),
		CallbackURL:        viper.GetString("MPESA_CALLBACK_URL"),
		B2CResultURL:       viper.GetString("MPESA_B2C_RESULT_URL"),
		Timeout:            timeout,
	}
	if cfg.Mpesa.ConsumerKey == "" {
		log.Println("Warning: MPESA_CONSUMER_KEY not set. Gateway dispatch will not function.")
	}

	return cfg, nil
}
