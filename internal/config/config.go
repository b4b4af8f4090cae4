package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// VNPay merchant credentials and endpoints
	VNPTmnCode    string
	VNPHashSecret string
	VNPPayURL     string
	VNPReturnURL  string
	VNPIpnURL     string

	// Optional event bus; payment events are skipped when empty.
	KafkaBrokers []string
	KafkaTopic   string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		VNPTmnCode:    os.Getenv("VNP_TMN_CODE"),
		VNPHashSecret: os.Getenv("VNP_HASH_SECRET"),
		VNPPayURL:     os.Getenv("VNP_PAY_URL"),
		VNPReturnURL:  os.Getenv("VNP_RETURN_URL"),
		VNPIpnURL:     os.Getenv("VNP_IPN_URL"),

		KafkaTopic: os.Getenv("KAFKA_PAYMENT_TOPIC"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	// A missing signing secret would make every redirect unverifiable and
	// every callback fail checksum. Refuse to start instead.
	if cfg.VNPHashSecret == "" {
		log.Fatal("VNP_HASH_SECRET is required")
	}
	if cfg.VNPTmnCode == "" {
		log.Fatal("VNP_TMN_CODE is required")
	}

	if cfg.VNPPayURL == "" {
		cfg.VNPPayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	}

	return cfg
}
