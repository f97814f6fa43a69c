package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret     string
	HTTPPort   string
	StoreName  string
	StoreOwner string
	StorePhone string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	storeName := os.Getenv("STORE_NAME")
	if storeName == "" {
		storeName = "Hassam Medical Store"
	}
	storeOwner := os.Getenv("STORE_OWNER")
	if storeOwner == "" {
		storeOwner = "Dr. Nasreem Shaikh"
	}
	storePhone := os.Getenv("STORE_PHONE")
	if storePhone == "" {
		storePhone = "0305-7071251"
	}

	return Config{
		Secret:     secret,
		HTTPPort:   port,
		StoreName:  storeName,
		StoreOwner: storeOwner,
		StorePhone: storePhone,
	}
}
