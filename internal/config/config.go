package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultOutputFilename = "referral_commission_calculated.xlsx"
	XLSXContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Config struct {
	OutputDir      string
	OutputFilename string
	OutputSheet    string

	ReferralSheet    string
	TransactionSheet string

	PreviewRows int

	HTTPAddr    string
	MaxUploadMB int

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		OutputDir:      getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		OutputFilename: getEnv("OUTPUT_FILENAME", DefaultOutputFilename),
		OutputSheet:    getEnv("OUTPUT_SHEET", "Sheet1"),

		ReferralSheet:    getEnv("REFERRAL_SHEET", ""),
		TransactionSheet: getEnv("TRANSACTION_SHEET", ""),

		PreviewRows: getEnvInt("PREVIEW_ROWS", 20),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 32),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputFilename) == "" {
		return fmt.Errorf("OUTPUT_FILENAME must not be empty")
	}
	if strings.TrimSpace(c.OutputSheet) == "" {
		return fmt.Errorf("OUTPUT_SHEET must not be empty")
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("PREVIEW_ROWS must be >= 0, got %d", c.PreviewRows)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be > 0, got %d", c.MaxUploadMB)
	}
	return nil
}

func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFilename)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
