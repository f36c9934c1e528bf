package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OUTPUT_DIR", "OUTPUT_FILENAME", "OUTPUT_SHEET", "REFERRAL_SHEET", "TRANSACTION_SHEET", "PREVIEW_ROWS", "HTTP_ADDR", "MAX_UPLOAD_MB", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("OUTPUT_DIR", "/tmp/commissions")
	t.Setenv("OUTPUT_FILENAME", DefaultOutputFilename)
	t.Setenv("OUTPUT_SHEET", "Sheet1")
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PreviewRows != 20 || cfg.MaxUploadMB != 32 {
		t.Fatalf("int fallbacks: %+v", cfg)
	}
	if cfg.OutputPath() != filepath.Join("/tmp/commissions", DefaultOutputFilename) {
		t.Fatalf("output path=%q", cfg.OutputPath())
	}
	if cfg.ReferralSheet != "" || cfg.TransactionSheet != "" {
		t.Fatalf("sheets should default to first sheet: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OUTPUT_FILENAME", "june.xlsx")
	t.Setenv("OUTPUT_SHEET", "Commissions")
	t.Setenv("PREVIEW_ROWS", "5")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("REFERRAL_SHEET", "Rates")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputFilename != "june.xlsx" || cfg.OutputSheet != "Commissions" || cfg.PreviewRows != 5 || cfg.ReferralSheet != "Rates" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.MaxUploadMB != 32 {
		t.Fatalf("bad int should fall back, got %d", cfg.MaxUploadMB)
	}
}

func TestValidate(t *testing.T) {
	base := Config{OutputFilename: DefaultOutputFilename, OutputSheet: "Sheet1", PreviewRows: 20, MaxUploadMB: 32}
	if err := base.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := map[string]func(*Config){
		"empty filename": func(c *Config) { c.OutputFilename = " " },
		"empty sheet":    func(c *Config) { c.OutputSheet = "" },
		"negative rows":  func(c *Config) { c.PreviewRows = -1 },
		"zero upload":    func(c *Config) { c.MaxUploadMB = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
