package main

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain loads .env when present so config-driven tests see local settings.
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}
