package main

import (
	"fmt"
	"os"
)

// Config bundles the environment-driven knobs for the demo kernel
// binary, loaded once at startup the way fluxforge/agent/config.go
// and control_plane/main.go load theirs: os.Getenv plus fmt.Sscanf,
// sane defaults, no config file or flag library.
type Config struct {
	ListenAddr       string
	TickRateHz       uint64
	RegistryCapacity int
	EDFEnabled       bool
	PostgresDSN      string // empty => in-memory history store
	RedisAddr        string // empty => in-memory admission cache
	AdmissionTestRPS float64
	AdmissionTestBurst int
}

// LoadConfig reads the process environment into a Config, falling
// back to demo-friendly defaults for anything unset.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:         ":8080",
		TickRateHz:         1000,
		RegistryCapacity:   128,
		EDFEnabled:         true,
		AdmissionTestRPS:   5,
		AdmissionTestBurst: 10,
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TICK_RATE_HZ"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.TickRateHz)
	}
	if v := os.Getenv("REGISTRY_CAPACITY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.RegistryCapacity)
	}
	if v := os.Getenv("EDF_ENABLED"); v != "" {
		cfg.EDFEnabled = v != "false" && v != "0"
	}
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if v := os.Getenv("ADMISSION_TEST_RPS"); v != "" {
		fmt.Sscanf(v, "%f", &cfg.AdmissionTestRPS)
	}
	if v := os.Getenv("ADMISSION_TEST_BURST"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.AdmissionTestBurst)
	}
	return cfg
}
