package config

import (
	"strings"
	"testing"
)

func TestLoadMonthReturnsComplete(t *testing.T) {
	env := map[string]string{}
	for _, key := range monthEnvKeys {
		env[key] = "ret-" + strings.ToLower(key[:3])
	}

	table, err := loadMonthReturns(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadMonthReturns() error = %v", err)
	}
	if len(table) != 12 {
		t.Fatalf("loadMonthReturns() returned %d entries, want 12", len(table))
	}
	if table[1] != "ret-jan" || table[12] != "ret-dec" {
		t.Errorf("loadMonthReturns() table = %v", table)
	}
}

func TestLoadMonthReturnsMissingMonth(t *testing.T) {
	env := map[string]string{}
	for _, key := range monthEnvKeys {
		env[key] = "x"
	}
	delete(env, "JUN_RETURNID")

	_, err := loadMonthReturns(func(k string) string { return env[k] })
	if err == nil {
		t.Fatal("loadMonthReturns() error = nil, want error for missing month")
	}
	if !strings.Contains(err.Error(), "JUN_RETURNID") {
		t.Errorf("loadMonthReturns() error = %v, want mention of JUN_RETURNID", err)
	}
}
