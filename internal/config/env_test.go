package config

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("NEBULA_TEST_SET", "value")
	t.Setenv("NEBULA_TEST_EMPTY", "")

	if got := GetEnv("NEBULA_TEST_SET", "fallback"); got != "value" {
		t.Errorf("set: got %q", got)
	}
	if got := GetEnv("NEBULA_TEST_EMPTY", "fallback"); got != "" {
		t.Errorf("empty but set: got %q, want empty", got)
	}
	if got := GetEnv("NEBULA_TEST_UNSET_XYZ", "fallback"); got != "fallback" {
		t.Errorf("unset: got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"30", 30},
		{" 120 ", 120},
		{"-5", -5},
		{"abc", 60},
		{"", 60},
	}
	for _, tt := range tests {
		t.Setenv("NEBULA_TEST_INT", tt.value)
		if got := GetEnvInt("NEBULA_TEST_INT", 60); got != tt.want {
			t.Errorf("GetEnvInt(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
	if got := GetEnvInt("NEBULA_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("unset = %d, want 7", got)
	}
}

func TestGetEnvUint64(t *testing.T) {
	t.Setenv("NEBULA_TEST_SEED", "18446744073709551615")
	if got := GetEnvUint64("NEBULA_TEST_SEED", 1); got != 18446744073709551615 {
		t.Errorf("max uint64 = %d", got)
	}
	t.Setenv("NEBULA_TEST_SEED", "-1")
	if got := GetEnvUint64("NEBULA_TEST_SEED", 1); got != 1 {
		t.Errorf("negative = %d, want fallback", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"on", false, true},
		{"0", true, false},
		{"no", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Setenv("NEBULA_TEST_BOOL", tt.value)
		if got := GetEnvBool("NEBULA_TEST_BOOL", tt.fallback); got != tt.want {
			t.Errorf("GetEnvBool(%q, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
		}
	}
}
