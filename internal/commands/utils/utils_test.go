package utils

import (
	"testing"
	"time"
)

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10m", 10 * time.Minute, false},
		{"365d", 365 * 24 * time.Hour, false},
		{"53w", 0, true},
		{"nunca", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDelay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDelay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDelay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{90 * time.Second, "1 minutos, 30 segundos"},
		{26*time.Hour + 5*time.Second, "1 días, 2 horas, 5 segundos"},
		{0, "0 segundos"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchedulingCommandsAreGuildOnly(t *testing.T) {
	if !createRemindCommand().GuildOnly {
		t.Error("remind GuildOnly = false, want true")
	}
	if !createScheduleCommand().GuildOnly {
		t.Error("schedule GuildOnly = false, want true")
	}
	if createPingCommand().GuildOnly {
		t.Error("ping GuildOnly = true, want false")
	}
}
