package debug

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	t.Run("TextOutput", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, LogLevelInfo, FormatText)
		if err != nil {
			t.Fatal(err)
		}

		logger.Info("bundle scanned", "path", "/plugins/Delay.vst3")

		output := buf.String()
		if !strings.Contains(output, "level=INFO") {
			t.Error("Missing log level")
		}
		if !strings.Contains(output, "bundle scanned") {
			t.Error("Missing message")
		}
		if !strings.Contains(output, "path=/plugins/Delay.vst3") {
			t.Error("Missing attribute")
		}
	})

	t.Run("JSONOutput", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, LogLevelDebug, FormatJSON)
		if err != nil {
			t.Fatal(err)
		}

		logger.Debug("loaded", "plugins", 3)

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("Output is not JSON: %v", err)
		}
		if record["msg"] != "loaded" {
			t.Errorf("Wrong message: %v", record["msg"])
		}
		if record["plugins"] != float64(3) {
			t.Errorf("Wrong attribute: %v", record["plugins"])
		}
	})

	t.Run("LogLevels", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, LogLevelWarn, FormatText)
		if err != nil {
			t.Fatal(err)
		}

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		output := buf.String()
		if strings.Contains(output, "debug message") {
			t.Error("Debug message should not be logged")
		}
		if strings.Contains(output, "info message") {
			t.Error("Info message should not be logged")
		}
		if !strings.Contains(output, "warn message") {
			t.Error("Warn message should be logged")
		}
		if !strings.Contains(output, "error message") {
			t.Error("Error message should be logged")
		}
	})

	t.Run("Off", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, LogLevelOff, FormatText)
		if err != nil {
			t.Fatal(err)
		}

		logger.Error("should not appear")

		if buf.Len() > 0 {
			t.Error("Logger should not log when off")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := NewLogger(&bytes.Buffer{}, LogLevelInfo, "xml"); err == nil {
			t.Error("Expected error for unknown format")
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"", LogLevelInfo},
		{"INFO", LogLevelInfo},
		{"Warning", LogLevelWarn},
		{" error ", LogLevelError},
		{"none", LogLevelOff},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}

	for _, l := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelOff} {
		back, err := ParseLevel(l.String())
		if err != nil || back != l {
			t.Errorf("Round trip of %v gave %v, %v", l, back, err)
		}
	}
}
