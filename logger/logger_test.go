package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(TraceLevel), WithOutput(&buf))

	h1 := NewHelper(l).WithFields(map[string]interface{}{"key1": "val1"})
	h1.Trace("trace_msg1")
	h1.Warn("warn_msg1")

	h2 := NewHelper(l).WithFields(map[string]interface{}{"key2": "val2"})
	h2.Debug("debug_msg2")
	h2.Warn("warn_msg2")

	l.Fields(map[string]interface{}{"key3": "val3"}).Log(InfoLevel, "test_msg")

	for _, want := range []string{"trace_msg1", "warn_msg1", "debug_msg2", "warn_msg2", "test_msg", "key3=val3"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithOutput(&buf))

	l.Log(InfoLevel, "should_not_appear")
	l.Log(ErrorLevel, "should_appear")

	if strings.Contains(buf.String(), "should_not_appear") {
		t.Error("info entry logged despite warn level")
	}
	if !strings.Contains(buf.String(), "should_appear") {
		t.Error("error entry missing despite warn level")
	}
}

func TestGetLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"trace": TraceLevel,
		"debug": DebugLevel,
		"info":  InfoLevel,
		"warn":  WarnLevel,
		"error": ErrorLevel,
		"fatal": FatalLevel,
	} {
		got, err := GetLevel(s)
		if err != nil {
			t.Errorf("GetLevel(%q) returned error: %v", s, err)
		}
		if got != want {
			t.Errorf("GetLevel(%q) = %v, expected %v", s, got, want)
		}
	}

	if _, err := GetLevel("verbose"); err == nil {
		t.Error("expected error for unknown level string")
	}
}
