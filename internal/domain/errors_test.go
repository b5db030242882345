package domain

import (
	"errors"
	"testing"
)

func TestTransportError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewTransportError("backfill", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "backfill: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "backfill: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalTransportError("decode", baseErr)

		if err.IsRetriable() {
			t.Error("Expected error to not be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewTransportError("dial", baseErr)
		fatal := NewFatalTransportError("decode", baseErr)
		plain := errors.New("plain error")

		if !IsRetriable(retriable) {
			t.Error("IsRetriable should return true for retriable error")
		}

		if IsRetriable(fatal) {
			t.Error("IsRetriable should return false for fatal error")
		}

		if IsRetriable(plain) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "exchange_address", Err: baseErr}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [exchange_address]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}

func TestMomentumColor(t *testing.T) {
	cases := []struct {
		momentum Momentum
		color    string
	}{
		{MomentumUp, "green"},
		{MomentumFlat, "yellow"},
		{MomentumDown, "red"},
	}

	for _, c := range cases {
		if got := c.momentum.Color(); got != c.color {
			t.Errorf("Color(%s) = %q, want %q", c.momentum, got, c.color)
		}
	}
}

func TestRawEventInvolves(t *testing.T) {
	ev := RawEvent{Kind: KindTrade, Maker: "0xaaa", Taker: "0xbbb"}

	if !ev.Involves("0xaaa") {
		t.Error("maker should be involved")
	}
	if !ev.Involves("0xbbb") {
		t.Error("taker should be involved")
	}
	if ev.Involves("0xccc") {
		t.Error("stranger should not be involved")
	}
}
