package sasl

import (
	"errors"
	"testing"
)

func TestLoginExchange(t *testing.T) {
	mech := NewLogin(Credentials{Username: "user@example.com", Password: "secret"})

	if mech.Name() != "LOGIN" {
		t.Errorf("Name = %q, want LOGIN", mech.Name())
	}

	resp, done, err := mech.Next(LoginChallengeUsername)
	if err != nil {
		t.Fatalf("username step failed: %v", err)
	}
	if done {
		t.Error("exchange done after username step")
	}
	if resp != "user@example.com" {
		t.Errorf("username response = %q", resp)
	}

	resp, done, err = mech.Next(LoginChallengePassword)
	if err != nil {
		t.Fatalf("password step failed: %v", err)
	}
	if !done {
		t.Error("exchange not done after password step")
	}
	if resp != "secret" {
		t.Errorf("password response = %q", resp)
	}

	_, _, err = mech.Next("")
	if !errors.Is(err, ErrExchangeComplete) {
		t.Errorf("expected ErrExchangeComplete after completion, got %v", err)
	}
}

func TestLoginIgnoresChallengeText(t *testing.T) {
	mech := NewLogin(Credentials{Username: "u", Password: "p"})

	// Some servers send empty or nonstandard challenges.
	resp, _, err := mech.Next("")
	if err != nil || resp != "u" {
		t.Errorf("Next(\"\") = (%q, %v), want (\"u\", nil)", resp, err)
	}
}
