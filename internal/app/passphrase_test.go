package app

import "testing"

func TestReadPassphrase_FromEnv(t *testing.T) {
	t.Setenv(EnvPassphrase, "hunter2")

	got, err := ReadPassphrase("Passphrase: ")
	if err != nil {
		t.Fatalf("ReadPassphrase() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("ReadPassphrase() = %q, want %q", got, "hunter2")
	}
}

func TestReadNewPassphrase_FromEnv(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		t.Setenv(EnvPassphrase, "hunter2")

		got, err := ReadNewPassphrase()
		if err != nil {
			t.Fatalf("ReadNewPassphrase() error = %v", err)
		}
		if got != "hunter2" {
			t.Errorf("ReadNewPassphrase() = %q, want %q", got, "hunter2")
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Setenv(EnvPassphrase, "")

		if _, err := ReadNewPassphrase(); err == nil {
			t.Error("ReadNewPassphrase() expected error for empty passphrase")
		}
	})
}
