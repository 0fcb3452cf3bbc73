package workspace_test

import (
	"errors"
	"testing"

	"fatura/internal/testsupport"
	"fatura/internal/workspace"
)

func TestLockAcquireAndRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	lock := workspace.NewLock(cfg)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// Reacquiring after release should succeed.
	if err := lock.Acquire(); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release again: %v", err)
	}
}

func TestLockBlocksSecondHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first := workspace.NewLock(cfg)
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second := workspace.NewLock(cfg)
	err := second.Acquire()
	if err == nil {
		second.Release()
		t.Fatal("expected second acquire to fail")
	}
	if !errors.Is(err, workspace.ErrLocked) {
		t.Errorf("error = %v, want ErrLocked", err)
	}
}
