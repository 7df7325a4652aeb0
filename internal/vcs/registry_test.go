package vcs

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
)

// mockVCS is a minimal VCS implementation for registry tests.
type mockVCS struct {
	name     Type
	repoRoot string
}

func (m *mockVCS) Name() Type       { return m.name }
func (m *mockVCS) RepoRoot() string { return m.repoRoot }
func (m *mockVCS) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	return false, nil
}
func (m *mockVCS) Commit(ctx context.Context, opts CommitOptions) error { return nil }

func newMockVCS(name Type) Constructor {
	return func(repoRoot string) (VCS, error) {
		return &mockVCS{name: name, repoRoot: repoRoot}, nil
	}
}

// testTypeCounter generates unique test type names so tests never collide on
// the process-wide registry.
var testTypeCounter int64

func uniqueTestType(prefix string) Type {
	n := atomic.AddInt64(&testTypeCounter, 1)
	return Type(fmt.Sprintf("%s-%d", prefix, n))
}

func TestRegister(t *testing.T) {
	typeName := uniqueTestType("register-test")

	Register(typeName, newMockVCS(typeName))

	if !IsRegistered(typeName) {
		t.Error("Expected type to be registered")
	}

	constructor := getConstructor(typeName)
	if constructor == nil {
		t.Fatal("Expected to get constructor for registered type")
	}

	v, err := constructor("/test/repo")
	if err != nil {
		t.Fatalf("Constructor failed: %v", err)
	}
	if v.Name() != typeName {
		t.Errorf("Expected VCS name '%s', got '%s'", typeName, v.Name())
	}
	if v.RepoRoot() != "/test/repo" {
		t.Errorf("RepoRoot = %q, want /test/repo", v.RepoRoot())
	}
}

func TestRegisterPanicsOnNil(t *testing.T) {
	typeName := uniqueTestType("nil-test")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when registering nil constructor")
		}
	}()

	Register(typeName, nil)
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	typeName := uniqueTestType("dup-test")

	Register(typeName, newMockVCS(typeName))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when registering duplicate type")
		}
	}()

	Register(typeName, newMockVCS(typeName))
}

func TestIsRegistered(t *testing.T) {
	typeName := uniqueTestType("isreg-test")
	unknownType := uniqueTestType("unknown-test")

	if IsRegistered(typeName) {
		t.Error("Expected type to not be registered initially")
	}

	Register(typeName, newMockVCS(typeName))

	if !IsRegistered(typeName) {
		t.Error("Expected type to be registered after Register()")
	}
	if IsRegistered(unknownType) {
		t.Error("Expected unknown type to not be registered")
	}
}

func TestRegisteredTypes(t *testing.T) {
	typeName := uniqueTestType("types-test")
	beforeCount := len(RegisteredTypes())

	Register(typeName, newMockVCS(typeName))

	types := RegisteredTypes()
	if len(types) <= beforeCount {
		t.Error("Expected type count to increase after registration")
	}
}

// TestConcurrentRegistration verifies thread-safety of registration.
func TestConcurrentRegistration(t *testing.T) {
	done := make(chan bool)
	basePrefix := uniqueTestType("concurrent")

	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- true }()

			typeName := Type(fmt.Sprintf("%s-%d", basePrefix, n))
			Register(typeName, newMockVCS(typeName))

			_ = IsRegistered(typeName)
			_ = RegisteredTypes()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
