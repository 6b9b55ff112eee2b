package tenantrouter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/staffhubhq/staffhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testRouter(t *testing.T, opens *atomic.Int64) *Router {
	t.Helper()
	cfg := db.Config{Type: "sqlite", TenantPrefix: "tenant"}
	return New(cfg, zap.NewNop(), WithOpener(func(_ db.Config, tenantID string) (*gorm.DB, error) {
		if opens != nil {
			opens.Add(1)
		}
		gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return gdb, nil
	}))
}

func TestResolveReturnsSameHandle(t *testing.T) {
	router := testRouter(t, nil)
	ctx := context.Background()

	first, err := router.Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	second, err := router.Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("resolve second: %v", err)
	}

	if first != second {
		t.Fatal("expected the same handle for repeated resolution")
	}
	if router.Size() != 1 {
		t.Fatalf("expected 1 cached handle, got %d", router.Size())
	}
}

func TestResolveDistinctTenants(t *testing.T) {
	router := testRouter(t, nil)
	ctx := context.Background()

	a, err := router.Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("resolve acme: %v", err)
	}
	b, err := router.Resolve(ctx, "globex")
	if err != nil {
		t.Fatalf("resolve globex: %v", err)
	}

	if a == b {
		t.Fatal("expected distinct handles for distinct tenants")
	}
	if router.Size() != 2 {
		t.Fatalf("expected 2 cached handles, got %d", router.Size())
	}
}

func TestResolveEmptyTenantID(t *testing.T) {
	router := testRouter(t, nil)

	if _, err := router.Resolve(context.Background(), "  "); !errors.Is(err, ErrEmptyTenantID) {
		t.Fatalf("expected ErrEmptyTenantID, got %v", err)
	}
}

// A bogus identifier still resolves: the router never validates tenant
// existence.
func TestResolveUnknownTenantSucceeds(t *testing.T) {
	router := testRouter(t, nil)

	handle, err := router.Resolve(context.Background(), "never-registered")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if handle == nil {
		t.Fatal("expected a live handle for an unregistered tenant")
	}
}

func TestResolveConcurrentSingleFlight(t *testing.T) {
	var opens atomic.Int64
	router := testRouter(t, &opens)
	ctx := context.Background()

	const workers = 32
	handles := make([]*gorm.DB, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			handle, err := router.Resolve(ctx, "acme")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			handles[i] = handle
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		if handles[i] != handles[0] {
			t.Fatal("concurrent first access returned different handles")
		}
	}
	if got := opens.Load(); got != 1 {
		t.Fatalf("expected exactly 1 open, got %d", got)
	}
}

func TestResolveRunsMigrations(t *testing.T) {
	type widget struct {
		ID   int64 `gorm:"primaryKey"`
		Name string
	}

	cfg := db.Config{Type: "sqlite", TenantPrefix: "tenant"}
	router := New(cfg, zap.NewNop(),
		WithModels([]any{&widget{}}),
		WithOpener(func(_ db.Config, _ string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		}),
	)

	handle, err := router.Resolve(context.Background(), "acme")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := handle.Create(&widget{ID: 1, Name: "w"}).Error; err != nil {
		t.Fatalf("expected migrated schema, insert failed: %v", err)
	}
}
