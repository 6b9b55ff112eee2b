package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"github.com/staffhubhq/staffhub/internal/staff"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	subscriptionrepo "github.com/staffhubhq/staffhub/internal/subscription/repository"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	tenantrepo "github.com/staffhubhq/staffhub/internal/tenant/repository"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"github.com/staffhubhq/staffhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gateFixture struct {
	gate   *Gate
	global *gorm.DB
	router *tenantrouter.Router
	nextID snowflake.ID
}

func newGateFixture(t *testing.T, counts *CountCache) *gateFixture {
	t.Helper()

	global, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := global.AutoMigrate(&tenantdomain.Tenant{}, &subscriptiondomain.Plan{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	router := tenantrouter.New(db.Config{Type: "sqlite", TenantPrefix: "tenant"}, zap.NewNop(),
		tenantrouter.WithModels(staff.Models()),
		tenantrouter.WithOpener(func(_ db.Config, _ string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		}),
	)

	met := metrics.NewWith(prometheus.NewRegistry())
	gate := NewGate(global, router, tenantrepo.Provide(), subscriptionrepo.Provide(), counts, zap.NewNop(), met)
	return &gateFixture{gate: gate, global: global, router: router, nextID: 2000}
}

func (f *gateFixture) seedTenant(t *testing.T, slug string, plan *subscriptiondomain.Plan) {
	t.Helper()
	tenant := &tenantdomain.Tenant{ID: 1001, Slug: slug, Name: slug}
	if plan != nil {
		if err := f.global.Create(plan).Error; err != nil {
			t.Fatalf("seed plan: %v", err)
		}
		tenant.SubscriptionID = &plan.ID
	}
	if err := f.global.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
}

func (f *gateFixture) seedEmployees(t *testing.T, slug string, n int) {
	t.Helper()
	tenantDB, err := f.router.Resolve(context.Background(), slug)
	if err != nil {
		t.Fatalf("resolve tenant db: %v", err)
	}
	for i := 0; i < n; i++ {
		employee := &staff.Employee{ID: f.nextID, TenantSlug: slug, FirstName: "E", Email: "e@t.test"}
		f.nextID++
		if err := tenantDB.Create(employee).Error; err != nil {
			t.Fatalf("seed employee: %v", err)
		}
	}
}

func TestAllowedUnderLimit(t *testing.T) {
	f := newGateFixture(t, nil)
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 5, Active: true})
	f.seedEmployees(t, "acme", 4)

	allowed, err := f.gate.Allowed(context.Background(), "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if !allowed {
		t.Fatal("expected admission at count 4 of 5")
	}
}

func TestDeniedAtLimit(t *testing.T) {
	f := newGateFixture(t, nil)
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 5, Active: true})
	f.seedEmployees(t, "acme", 5)

	allowed, err := f.gate.Allowed(context.Background(), "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if allowed {
		t.Fatal("expected denial at count 5 of 5")
	}

	err = f.gate.Check(context.Background(), "acme", staff.KindEmployee)
	if !errors.Is(err, ErrSubscriptionLimitExceeded) {
		t.Fatalf("expected ErrSubscriptionLimitExceeded, got %v", err)
	}
}

// The gate reads the count fresh on every call and reserves nothing, so two
// checks racing at one below the limit both admit and both creates land. This
// is the accepted behavior; serializing the check would fail this test.
func TestCheckDoesNotReserveCapacity(t *testing.T) {
	f := newGateFixture(t, nil)
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 5, Active: true})
	f.seedEmployees(t, "acme", 4)

	ctx := context.Background()
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			allowed, err := f.gate.Allowed(ctx, "acme", staff.KindEmployee)
			if err != nil {
				results <- err
				return
			}
			if !allowed {
				results <- errors.New("denied at count 4 of 5")
				return
			}
			results <- nil
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Fatalf("concurrent check: %v", err)
		}
	}

	// Both callers proceed to create; the tenant ends one over the limit.
	f.seedEmployees(t, "acme", 2)

	tenantDB, err := f.router.Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("resolve tenant db: %v", err)
	}
	var count int64
	if err := tenantDB.Model(&staff.Employee{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 employees after the race, got %d", count)
	}

	allowed, err := f.gate.Allowed(ctx, "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if allowed {
		t.Fatal("expected denial once the overshoot is visible")
	}
}

func TestNoSubscriptionFailsClosed(t *testing.T) {
	f := newGateFixture(t, nil)
	f.seedTenant(t, "acme", nil)

	allowed, err := f.gate.Allowed(context.Background(), "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if allowed {
		t.Fatal("tenant without a subscription must be denied")
	}
}

func TestUnmeteredKindFailsOpen(t *testing.T) {
	f := newGateFixture(t, nil)
	// ManagerLimit is zero: managers are not metered by this plan.
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 5, Active: true})

	allowed, err := f.gate.Allowed(context.Background(), "acme", staff.KindManager)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if !allowed {
		t.Fatal("unmetered kind must be admitted")
	}
}

func TestInactivePlanDenied(t *testing.T) {
	f := newGateFixture(t, nil)
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 5, Active: false})

	allowed, err := f.gate.Allowed(context.Background(), "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if allowed {
		t.Fatal("inactive plan must be denied")
	}
}

func TestUnknownTenant(t *testing.T) {
	f := newGateFixture(t, nil)

	_, err := f.gate.Allowed(context.Background(), "ghost", staff.KindEmployee)
	if !errors.Is(err, tenantdomain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestCountCacheServesAndInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counts := NewCountCache(rdb, time.Minute, zap.NewNop())

	f := newGateFixture(t, counts)
	f.seedTenant(t, "acme", &subscriptiondomain.Plan{ID: 9001, Name: "basic", PlanType: subscriptiondomain.PlanTypeBasic, EmployeeLimit: 3, Active: true})
	f.seedEmployees(t, "acme", 2)

	ctx := context.Background()
	allowed, err := f.gate.Allowed(ctx, "acme", staff.KindEmployee)
	if err != nil || !allowed {
		t.Fatalf("first check: allowed=%v err=%v", allowed, err)
	}

	// The count is now cached; a stale cache keeps admitting until the
	// mutation path invalidates it.
	f.seedEmployees(t, "acme", 1)
	allowed, err = f.gate.Allowed(ctx, "acme", staff.KindEmployee)
	if err != nil || !allowed {
		t.Fatalf("cached check: allowed=%v err=%v", allowed, err)
	}

	f.gate.Invalidate(ctx, "acme", staff.KindEmployee)
	allowed, err = f.gate.Allowed(ctx, "acme", staff.KindEmployee)
	if err != nil {
		t.Fatalf("post-invalidate check: %v", err)
	}
	if allowed {
		t.Fatal("expected denial once the invalidated count is re-read at the limit")
	}
}
