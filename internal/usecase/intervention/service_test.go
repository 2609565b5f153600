package intervention

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/infrastructure/persistence/repository"
	"esilogis/internal/infrastructure/persistence/uow"
	"esilogis/internal/ports"
)

type technicianCall struct {
	person ports.Person
	nctx   ports.NotificationContext
}

type fakeNotifier struct {
	mu          sync.Mutex
	fail        bool
	admins      []ports.NotificationContext
	technicians []technicianCall
}

func (n *fakeNotifier) NotifyAdmins(_ context.Context, _ string, nctx ports.NotificationContext) ports.NotificationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, nctx)
	if n.fail {
		return ports.NotificationResult{Success: false, Err: errs.Mark(errors.New("smtp down"), errs.ErrNotification)}
	}
	return ports.NotificationResult{Success: true, Recipients: 1}
}

func (n *fakeNotifier) NotifyTechnician(_ context.Context, technician ports.Person, nctx ports.NotificationContext) ports.NotificationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.technicians = append(n.technicians, technicianCall{person: technician, nctx: nctx})
	if n.fail {
		return ports.NotificationResult{Success: false, Err: errs.Mark(errors.New("smtp down"), errs.ErrNotification)}
	}
	return ports.NotificationResult{Success: true, Recipients: 1}
}

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type harness struct {
	svc      *Service
	db       *gorm.DB
	repo     *repository.InterventionRepository
	identity *repository.IdentityRepository
	assets   *repository.AssetRepository
	notifier *fakeNotifier
	cache    *testCache

	admin    Actor
	adminP   ports.Person
	tech1    Actor
	tech1P   ports.Person
	tech2    Actor
	tech2P   ports.Person
	user     Actor
	location ports.Location
	pump     ports.Equipment
}

func setupHarness(t *testing.T) *harness {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "lifecycle.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	h := &harness{
		db:       db,
		repo:     repository.NewInterventionRepository(db),
		identity: repository.NewIdentityRepository(db),
		assets:   repository.NewAssetRepository(db),
		notifier: &fakeNotifier{},
		cache:    newTestCache(),
	}
	h.svc = NewService(h.repo, h.identity, h.assets, uow.NewUnitOfWork(db), h.notifier, h.cache, Config{
		PlanTxTimeout: 30 * time.Second,
		StatsTTL:      time.Minute,
	})

	h.admin, h.adminP = h.account(t, "admin@example.com", domain.RoleAdmin, true)
	h.tech1, h.tech1P = h.account(t, "tech1@example.com", domain.RoleTechnician, true)
	h.tech2, h.tech2P = h.account(t, "tech2@example.com", domain.RoleTechnician, true)
	h.user, _ = h.account(t, "user@example.com", domain.RoleUser, true)

	ctx := context.Background()
	h.location, err = h.assets.CreateLocation(ctx, ports.Location{Name: "Building B"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	h.pump, err = h.assets.CreateEquipment(ctx, ports.Equipment{Name: "HVAC unit", InventoryCode: "HVAC-01", LocationID: &h.location.ID})
	if err != nil {
		t.Fatalf("create equipment: %v", err)
	}
	return h
}

func (h *harness) account(t *testing.T, email string, role domain.Role, withPerson bool) (Actor, ports.Person) {
	t.Helper()
	ctx := context.Background()

	var profile *ports.Person
	if withPerson {
		profile = &ports.Person{FirstName: "First", LastName: email}
	}
	account, err := h.identity.CreateAccount(ctx, ports.UserAccount{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, profile)
	if err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	actor := Actor{UserAccountID: account.ID, Role: role}
	if !withPerson {
		return actor, ports.Person{}
	}
	person, err := h.identity.PersonForAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("person for %s: %v", email, err)
	}
	return actor, person
}

func (h *harness) report(t *testing.T) ports.Intervention {
	t.Helper()
	item, err := h.svc.Report(context.Background(), h.user, ReportInput{
		Description: "Leaking pipe",
		LocationID:  h.location.ID,
		EquipmentID: &h.pump.ID,
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	return item
}

// inProgress reports an intervention and assigns tech1 to it.
func (h *harness) inProgress(t *testing.T) ports.Intervention {
	t.Helper()
	item := h.report(t)
	items, err := h.svc.Assign(context.Background(), h.admin, AssignInput{
		InterventionIDs: []uint64{item.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID},
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	return items[0]
}

func (h *harness) plan(t *testing.T, plannedAt time.Time, recurring bool, interval int) ports.Intervention {
	t.Helper()
	item, err := h.svc.Plan(context.Background(), h.admin, PlanInput{
		Description:        "Quarterly HVAC check",
		LocationID:         h.location.ID,
		PlannedAt:          &plannedAt,
		IsRecurring:        &recurring,
		RecurrenceInterval: &interval,
		Assignees:          []uint64{h.tech1P.ID, h.tech2P.ID},
		EquipmentID:        &h.pump.ID,
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return item
}

func (h *harness) countInterventions(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&model.Intervention{}).Count(&count).Error; err != nil {
		t.Fatalf("count interventions: %v", err)
	}
	return count
}

func (h *harness) countAssignments(t *testing.T, interventionID uint64) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&model.InterventionAssignment{}).Where("intervention_id = ?", interventionID).Count(&count).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	return count
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("error %q kind = %v, want %v", err, errs.KindOf(err), kind)
	}
}

func historyActions(item ports.Intervention) []string {
	out := make([]string, 0, len(item.History))
	for _, entry := range item.History {
		out = append(out, entry.Action)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
