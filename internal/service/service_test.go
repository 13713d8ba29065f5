package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/config"
	"room_rental/internal/db/dbtest"
	"room_rental/internal/domain"
	"room_rental/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

// world is a small marketplace: one advertiser with one piso of three
// rooms, an admin and three tenants.
type world struct {
	svc     *Service
	gdb     *gorm.DB
	admin   domain.User
	manager domain.User
	other   domain.User
	ana     domain.User
	luis    domain.User
	eva     domain.User
	piso    domain.Property
	rooms   []domain.Room
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DBDriver = config.DriverSQLite
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = config.MinBcryptCost
	cfg.TokenTTL = time.Hour
	return cfg
}

// steppingClock returns a clock that advances one minute per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func newService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()
	gdb := dbtest.New(t)
	svc := New(gdb, testConfig(), opts...)
	svc.now = steppingClock()
	return svc, gdb
}

func createUser(t *testing.T, gdb *gorm.DB, name, email, role string) domain.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword, config.MinBcryptCost)
	require.NoError(t, err)
	u := domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, Active: true}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func newWorld(t *testing.T, opts ...Option) *world {
	t.Helper()
	svc, gdb := newService(t, opts...)
	w := &world{svc: svc, gdb: gdb}
	w.admin = createUser(t, gdb, "Admin", "admin@pisos.local", domain.RoleAdmin)
	w.manager = createUser(t, gdb, "Marta", "marta@pisos.local", domain.RoleAdvertiser)
	w.other = createUser(t, gdb, "Otro", "otro@pisos.local", domain.RoleAdvertiser)
	w.ana = createUser(t, gdb, "Ana", "ana@pisos.local", domain.RoleUser)
	w.luis = createUser(t, gdb, "Luis", "luis@pisos.local", domain.RoleUser)
	w.eva = createUser(t, gdb, "Eva", "eva@pisos.local", domain.RoleUser)

	w.piso = domain.Property{Address: "Calle Mayor 1", City: "Madrid", ManagerID: w.manager.ID, Active: true}
	require.NoError(t, gdb.Create(&w.piso).Error)
	for i, price := range []int{350, 450, 600} {
		size := float64(10 + i*2)
		room := domain.Room{
			PropertyID:   w.piso.ID,
			Title:        []string{"Interior", "Exterior con balcon", "Suite"}[i],
			MonthlyPrice: price,
			Available:    true,
			Active:       true,
			SizeM2:       &size,
			Balcony:      i == 1,
			Bathroom:     i == 2,
		}
		require.NoError(t, gdb.Create(&room).Error)
		w.rooms = append(w.rooms, room)
	}
	return w
}

func principal(u domain.User) authz.Principal { return authz.PrincipalOf(&u) }

func (w *world) join(t *testing.T, u domain.User, room domain.Room) *JoinResult {
	t.Helper()
	res, err := w.svc.Join(context.Background(), principal(u), JoinInput{RoomID: room.ID})
	require.NoError(t, err)
	return res
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperr.CodeOf(err), "unexpected error: %v", err)
}

// memThrottle is an in-process LoginThrottle.
type memThrottle struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func newMemThrottle(max int) *memThrottle {
	return &memThrottle{max: max, failures: map[string]int{}}
}

func (m *memThrottle) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[key] < m.max, nil
}

func (m *memThrottle) Fail(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key]++
	return nil
}

func (m *memThrottle) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}
