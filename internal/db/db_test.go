package db_test

import (
	"errors"
	"testing"
	"time"

	"room_rental/internal/db"
	"room_rental/internal/db/dbtest"
	"room_rental/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fixture(t *testing.T, gdb *gorm.DB) (domain.User, domain.User, domain.Room) {
	t.Helper()
	manager := domain.User{Name: "M", Email: "m@x.es", PasswordHash: "h", Role: domain.RoleAdvertiser, Active: true}
	tenant := domain.User{Name: "T", Email: "t@x.es", PasswordHash: "h", Role: domain.RoleUser, Active: true}
	require.NoError(t, gdb.Create(&manager).Error)
	require.NoError(t, gdb.Create(&tenant).Error)
	piso := domain.Property{Address: "Calle 1", City: "Madrid", ManagerID: manager.ID, Active: true}
	require.NoError(t, gdb.Create(&piso).Error)
	room := domain.Room{PropertyID: piso.ID, Title: "Hab", MonthlyPrice: 400, Available: true, Active: true}
	require.NoError(t, gdb.Create(&room).Error)
	return manager, tenant, room
}

func TestClassifyDuplicateEmail(t *testing.T) {
	gdb := dbtest.New(t)
	require.NoError(t, gdb.Create(&domain.User{Name: "A", Email: "a@x.es", PasswordHash: "h", Role: domain.RoleUser, Active: true}).Error)

	err := gdb.Create(&domain.User{Name: "B", Email: "a@x.es", PasswordHash: "h", Role: domain.RoleUser, Active: true}).Error
	require.Error(t, err)
	assert.Equal(t, db.KindUnique, db.Classify(err))
	assert.True(t, db.IsUnique(err))
}

func TestClassifyCheckViolation(t *testing.T) {
	gdb := dbtest.New(t)
	manager, tenant, room := fixture(t, gdb)

	err := gdb.Create(&domain.Vote{PropertyID: room.PropertyID, VoterID: manager.ID, VoteeID: tenant.ID, Cleanliness: 9, Noise: 3, PaymentPunctuality: 3}).Error
	require.Error(t, err)
	assert.Equal(t, db.KindCheck, db.Classify(err))
}

func TestClassifyForeignKey(t *testing.T) {
	gdb := dbtest.New(t)
	err := gdb.Create(&domain.Property{Address: "x", City: "y", ManagerID: 999, Active: true}).Error
	require.Error(t, err)
	assert.Equal(t, db.KindForeignKey, db.Classify(err))
}

func TestClassifyOther(t *testing.T) {
	assert.Equal(t, db.KindOther, db.Classify(nil))
	assert.Equal(t, db.KindOther, db.Classify(errors.New("boom")))
	assert.True(t, db.IsNotFound(gorm.ErrRecordNotFound))
}

func TestActiveStayIndexesAllowHistory(t *testing.T) {
	gdb := dbtest.New(t)
	_, tenant, room := fixture(t, gdb)
	now := time.Now().UTC()

	first := domain.Stay{UserID: tenant.ID, RoomID: room.ID, EnteredAt: now.Add(-48 * time.Hour), Status: domain.StayActive}
	require.NoError(t, gdb.Create(&first).Error)

	// A second open stay for the same room or user is rejected
	dup := domain.Stay{UserID: tenant.ID, RoomID: room.ID, EnteredAt: now, Status: domain.StayActive}
	err := gdb.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, db.IsUnique(err))

	// Closed stays do not count
	left := now.Add(-time.Hour)
	require.NoError(t, gdb.Model(&first).Updates(map[string]any{"fecha_salida": left, "estado": domain.StayLeft}).Error)
	again := domain.Stay{UserID: tenant.ID, RoomID: room.ID, EnteredAt: now, Status: domain.StayActive}
	require.NoError(t, gdb.Create(&again).Error)

	var open int64
	require.NoError(t, gdb.Model(&domain.Stay{}).Where("habitacion_id = ? AND fecha_salida IS NULL", room.ID).Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestSeedIsIdempotent(t *testing.T) {
	gdb := dbtest.New(t)
	require.NoError(t, db.Seed(gdb, 4))
	require.NoError(t, db.Seed(gdb, 4))

	var users, stays int64
	require.NoError(t, gdb.Model(&domain.User{}).Count(&users).Error)
	require.NoError(t, gdb.Model(&domain.Stay{}).Count(&stays).Error)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 2, stays)
}
