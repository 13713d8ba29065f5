package service

import (
	"context"
	"net/url"
	"testing"

	"room_rental/internal/apperr"
	"room_rental/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndUpdateProperty(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	piso, err := w.svc.CreateProperty(ctx, principal(w.other), PropertyInput{Address: " Gran Via 3 ", City: "Madrid"})
	require.NoError(t, err)
	assert.Equal(t, w.other.ID, piso.ManagerID)
	assert.Equal(t, "Gran Via 3", piso.Address)
	assert.True(t, piso.Active)

	_, err = w.svc.CreateProperty(ctx, principal(w.ana), PropertyInput{Address: "x", City: "y"})
	requireCode(t, err, apperr.CodeForbidden)
	_, err = w.svc.CreateProperty(ctx, principal(w.other), PropertyInput{Address: "x", City: "y", ManagerID: &w.manager.ID})
	requireCode(t, err, apperr.CodeForbidden)
	_, err = w.svc.CreateProperty(ctx, principal(w.admin), PropertyInput{Address: "x", City: "y", ManagerID: &w.ana.ID})
	requireCode(t, err, apperr.CodeValidation)

	assigned, err := w.svc.CreateProperty(ctx, principal(w.admin), PropertyInput{Address: "x", City: "y", ManagerID: &w.manager.ID})
	require.NoError(t, err)
	assert.Equal(t, w.manager.ID, assigned.ManagerID)

	updated, err := w.svc.UpdateProperty(ctx, principal(w.other), piso.ID, PropertyPatch{City: Some("Valencia"), PostalCode: Null[string]()})
	require.NoError(t, err)
	assert.Equal(t, "Valencia", updated.City)
	assert.Nil(t, updated.PostalCode)

	_, err = w.svc.UpdateProperty(ctx, principal(w.manager), piso.ID, PropertyPatch{City: Some("Sevilla")})
	requireCode(t, err, apperr.CodeForbidden)
	_, err = w.svc.UpdateProperty(ctx, principal(w.other), piso.ID, PropertyPatch{})
	requireCode(t, err, apperr.CodeNoFieldsToUpdate)
	_, err = w.svc.UpdateProperty(ctx, principal(w.other), piso.ID, PropertyPatch{ManagerID: Some(w.manager.ID)})
	requireCode(t, err, apperr.CodeForbidden)

	_, err = w.svc.DeactivateProperty(ctx, principal(w.other), piso.ID)
	require.NoError(t, err)
	_, err = w.svc.UpdateProperty(ctx, principal(w.other), piso.ID, PropertyPatch{Active: Some(true)})
	requireCode(t, err, apperr.CodeForbidden)
	back, err := w.svc.UpdateProperty(ctx, principal(w.admin), piso.ID, PropertyPatch{Active: Some(true)})
	require.NoError(t, err)
	assert.True(t, back.Active)
}

func TestRoomManagement(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	mgr := principal(w.manager)
	price := 420

	room, err := w.svc.CreateRoom(ctx, mgr, RoomInput{PropertyID: w.piso.ID, Title: "Nueva", MonthlyPrice: &price})
	require.NoError(t, err)
	assert.True(t, room.Available)
	assert.True(t, room.Active)

	_, err = w.svc.CreateRoom(ctx, principal(w.other), RoomInput{PropertyID: w.piso.ID, Title: "Nueva", MonthlyPrice: &price})
	requireCode(t, err, apperr.CodeForbidden)
	_, err = w.svc.CreateRoom(ctx, mgr, RoomInput{PropertyID: 9999, Title: "Nueva", MonthlyPrice: &price})
	requireCode(t, err, apperr.CodePisoNotFound)
	negative := -1
	_, err = w.svc.CreateRoom(ctx, mgr, RoomInput{PropertyID: w.piso.ID, Title: "", MonthlyPrice: &negative})
	requireCode(t, err, apperr.CodeValidation)

	w.join(t, w.ana, w.rooms[0])
	_, err = w.svc.UpdateRoom(ctx, mgr, w.rooms[0].ID, RoomPatch{Available: Some(true)})
	requireCode(t, err, apperr.CodeRoomOccupied)
	_, err = w.svc.DeactivateRoom(ctx, mgr, w.rooms[0].ID)
	requireCode(t, err, apperr.CodeRoomOccupied)
	_, err = w.svc.UpdateRoom(ctx, mgr, w.rooms[0].ID, RoomPatch{})
	requireCode(t, err, apperr.CodeNoFieldsToUpdate)

	changed, err := w.svc.UpdateRoom(ctx, mgr, w.rooms[0].ID, RoomPatch{MonthlyPrice: Some(375), SizeM2: Null[float64](), Furnished: Some(true)})
	require.NoError(t, err)
	assert.Equal(t, 375, changed.MonthlyPrice)
	assert.Nil(t, changed.SizeM2)
	assert.True(t, changed.Furnished)
	assert.False(t, changed.Available)

	gone, err := w.svc.DeactivateRoom(ctx, mgr, room.ID)
	require.NoError(t, err)
	assert.False(t, gone.Active)
	_, err = w.svc.GetRoom(ctx, room.ID)
	requireCode(t, err, apperr.CodeHabitacionNotFound)

	_, err = w.svc.DeactivateProperty(ctx, principal(w.admin), w.piso.ID)
	requireCode(t, err, apperr.CodeRoomOccupied)
	_, err = w.svc.Leave(ctx, principal(w.ana))
	require.NoError(t, err)
	_, err = w.svc.DeactivateProperty(ctx, principal(w.admin), w.piso.ID)
	require.NoError(t, err)
	_, err = w.svc.CreateRoom(ctx, mgr, RoomInput{PropertyID: w.piso.ID, Title: "Tarde", MonthlyPrice: &price})
	requireCode(t, err, apperr.CodePisoInactive)
}

func TestProfileUpdates(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	user, err := w.svc.UpdateMe(ctx, w.ana.ID, ProfilePatch{Phone: Some("600111222"), Email: Some(" ANA.nueva@pisos.local ")})
	require.NoError(t, err)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "600111222", *user.Phone)
	assert.Equal(t, "ana.nueva@pisos.local", user.Email)

	_, err = w.svc.UpdateMe(ctx, w.ana.ID, ProfilePatch{Email: Some("luis@pisos.local")})
	requireCode(t, err, apperr.CodeEmailExists)
	_, err = w.svc.UpdateMe(ctx, w.ana.ID, ProfilePatch{Name: Null[string](), AvatarURL: Some("nope")})
	requireCode(t, err, apperr.CodeValidation)
	_, err = w.svc.UpdateMe(ctx, w.ana.ID, ProfilePatch{})
	requireCode(t, err, apperr.CodeNoFieldsToUpdate)

	cleared, err := w.svc.UpdateMe(ctx, w.ana.ID, ProfilePatch{Phone: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Phone)
}

func TestAdminUsers(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	admin := principal(w.admin)

	page, err := w.svc.ListUsers(ctx, url.Values{"rol": {domain.RoleUser}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = w.svc.ListUsers(ctx, url.Values{"q": {"MART"}})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, w.manager.ID, page.Users[0].ID)

	_, err = w.svc.ListUsers(ctx, url.Values{"rol": {"root"}})
	requireCode(t, err, apperr.CodeInvalidRole)

	login, err := w.svc.Login(ctx, LoginInput{Email: "eva@pisos.local", Password: testPassword})
	require.NoError(t, err)
	promoted, err := w.svc.AdminUpdateUser(ctx, admin, w.eva.ID, AdminUserPatch{Role: Some(domain.RoleAdvertiser)})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdvertiser, promoted.Role)
	_, err = w.svc.Authenticate(ctx, login.Token)
	requireCode(t, err, apperr.CodeInvalidToken)

	_, err = w.svc.AdminUpdateUser(ctx, admin, w.eva.ID, AdminUserPatch{Role: Some("root")})
	requireCode(t, err, apperr.CodeInvalidRole)
	_, err = w.svc.AdminUpdateUser(ctx, admin, w.eva.ID, AdminUserPatch{ProfilePatch: ProfilePatch{Email: Some("ana@pisos.local")}})
	requireCode(t, err, apperr.CodeDuplicateEmail)
	_, err = w.svc.AdminUpdateUser(ctx, admin, w.eva.ID, AdminUserPatch{})
	requireCode(t, err, apperr.CodeNoFieldsToUpdate)
	_, err = w.svc.AdminUpdateUser(ctx, admin, 9999, AdminUserPatch{Role: Some(domain.RoleUser)})
	requireCode(t, err, apperr.CodeUserNotFound)
	_, err = w.svc.AdminUpdateUser(ctx, principal(w.manager), w.manager.ID, AdminUserPatch{Role: Some(domain.RoleAdmin)})
	requireCode(t, err, apperr.CodeForbidden)

	res := w.join(t, w.luis, w.rooms[0])
	off, err := w.svc.AdminUpdateUser(ctx, admin, w.luis.ID, AdminUserPatch{Active: Some(false)})
	require.NoError(t, err)
	assert.False(t, off.Active)
	var stay domain.Stay
	require.NoError(t, w.gdb.First(&stay, res.Stay.ID).Error)
	assert.Equal(t, domain.StayKicked, stay.Status)

	require.NoError(t, w.svc.AdminSetPassword(ctx, w.ana.ID, SetPasswordInput{Password: "reseteada1"}))
	_, err = w.svc.Login(ctx, LoginInput{Email: "ana@pisos.local", Password: "reseteada1"})
	require.NoError(t, err)
	err = w.svc.AdminSetPassword(ctx, 9999, SetPasswordInput{Password: "reseteada1"})
	requireCode(t, err, apperr.CodeUserNotFound)
}

func TestBootstrapAdmin(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	fresh, err := w.svc.BootstrapAdmin(ctx, RegisterInput{Name: "Root", Email: "root@pisos.local", Password: "superclave1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, fresh.Role)

	res := w.join(t, w.eva, w.rooms[0])
	promoted, err := w.svc.BootstrapAdmin(ctx, RegisterInput{Name: "Eva", Email: "EVA@pisos.local", Password: "superclave2"})
	require.NoError(t, err)
	assert.Equal(t, w.eva.ID, promoted.ID)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
	var stay domain.Stay
	require.NoError(t, w.gdb.First(&stay, res.Stay.ID).Error)
	assert.Equal(t, domain.StayKicked, stay.Status)
	_, err = w.svc.Login(ctx, LoginInput{Email: "eva@pisos.local", Password: "superclave2"})
	require.NoError(t, err)

	_, err = w.svc.BootstrapAdmin(ctx, RegisterInput{Name: "x", Email: "bad", Password: "superclave3"})
	requireCode(t, err, apperr.CodeValidation)
}
