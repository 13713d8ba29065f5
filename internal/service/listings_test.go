package service

import (
	"context"
	"net/url"
	"testing"

	"room_rental/internal/apperr"
	"room_rental/internal/domain"
	"room_rental/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addBarcelona adds a second piso with one 500 euro room.
func addBarcelona(t *testing.T, w *world) (domain.Property, domain.Room) {
	t.Helper()
	piso := domain.Property{Address: "Carrer Gran 7", City: "Barcelona", ManagerID: w.other.ID, Active: true}
	require.NoError(t, w.gdb.Create(&piso).Error)
	room := domain.Room{PropertyID: piso.ID, Title: "Luminosa", MonthlyPrice: 500, Available: true, Active: true, Furnished: true}
	require.NoError(t, w.gdb.Create(&room).Error)
	return piso, room
}

func TestListRoomsFiltersAndTotals(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	addBarcelona(t, w)

	page, err := w.svc.ListRooms(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Items, 4)
	assert.Equal(t, 350, page.Items[0].MonthlyPrice)
	assert.Equal(t, 600, page.Items[3].MonthlyPrice)

	// A page far past the end is empty but still reports the real total
	past, err := w.svc.ListRooms(ctx, url.Values{"page": {"922337203685477581"}})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, int64(4), past.Total)
	assert.Equal(t, query.MaxPage, past.Page)

	cheap, err := w.svc.ListRooms(ctx, url.Values{"precioMax": {"500"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), cheap.Total)
	assert.Len(t, cheap.Items, 3)
	for _, item := range cheap.Items {
		assert.LessOrEqual(t, item.MonthlyPrice, 500)
	}

	madrid, err := w.svc.ListRooms(ctx, url.Values{"ciudad": {"MADRID"}, "sort": {"precio_desc"}})
	require.NoError(t, err)
	require.Len(t, madrid.Items, 3)
	assert.Equal(t, 600, madrid.Items[0].MonthlyPrice)
	assert.Equal(t, "Madrid", madrid.Items[0].City)

	balcony, err := w.svc.ListRooms(ctx, url.Values{"balcon": {"true"}})
	require.NoError(t, err)
	require.Len(t, balcony.Items, 1)
	assert.Equal(t, w.rooms[1].ID, balcony.Items[0].ID)

	text, err := w.svc.ListRooms(ctx, url.Values{"q": {"SUITE"}})
	require.NoError(t, err)
	require.Len(t, text.Items, 1)
	assert.Equal(t, w.rooms[2].ID, text.Items[0].ID)

	sized, err := w.svc.ListRooms(ctx, url.Values{"tamanoMin": {"11"}, "sort": {"tamano_desc"}})
	require.NoError(t, err)
	require.Len(t, sized.Items, 2)
	assert.Equal(t, w.rooms[2].ID, sized.Items[0].ID)

	_, err = w.svc.ListRooms(ctx, url.Values{"precioMax": {"mucho"}, "bano": {"quizas"}})
	requireCode(t, err, apperr.CodeValidation)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.ElementsMatch(t, []string{"precioMax", "bano"}, appErr.Details)
}

func TestListRoomsPaging(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first, err := w.svc.ListRooms(ctx, url.Values{"limit": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Total)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Items, 2)

	past, err := w.svc.ListRooms(ctx, url.Values{"limit": {"2"}, "page": {"7"}})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, int64(3), past.Total)
	assert.Equal(t, 7, past.Page)

	fallback, err := w.svc.ListRooms(ctx, url.Values{"limit": {"-3"}, "page": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.Page)
	assert.Equal(t, 10, fallback.Limit)
}

func TestListRoomsHidesOccupiedAndInactive(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.join(t, w.ana, w.rooms[0])

	page, err := w.svc.ListRooms(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	all, err := w.svc.ListRooms(ctx, url.Values{"disponible": {"false"}})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.True(t, all.Items[0].Occupied)

	_, err = w.svc.DeactivateProperty(ctx, principal(w.manager), w.piso.ID)
	requireCode(t, err, apperr.CodeRoomOccupied)

	_, err = w.svc.Leave(ctx, principal(w.ana))
	require.NoError(t, err)
	_, err = w.svc.DeactivateProperty(ctx, principal(w.manager), w.piso.ID)
	require.NoError(t, err)

	page, err = w.svc.ListRooms(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	_, err = w.svc.GetRoom(ctx, w.rooms[1].ID)
	requireCode(t, err, apperr.CodeHabitacionNotFound)
	_, err = w.svc.GetProperty(ctx, w.piso.ID)
	requireCode(t, err, apperr.CodePisoNotFound)
}

func TestRoomsByPropertyAndDetail(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.join(t, w.luis, w.rooms[1])

	page, err := w.svc.RoomsByProperty(ctx, w.piso.ID, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, int64(2), page.Total)

	_, err = w.svc.RoomsByProperty(ctx, 9999, url.Values{})
	requireCode(t, err, apperr.CodePisoNotFound)

	_, err = w.svc.AddRoomPhoto(ctx, principal(w.manager), w.rooms[1].ID, PhotoInput{URL: "https://img.example.com/a.jpg"})
	require.NoError(t, err)

	detail, err := w.svc.GetRoom(ctx, w.rooms[1].ID)
	require.NoError(t, err)
	assert.True(t, detail.Room.Occupied)
	assert.Equal(t, "Madrid", detail.Room.Property.City)
	require.Len(t, detail.Photos, 1)

	piso, err := w.svc.GetProperty(ctx, w.piso.ID)
	require.NoError(t, err)
	require.Len(t, piso.Rooms, 3)
	assert.True(t, piso.Rooms[1].Occupied)
	assert.Len(t, piso.Rooms[1].Photos, 1)
	assert.Empty(t, piso.Rooms[0].Photos)
}

func TestListProperties(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	addBarcelona(t, w)
	_, err := w.svc.AddPropertyPhoto(ctx, principal(w.manager), w.piso.ID, PhotoInput{URL: "https://img.example.com/portada.jpg"})
	require.NoError(t, err)

	page, err := w.svc.ListProperties(ctx, url.Values{"sort": {"oldest"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Properties, 2)
	madrid := page.Properties[0]
	assert.Equal(t, w.piso.ID, madrid.ID)
	require.NotNil(t, madrid.PriceFrom)
	assert.Equal(t, int64(350), *madrid.PriceFrom)
	assert.Equal(t, int64(3), madrid.AvailableRooms)
	require.NotNil(t, madrid.CoverPhotoURL)
	assert.Equal(t, "https://img.example.com/portada.jpg", *madrid.CoverPhotoURL)

	cheap, err := w.svc.ListProperties(ctx, url.Values{"precioMax": {"400"}})
	require.NoError(t, err)
	require.Len(t, cheap.Properties, 1)
	assert.Equal(t, w.piso.ID, cheap.Properties[0].ID)

	city, err := w.svc.PropertiesByCity(ctx, "barcelona", url.Values{"ciudad": {"Madrid"}})
	require.NoError(t, err)
	require.Len(t, city.Properties, 1)
	assert.Equal(t, "Barcelona", city.Properties[0].City)
}

func TestPhotoOrdering(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	mgr := principal(w.manager)

	a, err := w.svc.AddPropertyPhoto(ctx, mgr, w.piso.ID, PhotoInput{URL: "https://img.example.com/1.jpg"})
	require.NoError(t, err)
	b, err := w.svc.AddPropertyPhoto(ctx, mgr, w.piso.ID, PhotoInput{URL: "https://img.example.com/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)

	one := 1
	_, err = w.svc.AddPropertyPhoto(ctx, mgr, w.piso.ID, PhotoInput{URL: "https://img.example.com/3.jpg", Order: &one})
	requireCode(t, err, apperr.CodeOrderConflict)

	_, err = w.svc.UpdatePropertyPhoto(ctx, mgr, w.piso.ID, a.ID, PhotoPatch{Order: Some(1)})
	requireCode(t, err, apperr.CodeOrderConflict)

	moved, err := w.svc.UpdatePropertyPhoto(ctx, mgr, w.piso.ID, a.ID, PhotoPatch{Order: Some(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, moved.Order)

	photos, err := w.svc.PropertyPhotos(ctx, w.piso.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, b.ID, photos[0].ID)

	_, err = w.svc.AddPropertyPhoto(ctx, mgr, w.piso.ID, PhotoInput{URL: "no es una url"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = w.svc.AddPropertyPhoto(ctx, principal(w.other), w.piso.ID, PhotoInput{URL: "https://img.example.com/x.jpg"})
	requireCode(t, err, apperr.CodeForbidden)
	_, err = w.svc.UpdatePropertyPhoto(ctx, mgr, w.piso.ID, a.ID, PhotoPatch{})
	requireCode(t, err, apperr.CodeNoFieldsToUpdate)

	require.NoError(t, w.svc.DeletePropertyPhoto(ctx, mgr, w.piso.ID, a.ID))
	err = w.svc.DeletePropertyPhoto(ctx, mgr, w.piso.ID, a.ID)
	requireCode(t, err, apperr.CodePhotoNotFound)
}
