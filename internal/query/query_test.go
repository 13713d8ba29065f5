package query

import (
	"net/url"
	"testing"

	"room_rental/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID     uint
	Ciudad string
	Precio int
	Libre  bool
}

func (row) TableName() string { return "fila" }

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&row{}))
	require.NoError(t, gdb.Create(&[]row{
		{Ciudad: "Madrid", Precio: 300, Libre: true},
		{Ciudad: "madrid", Precio: 600, Libre: true},
		{Ciudad: "Sevilla", Precio: 450, Libre: false},
	}).Error)
	return gdb
}

var spec = Spec{
	Filters: []Filter{
		{Key: "ciudad", Kind: String, Clause: "LOWER(ciudad) = ?", Transform: Lower},
		{Key: "precioMax", Kind: Int, Clause: "precio <= ?"},
		{Key: "libre", Kind: Bool, Default: "true", Clause: "libre = ?"},
	},
	Sorts:        map[string]string{"precio_asc": "precio ASC", "precio_desc": "precio DESC"},
	DefaultSort:  "precio_asc",
	DefaultLimit: 10,
}

func TestWhereAppliesFiltersAndDefaults(t *testing.T) {
	gdb := testDB(t)

	tx, err := spec.Where(gdb.Model(&row{}), url.Values{"ciudad": {"MADRID"}, "precioMax": {"500"}})
	require.NoError(t, err)
	var rows []row
	require.NoError(t, tx.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 300, rows[0].Precio)

	tx, err = spec.Where(gdb.Model(&row{}), url.Values{"libre": {"false"}})
	require.NoError(t, err)
	rows = nil
	require.NoError(t, tx.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sevilla", rows[0].Ciudad)
}

func TestWhereReportsInvalidKeys(t *testing.T) {
	gdb := testDB(t)
	_, err := spec.Where(gdb.Model(&row{}), url.Values{"precioMax": {"cheap"}, "libre": {"maybe"}})
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	assert.Equal(t, []string{"precioMax", "libre"}, appErr.Details)
}

func TestWhereKeepsInjectionAsValue(t *testing.T) {
	gdb := testDB(t)
	tx, err := spec.Where(gdb.Model(&row{}), url.Values{"ciudad": {"x' OR '1'='1"}})
	require.NoError(t, err)
	var count int64
	require.NoError(t, tx.Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "precio DESC", spec.Order("precio_desc"))
	assert.Equal(t, "precio ASC", spec.Order("precio; DROP TABLE fila"))
	assert.Equal(t, "precio ASC", spec.Order(""))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 10}, ParsePage(url.Values{}, 10))
	assert.Equal(t, Page{Page: 3, Limit: 100}, ParsePage(url.Values{"page": {"3"}, "limit": {"500"}}, 10))
	assert.Equal(t, Page{Page: 1, Limit: 20}, ParsePage(url.Values{"page": {"-2"}, "limit": {"abc"}}, 20))

	p := Page{Page: 2, Limit: 10}
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 3, p.TotalPages(21))
	assert.Equal(t, 0, p.TotalPages(0))

	huge := ParsePage(url.Values{"page": {"922337203685477581"}, "limit": {"100"}}, 10)
	assert.Equal(t, MaxPage, huge.Page)
	assert.Positive(t, huge.Offset())
}
