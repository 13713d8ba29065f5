package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/db"
	"room_rental/internal/domain"
	"room_rental/internal/query"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RoomInput is the body of POST /api/admin/habitacion.
type RoomInput struct {
	PropertyID   uint     `json:"piso_id" binding:"required"`
	Title        string   `json:"titulo" binding:"required"`
	Description  *string  `json:"descripcion"`
	MonthlyPrice *int     `json:"precio_mensual" binding:"required,min=0"`
	Available    *bool    `json:"disponible"`
	SizeM2       *float64 `json:"tamano_m2" binding:"omitempty,gt=0"`
	Furnished    bool     `json:"amueblada"`
	Bathroom     bool     `json:"bano"`
	Balcony      bool     `json:"balcon"`
}

// RoomPatch is the body of PATCH /api/admin/habitacion/:id.
type RoomPatch struct {
	Title        Optional[string]  `json:"titulo"`
	Description  Optional[string]  `json:"descripcion"`
	MonthlyPrice Optional[int]     `json:"precio_mensual"`
	Available    Optional[bool]    `json:"disponible"`
	SizeM2       Optional[float64] `json:"tamano_m2"`
	Furnished    Optional[bool]    `json:"amueblada"`
	Bathroom     Optional[bool]    `json:"bano"`
	Balcony      Optional[bool]    `json:"balcon"`
	Active       Optional[bool]    `json:"activo"`
}

// RoomItem is one row of the room listings.
type RoomItem struct {
	ID            uint      `json:"id"`
	PropertyID    uint      `gorm:"column:piso_id" json:"piso_id"`
	Title         string    `gorm:"column:titulo" json:"titulo"`
	Description   *string   `gorm:"column:descripcion" json:"descripcion"`
	MonthlyPrice  int       `gorm:"column:precio_mensual" json:"precio_mensual"`
	Available     bool      `gorm:"column:disponible" json:"disponible"`
	Active        bool      `gorm:"column:activo" json:"activo"`
	SizeM2        *float64  `gorm:"column:tamano_m2" json:"tamano_m2"`
	Furnished     bool      `gorm:"column:amueblada" json:"amueblada"`
	Bathroom      bool      `gorm:"column:bano" json:"bano"`
	Balcony       bool      `gorm:"column:balcon" json:"balcon"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
	Occupied      bool      `gorm:"column:ocupada" json:"ocupada"`
	Address       string    `gorm:"column:direccion" json:"direccion"`
	City          string    `gorm:"column:ciudad" json:"ciudad"`
	PostalCode    *string   `gorm:"column:codigo_postal" json:"codigo_postal"`
	ManagerID     uint      `gorm:"column:manager_usuario_id" json:"manager_usuario_id"`
	CoverPhotoURL *string   `gorm:"column:foto_portada_url" json:"foto_portada_url"`
	TotalCount    int64     `gorm:"column:total_count" json:"-"`
}

type RoomPage struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
	Items      []RoomItem `json:"items"`
}

// PropertySummary is the piso embedded in a room detail.
type PropertySummary struct {
	ID         uint    `json:"id"`
	Address    string  `json:"direccion"`
	City       string  `json:"ciudad"`
	PostalCode *string `json:"codigo_postal"`
	ManagerID  uint    `json:"manager_usuario_id"`
}

type RoomView struct {
	domain.Room
	Occupied bool            `json:"ocupada"`
	Property PropertySummary `json:"piso"`
}

// RoomDetail is the body of GET /api/habitacion/:id.
type RoomDetail struct {
	Room   RoomView           `json:"habitacion"`
	Photos []domain.RoomPhoto `json:"fotos"`
}

const roomColumns = `h.id, h.piso_id, h.titulo, h.descripcion, h.precio_mensual, h.disponible, h.activo,
	h.tamano_m2, h.amueblada, h.bano, h.balcon, h.created_at, h.updated_at,
	p.direccion, p.ciudad, p.codigo_postal, p.manager_usuario_id,
	EXISTS (SELECT 1 FROM usuario_habitacion uh WHERE uh.habitacion_id = h.id AND uh.fecha_salida IS NULL) AS ocupada,
	(SELECT fh.url FROM foto_habitacion fh WHERE fh.habitacion_id = h.id ORDER BY fh.orden ASC, fh.id ASC LIMIT 1) AS foto_portada_url,
	COUNT(*) OVER() AS total_count`

var roomSorts = map[string]string{
	"precio_asc":  "h.precio_mensual ASC, h.id ASC",
	"precio_desc": "h.precio_mensual DESC, h.id ASC",
	"newest":      "h.created_at DESC, h.id DESC",
	"tamano_desc": "h.tamano_m2 IS NULL, h.tamano_m2 DESC, h.id ASC",
}

// roomListSpec builds the room filters. Free text uses the Spanish
// full-text index on Postgres and a LIKE scan elsewhere.
func roomListSpec(dialect string) query.Spec {
	text := query.Filter{
		Key:       "q",
		Kind:      query.String,
		Clause:    "(LOWER(h.titulo) LIKE ? OR LOWER(COALESCE(h.descripcion, '')) LIKE ?)",
		Transform: query.Like,
	}
	if dialect == db.DialectPostgres {
		text = query.Filter{
			Key:    "q",
			Kind:   query.String,
			Clause: "to_tsvector('spanish', coalesce(h.titulo, '') || ' ' || coalesce(h.descripcion, '')) @@ plainto_tsquery('spanish', ?)",
		}
	}
	return query.Spec{
		Filters: []query.Filter{
			{Key: "ciudad", Kind: query.String, Clause: "LOWER(p.ciudad) = ?", Transform: query.Lower},
			{Key: "precioMax", Kind: query.Int, Clause: "h.precio_mensual <= ?"},
			{Key: "disponible", Kind: query.Bool, Default: "true", Clause: "h.disponible = ?"},
			{Key: "bano", Kind: query.Bool, Clause: "h.bano = ?"},
			{Key: "balcon", Kind: query.Bool, Clause: "h.balcon = ?"},
			{Key: "amueblada", Kind: query.Bool, Clause: "h.amueblada = ?"},
			{Key: "tamanoMin", Kind: query.Float, Clause: "h.tamano_m2 >= ?"},
			{Key: "tamanoMax", Kind: query.Float, Clause: "h.tamano_m2 <= ?"},
			text,
		},
		Sorts:        roomSorts,
		DefaultSort:  "precio_asc",
		DefaultLimit: 10,
	}
}

// ListRooms pages through active rooms of active pisos.
func (s *Service) ListRooms(ctx context.Context, values url.Values) (*RoomPage, error) {
	return s.listRooms(ctx, values, roomListSpec(s.db.Dialector.Name()), nil)
}

// RoomsByProperty lists the available rooms of one active piso.
func (s *Service) RoomsByProperty(ctx context.Context, pisoID uint, values url.Values) (*RoomPage, error) {
	var piso domain.Property
	if err := authz.LoadProperty(s.conn(ctx), pisoID, false, &piso); err != nil {
		return nil, err
	}
	if !piso.Active {
		return nil, apperr.NotFound(apperr.CodePisoNotFound)
	}
	spec := roomListSpec(s.db.Dialector.Name())
	spec.DefaultLimit = 20
	return s.listRooms(ctx, values, spec, func(q *gorm.DB) *gorm.DB {
		return q.Where("h.piso_id = ?", pisoID)
	})
}

func (s *Service) listRooms(ctx context.Context, values url.Values, spec query.Spec, scope func(*gorm.DB) *gorm.DB) (*RoomPage, error) {
	pg := query.ParsePage(values, spec.DefaultLimit)
	base := s.conn(ctx).Table("habitacion AS h").
		Joins("JOIN piso p ON p.id = h.piso_id").
		Where("h.activo = ? AND p.activo = ?", true, true)
	if scope != nil {
		base = scope(base)
	}
	q, err := spec.Where(base, values)
	if err != nil {
		return nil, err
	}
	q = q.Session(&gorm.Session{})

	rows := []RoomItem{}
	if err := q.Select(roomColumns).
		Order(spec.Order(values.Get("sort"))).
		Limit(pg.Limit).Offset(pg.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	var first int64
	if len(rows) > 0 {
		first = rows[0].TotalCount
	}
	total, err := windowTotal(q, first, len(rows), pg)
	if err != nil {
		return nil, err
	}
	return &RoomPage{Page: pg.Page, Limit: pg.Limit, Total: total, TotalPages: pg.TotalPages(total), Items: rows}, nil
}

// GetRoom returns a room of an active piso with its photos and occupancy.
func (s *Service) GetRoom(ctx context.Context, id uint) (*RoomDetail, error) {
	tx := s.conn(ctx)
	var room domain.Room
	if err := authz.LoadRoom(tx, id, false, &room); err != nil {
		return nil, err
	}
	var piso domain.Property
	if err := authz.LoadProperty(tx, room.PropertyID, false, &piso); err != nil {
		return nil, err
	}
	if !room.Active || !piso.Active {
		return nil, apperr.NotFound(apperr.CodeHabitacionNotFound)
	}
	occupied, err := occupiedRooms(tx, []uint{room.ID})
	if err != nil {
		return nil, err
	}
	photos, err := listPhotos[domain.RoomPhoto](tx, "habitacion_id", room.ID)
	if err != nil {
		return nil, err
	}
	return &RoomDetail{
		Room: RoomView{
			Room:     room,
			Occupied: occupied[room.ID],
			Property: PropertySummary{ID: piso.ID, Address: piso.Address, City: piso.City, PostalCode: piso.PostalCode, ManagerID: piso.ManagerID},
		},
		Photos: photos,
	}, nil
}

// CreateRoom adds a room to a piso the caller manages.
func (s *Service) CreateRoom(ctx context.Context, p authz.Principal, in RoomInput) (*domain.Room, error) {
	title := strings.TrimSpace(in.Title)
	var invalid []string
	if title == "" {
		invalid = append(invalid, "titulo")
	}
	if in.MonthlyPrice == nil || *in.MonthlyPrice < 0 {
		invalid = append(invalid, "precio_mensual")
	}
	if in.SizeM2 != nil && *in.SizeM2 <= 0 {
		invalid = append(invalid, "tamano_m2")
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	room := domain.Room{
		PropertyID:   in.PropertyID,
		Title:        title,
		Description:  in.Description,
		MonthlyPrice: *in.MonthlyPrice,
		Available:    available,
		Active:       true,
		SizeM2:       in.SizeM2,
		Furnished:    in.Furnished,
		Bathroom:     in.Bathroom,
		Balcony:      in.Balcony,
	}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		capability := authz.PropertyManager(in.PropertyID)
		if err := capability.Check(tx, p); err != nil {
			return err
		}
		if !capability.Property.Active {
			return apperr.Conflict(apperr.CodePisoInactive)
		}
		if err := tx.Create(&room).Error; err != nil {
			if db.IsCheck(err) {
				return apperr.Validation("precio_mensual", "tamano_m2")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"habitacion_id": room.ID, "piso_id": room.PropertyID}).Info("room created")
	return &room, nil
}

// UpdateRoom edits a room. An occupied room cannot be reopened or deactivated.
func (s *Service) UpdateRoom(ctx context.Context, p authz.Principal, id uint, in RoomPatch) (*domain.Room, error) {
	set := map[string]any{}
	var invalid []string
	if in.Title.Set {
		if v := strings.TrimSpace(in.Title.Value); in.Title.Null || v == "" {
			invalid = append(invalid, "titulo")
		} else {
			set["titulo"] = v
		}
	}
	if in.Description.Set {
		set["descripcion"] = in.Description.nullable()
	}
	if in.MonthlyPrice.Set {
		if in.MonthlyPrice.Null || in.MonthlyPrice.Value < 0 {
			invalid = append(invalid, "precio_mensual")
		} else {
			set["precio_mensual"] = in.MonthlyPrice.Value
		}
	}
	if in.SizeM2.Set {
		if !in.SizeM2.Null && in.SizeM2.Value <= 0 {
			invalid = append(invalid, "tamano_m2")
		} else {
			set["tamano_m2"] = in.SizeM2.nullable()
		}
	}
	for _, b := range []struct {
		column string
		value  Optional[bool]
	}{
		{"disponible", in.Available},
		{"amueblada", in.Furnished},
		{"bano", in.Bathroom},
		{"balcon", in.Balcony},
		{"activo", in.Active},
	} {
		if !b.value.Set {
			continue
		}
		if b.value.Null {
			invalid = append(invalid, b.column)
			continue
		}
		set[b.column] = b.value.Value
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	if len(set) == 0 {
		return nil, apperr.BadRequest(apperr.CodeNoFieldsToUpdate)
	}

	var room domain.Room
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		capability := authz.RoomManager(id).ForUpdate()
		if err := capability.Check(tx, p); err != nil {
			return err
		}
		if !capability.Property.Active {
			return apperr.Conflict(apperr.CodePisoInactive)
		}
		reopen := set["disponible"] == true
		deactivate := set["activo"] == false
		if reopen || deactivate {
			open, err := openStayCount(tx, "habitacion_id", id)
			if err != nil {
				return err
			}
			if open > 0 {
				return apperr.Conflict(apperr.CodeRoomOccupied)
			}
		}
		if err := tx.Model(&domain.Room{}).Where("id = ?", id).Updates(set).Error; err != nil {
			if db.IsCheck(err) {
				return apperr.Validation("precio_mensual", "tamano_m2")
			}
			return err
		}
		return tx.First(&room, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeactivateRoom soft-deletes an unoccupied room.
func (s *Service) DeactivateRoom(ctx context.Context, p authz.Principal, id uint) (*domain.Room, error) {
	var room domain.Room
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.RoomManager(id).ForUpdate().Check(tx, p); err != nil {
			return err
		}
		open, err := openStayCount(tx, "habitacion_id", id)
		if err != nil {
			return err
		}
		if open > 0 {
			return apperr.Conflict(apperr.CodeRoomOccupied)
		}
		if err := tx.Model(&domain.Room{}).Where("id = ?", id).
			Updates(map[string]any{"activo": false, "disponible": false}).Error; err != nil {
			return err
		}
		return tx.First(&room, id).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"habitacion_id": id, "by": p.ID}).Info("room deactivated")
	return &room, nil
}
