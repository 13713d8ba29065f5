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

// PropertyInput is the body of POST /api/piso.
type PropertyInput struct {
	Address     string  `json:"direccion" binding:"required"`
	City        string  `json:"ciudad" binding:"required"`
	PostalCode  *string `json:"codigo_postal"`
	Description *string `json:"descripcion"`
	ManagerID   *uint   `json:"manager_usuario_id"`
}

// PropertyPatch is the body of PATCH /api/piso/:id.
type PropertyPatch struct {
	Address     Optional[string] `json:"direccion"`
	City        Optional[string] `json:"ciudad"`
	PostalCode  Optional[string] `json:"codigo_postal"`
	Description Optional[string] `json:"descripcion"`
	ManagerID   Optional[uint]   `json:"manager_usuario_id"`
	Active      Optional[bool]   `json:"activo"`
}

// PropertyItem is one row of the piso listing.
type PropertyItem struct {
	ID             uint      `json:"id"`
	Address        string    `gorm:"column:direccion" json:"direccion"`
	City           string    `gorm:"column:ciudad" json:"ciudad"`
	PostalCode     *string   `gorm:"column:codigo_postal" json:"codigo_postal"`
	Description    *string   `gorm:"column:descripcion" json:"descripcion"`
	ManagerID      uint      `gorm:"column:manager_usuario_id" json:"manager_usuario_id"`
	Active         bool      `gorm:"column:activo" json:"activo"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
	CoverPhotoURL  *string   `gorm:"column:foto_portada_url" json:"foto_portada_url"`
	PriceFrom      *int64    `gorm:"column:precio_desde" json:"precio_desde"`
	AvailableRooms int64     `gorm:"column:habitaciones_disponibles" json:"habitaciones_disponibles"`
	TotalCount     int64     `gorm:"column:total_count" json:"-"`
}

type PropertyPage struct {
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"totalPages"`
	Properties []PropertyItem `json:"pisos"`
}

// RoomWithPhotos is a room inside a piso detail.
type RoomWithPhotos struct {
	domain.Room
	Occupied bool               `json:"ocupada"`
	Photos   []domain.RoomPhoto `json:"fotos"`
}

// PropertyDetail is the body of GET /api/piso/:id.
type PropertyDetail struct {
	Property domain.Property        `json:"piso"`
	Photos   []domain.PropertyPhoto `json:"fotos_piso"`
	Rooms    []RoomWithPhotos       `json:"habitaciones"`
}

const activeAvailableRoom = "h.piso_id = p.id AND h.activo = TRUE AND h.disponible = TRUE"

var propertyListSpec = query.Spec{
	Filters: []query.Filter{
		{Key: "ciudad", Kind: query.String, Clause: "LOWER(p.ciudad) = ?", Transform: query.Lower},
		{Key: "precioMax", Kind: query.Int, Clause: "EXISTS (SELECT 1 FROM habitacion h WHERE h.piso_id = p.id AND h.activo = TRUE AND h.precio_mensual <= ?)"},
		{Key: "disponible", Kind: query.Bool, Clause: "EXISTS (SELECT 1 FROM habitacion h WHERE " + activeAvailableRoom + ") = ?"},
	},
	Sorts: map[string]string{
		"newest": "p.created_at DESC, p.id DESC",
		"oldest": "p.created_at ASC, p.id ASC",
	},
	DefaultSort:  "newest",
	DefaultLimit: 10,
}

const propertyColumns = `p.id, p.direccion, p.ciudad, p.codigo_postal, p.descripcion, p.manager_usuario_id,
	p.activo, p.created_at, p.updated_at,
	(SELECT fp.url FROM foto_piso fp WHERE fp.piso_id = p.id ORDER BY fp.orden ASC, fp.id ASC LIMIT 1) AS foto_portada_url,
	(SELECT MIN(h.precio_mensual) FROM habitacion h WHERE ` + activeAvailableRoom + `) AS precio_desde,
	(SELECT COUNT(*) FROM habitacion h WHERE ` + activeAvailableRoom + `) AS habitaciones_disponibles,
	COUNT(*) OVER() AS total_count`

// ListProperties pages through active pisos.
func (s *Service) ListProperties(ctx context.Context, values url.Values) (*PropertyPage, error) {
	pg := query.ParsePage(values, propertyListSpec.DefaultLimit)
	q, err := propertyListSpec.Where(s.conn(ctx).Table("piso AS p").Where("p.activo = ?", true), values)
	if err != nil {
		return nil, err
	}
	q = q.Session(&gorm.Session{})

	rows := []PropertyItem{}
	if err := q.Select(propertyColumns).
		Order(propertyListSpec.Order(values.Get("sort"))).
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
	return &PropertyPage{Page: pg.Page, Limit: pg.Limit, Total: total, TotalPages: pg.TotalPages(total), Properties: rows}, nil
}

// PropertiesByCity is ListProperties with the city fixed by the path.
func (s *Service) PropertiesByCity(ctx context.Context, city string, values url.Values) (*PropertyPage, error) {
	v := url.Values{}
	for k, vals := range values {
		v[k] = vals
	}
	v.Set("ciudad", city)
	return s.ListProperties(ctx, v)
}

// windowTotal returns the COUNT(*) OVER() value of the page, or counts
// again when the page is past the end and carries no rows.
func windowTotal(q *gorm.DB, first int64, n int, pg query.Page) (int64, error) {
	if n > 0 || pg.Page == 1 {
		return first, nil
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// GetProperty returns an active piso with its photos and active rooms.
func (s *Service) GetProperty(ctx context.Context, id uint) (*PropertyDetail, error) {
	tx := s.conn(ctx)
	var detail PropertyDetail
	if err := authz.LoadProperty(tx, id, false, &detail.Property); err != nil {
		return nil, err
	}
	if !detail.Property.Active {
		return nil, apperr.NotFound(apperr.CodePisoNotFound)
	}
	detail.Photos = []domain.PropertyPhoto{}
	if err := tx.Where("piso_id = ?", id).Order("orden ASC, id ASC").Find(&detail.Photos).Error; err != nil {
		return nil, err
	}
	var rooms []domain.Room
	if err := tx.Where("piso_id = ? AND activo = ?", id, true).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	occupied, err := occupiedRooms(tx, ids)
	if err != nil {
		return nil, err
	}
	var photos []domain.RoomPhoto
	if len(ids) > 0 {
		if err := tx.Where("habitacion_id IN ?", ids).Order("orden ASC, id ASC").Find(&photos).Error; err != nil {
			return nil, err
		}
	}
	byRoom := map[uint][]domain.RoomPhoto{}
	for _, ph := range photos {
		byRoom[ph.RoomID] = append(byRoom[ph.RoomID], ph)
	}
	detail.Rooms = make([]RoomWithPhotos, len(rooms))
	for i, r := range rooms {
		fotos := byRoom[r.ID]
		if fotos == nil {
			fotos = []domain.RoomPhoto{}
		}
		detail.Rooms[i] = RoomWithPhotos{Room: r, Occupied: occupied[r.ID], Photos: fotos}
	}
	return &detail, nil
}

// occupiedRooms returns the subset of ids holding an active stay.
func occupiedRooms(tx *gorm.DB, ids []uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	if len(ids) == 0 {
		return out, nil
	}
	var busy []uint
	if err := tx.Model(&domain.Stay{}).
		Where("habitacion_id IN ? AND fecha_salida IS NULL", ids).
		Pluck("habitacion_id", &busy).Error; err != nil {
		return nil, err
	}
	for _, id := range busy {
		out[id] = true
	}
	return out, nil
}

// CreateProperty registers a piso managed by the caller. Admins may name
// another advertiser as manager.
func (s *Service) CreateProperty(ctx context.Context, p authz.Principal, in PropertyInput) (*domain.Property, error) {
	if err := authz.Roles(domain.RoleAdmin, domain.RoleAdvertiser).Check(nil, p); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(in.Address)
	city := strings.TrimSpace(in.City)
	var invalid []string
	if address == "" {
		invalid = append(invalid, "direccion")
	}
	if city == "" {
		invalid = append(invalid, "ciudad")
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	managerID := p.ID
	if in.ManagerID != nil && *in.ManagerID != p.ID {
		if !p.IsAdmin() {
			return nil, apperr.Forbidden(apperr.CodeForbidden)
		}
		managerID = *in.ManagerID
	}

	piso := domain.Property{
		Address:     address,
		City:        city,
		PostalCode:  in.PostalCode,
		Description: in.Description,
		ManagerID:   managerID,
		Active:      true,
	}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if managerID != p.ID {
			if err := checkManager(tx, managerID); err != nil {
				return err
			}
		}
		return tx.Create(&piso).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"piso_id": piso.ID, "manager": managerID}).Info("piso created")
	return &piso, nil
}

// checkManager makes sure id names an active advertiser or admin.
func checkManager(tx *gorm.DB, id uint) error {
	var u domain.User
	if err := tx.First(&u, id).Error; err != nil {
		if db.IsNotFound(err) {
			return apperr.Validation("manager_usuario_id")
		}
		return err
	}
	if !u.Active || u.Role == domain.RoleUser {
		return apperr.Validation("manager_usuario_id")
	}
	return nil
}

// UpdateProperty edits a piso. Reactivating and reassigning are admin only.
func (s *Service) UpdateProperty(ctx context.Context, p authz.Principal, id uint, in PropertyPatch) (*domain.Property, error) {
	set := map[string]any{}
	var invalid []string
	if in.Address.Set {
		if v := strings.TrimSpace(in.Address.Value); in.Address.Null || v == "" {
			invalid = append(invalid, "direccion")
		} else {
			set["direccion"] = v
		}
	}
	if in.City.Set {
		if v := strings.TrimSpace(in.City.Value); in.City.Null || v == "" {
			invalid = append(invalid, "ciudad")
		} else {
			set["ciudad"] = v
		}
	}
	if in.PostalCode.Set {
		set["codigo_postal"] = in.PostalCode.nullable()
	}
	if in.Description.Set {
		set["descripcion"] = in.Description.nullable()
	}
	if in.ManagerID.Set {
		if in.ManagerID.Null {
			invalid = append(invalid, "manager_usuario_id")
		} else {
			set["manager_usuario_id"] = in.ManagerID.Value
		}
	}
	if in.Active.Set {
		if in.Active.Null {
			invalid = append(invalid, "activo")
		} else {
			set["activo"] = in.Active.Value
		}
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	if len(set) == 0 {
		return nil, apperr.BadRequest(apperr.CodeNoFieldsToUpdate)
	}

	var piso domain.Property
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		capability := authz.PropertyManager(id).ForUpdate()
		if err := capability.Check(tx, p); err != nil {
			return err
		}
		if !p.IsAdmin() {
			if active, ok := set["activo"]; ok && active == true && !capability.Property.Active {
				return apperr.Forbidden(apperr.CodeForbidden)
			}
			if _, ok := set["manager_usuario_id"]; ok {
				return apperr.Forbidden(apperr.CodeForbidden)
			}
		}
		if mid, ok := set["manager_usuario_id"]; ok {
			if err := checkManager(tx, mid.(uint)); err != nil {
				return err
			}
		}
		if active, ok := set["activo"]; ok && active == false {
			if err := ensureNoActiveStays(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.Property{}).Where("id = ?", id).Updates(set).Error; err != nil {
			return err
		}
		return tx.First(&piso, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &piso, nil
}

// DeactivateProperty soft-deletes a piso that nobody lives in.
func (s *Service) DeactivateProperty(ctx context.Context, p authz.Principal, id uint) (*domain.Property, error) {
	var piso domain.Property
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		capability := authz.PropertyManager(id).ForUpdate()
		if err := capability.Check(tx, p); err != nil {
			return err
		}
		if err := ensureNoActiveStays(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&domain.Property{}).Where("id = ?", id).Update("activo", false).Error; err != nil {
			return err
		}
		return tx.First(&piso, id).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"piso_id": id, "by": p.ID}).Info("piso deactivated")
	return &piso, nil
}

func ensureNoActiveStays(tx *gorm.DB, pisoID uint) error {
	var n int64
	if err := tx.Table("usuario_habitacion AS uh").
		Joins("JOIN habitacion h ON h.id = uh.habitacion_id").
		Where("h.piso_id = ? AND uh.fecha_salida IS NULL", pisoID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict(apperr.CodeRoomOccupied)
	}
	return nil
}
