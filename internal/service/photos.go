package service

import (
	"context"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/db"
	"room_rental/internal/domain"

	"gorm.io/gorm"
)

// PhotoInput is the body of a photo upload. Orden defaults to the next free slot.
type PhotoInput struct {
	URL   string `json:"url" binding:"required,url"`
	Order *int   `json:"orden" binding:"omitempty,min=0"`
}

type PhotoPatch struct {
	URL   Optional[string] `json:"url"`
	Order Optional[int]    `json:"orden"`
}

const (
	pisoOwner       = "piso_id"
	habitacionOwner = "habitacion_id"
)

func listPhotos[T any](tx *gorm.DB, owner string, ownerID uint) ([]T, error) {
	photos := []T{}
	err := tx.Where(owner+" = ?", ownerID).Order("orden ASC, id ASC").Find(&photos).Error
	return photos, err
}

// nextOrder returns one past the highest orden of the owner, or 0.
func nextOrder[T any](tx *gorm.DB, owner string, ownerID uint) (int, error) {
	var next int
	err := tx.Model(new(T)).Where(owner+" = ?", ownerID).
		Select("COALESCE(MAX(orden) + 1, 0)").
		Scan(&next).Error
	return next, err
}

// insertPhoto maps the (owner, orden) unique index to ORDER_CONFLICT.
func insertPhoto(tx *gorm.DB, photo any) error {
	if err := tx.Create(photo).Error; err != nil {
		switch db.Classify(err) {
		case db.KindUnique:
			return apperr.Conflict(apperr.CodeOrderConflict)
		case db.KindCheck:
			return apperr.Validation("orden")
		}
		return err
	}
	return nil
}

func updatePhoto[T any](tx *gorm.DB, owner string, ownerID, photoID uint, set map[string]any) (*T, error) {
	var photo T
	if err := tx.Where("id = ? AND "+owner+" = ?", photoID, ownerID).First(&photo).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, apperr.NotFound(apperr.CodePhotoNotFound)
		}
		return nil, err
	}
	if err := tx.Model(new(T)).Where("id = ?", photoID).Updates(set).Error; err != nil {
		switch db.Classify(err) {
		case db.KindUnique:
			return nil, apperr.Conflict(apperr.CodeOrderConflict)
		case db.KindCheck:
			return nil, apperr.Validation("orden")
		}
		return nil, err
	}
	var updated T
	if err := tx.First(&updated, photoID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func deletePhoto[T any](tx *gorm.DB, owner string, ownerID, photoID uint) error {
	res := tx.Where("id = ? AND "+owner+" = ?", photoID, ownerID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodePhotoNotFound)
	}
	return nil
}

// photoInput checks an upload and resolves its orden.
func (s *Service) photoInput(in PhotoInput, next func() (int, error)) (string, int, error) {
	if !s.validURL(in.URL) {
		return "", 0, apperr.Validation("url")
	}
	if in.Order != nil {
		if *in.Order < 0 {
			return "", 0, apperr.Validation("orden")
		}
		return in.URL, *in.Order, nil
	}
	order, err := next()
	return in.URL, order, err
}

func (s *Service) photoUpdates(in PhotoPatch) (map[string]any, error) {
	set := map[string]any{}
	var invalid []string
	if in.URL.Set {
		if in.URL.Null || !s.validURL(in.URL.Value) {
			invalid = append(invalid, "url")
		} else {
			set["url"] = in.URL.Value
		}
	}
	if in.Order.Set {
		if in.Order.Null || in.Order.Value < 0 {
			invalid = append(invalid, "orden")
		} else {
			set["orden"] = in.Order.Value
		}
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	if len(set) == 0 {
		return nil, apperr.BadRequest(apperr.CodeNoFieldsToUpdate)
	}
	return set, nil
}

// PropertyPhotos lists the photos of an active piso.
func (s *Service) PropertyPhotos(ctx context.Context, pisoID uint) ([]domain.PropertyPhoto, error) {
	tx := s.conn(ctx)
	var piso domain.Property
	if err := authz.LoadProperty(tx, pisoID, false, &piso); err != nil {
		return nil, err
	}
	if !piso.Active {
		return nil, apperr.NotFound(apperr.CodePisoNotFound)
	}
	return listPhotos[domain.PropertyPhoto](tx, pisoOwner, pisoID)
}

func (s *Service) AddPropertyPhoto(ctx context.Context, p authz.Principal, pisoID uint, in PhotoInput) (*domain.PropertyPhoto, error) {
	var photo domain.PropertyPhoto
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.PropertyManager(pisoID).ForUpdate().Check(tx, p); err != nil {
			return err
		}
		url, order, err := s.photoInput(in, func() (int, error) {
			return nextOrder[domain.PropertyPhoto](tx, pisoOwner, pisoID)
		})
		if err != nil {
			return err
		}
		photo = domain.PropertyPhoto{PropertyID: pisoID, URL: url, Order: order}
		return insertPhoto(tx, &photo)
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *Service) UpdatePropertyPhoto(ctx context.Context, p authz.Principal, pisoID, photoID uint, in PhotoPatch) (*domain.PropertyPhoto, error) {
	set, err := s.photoUpdates(in)
	if err != nil {
		return nil, err
	}
	var photo *domain.PropertyPhoto
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.PropertyManager(pisoID).ForUpdate().Check(tx, p); err != nil {
			return err
		}
		photo, err = updatePhoto[domain.PropertyPhoto](tx, pisoOwner, pisoID, photoID, set)
		return err
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *Service) DeletePropertyPhoto(ctx context.Context, p authz.Principal, pisoID, photoID uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.PropertyManager(pisoID).Check(tx, p); err != nil {
			return err
		}
		return deletePhoto[domain.PropertyPhoto](tx, pisoOwner, pisoID, photoID)
	})
}

// RoomPhotos lists the photos of an active room in an active piso.
func (s *Service) RoomPhotos(ctx context.Context, roomID uint) ([]domain.RoomPhoto, error) {
	tx := s.conn(ctx)
	var room domain.Room
	if err := authz.LoadRoom(tx, roomID, false, &room); err != nil {
		return nil, err
	}
	var piso domain.Property
	if err := authz.LoadProperty(tx, room.PropertyID, false, &piso); err != nil {
		return nil, err
	}
	if !room.Active || !piso.Active {
		return nil, apperr.NotFound(apperr.CodeHabitacionNotFound)
	}
	return listPhotos[domain.RoomPhoto](tx, habitacionOwner, roomID)
}

func (s *Service) AddRoomPhoto(ctx context.Context, p authz.Principal, roomID uint, in PhotoInput) (*domain.RoomPhoto, error) {
	var photo domain.RoomPhoto
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.RoomManager(roomID).ForUpdate().Check(tx, p); err != nil {
			return err
		}
		url, order, err := s.photoInput(in, func() (int, error) {
			return nextOrder[domain.RoomPhoto](tx, habitacionOwner, roomID)
		})
		if err != nil {
			return err
		}
		photo = domain.RoomPhoto{RoomID: roomID, URL: url, Order: order}
		return insertPhoto(tx, &photo)
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *Service) UpdateRoomPhoto(ctx context.Context, p authz.Principal, roomID, photoID uint, in PhotoPatch) (*domain.RoomPhoto, error) {
	set, err := s.photoUpdates(in)
	if err != nil {
		return nil, err
	}
	var photo *domain.RoomPhoto
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.RoomManager(roomID).ForUpdate().Check(tx, p); err != nil {
			return err
		}
		photo, err = updatePhoto[domain.RoomPhoto](tx, habitacionOwner, roomID, photoID, set)
		return err
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *Service) DeleteRoomPhoto(ctx context.Context, p authz.Principal, roomID, photoID uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := authz.RoomManager(roomID).Check(tx, p); err != nil {
			return err
		}
		return deletePhoto[domain.RoomPhoto](tx, habitacionOwner, roomID, photoID)
	})
}
