package db

import (
	"fmt"  // Error wrapping
	"time" // Stay timestamps

	"room_rental/internal/domain" // Importing domain models
	"room_rental/internal/utils"  // Password hashing

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// SeedPassword is the password of every demo account
const SeedPassword = "password123"

// Seed inserts a small demo dataset: one admin, one advertiser with a piso and three rooms, and two tenants sharing it
func Seed(gdb *gorm.DB, bcryptCost int) error {
	var count int64
	if err := gdb.Model(&domain.User{}).Count(&count).Error; err != nil {
		return err
	}
	// Never seed over real data
	if count > 0 {
		logrus.Info("Database already has users, skipping seed.")
		return nil
	}
	hash, err := utils.HashPassword(SeedPassword, bcryptCost)
	if err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		users := []domain.User{
			{Name: "Admin", Email: "admin@pisos.local", PasswordHash: hash, Role: domain.RoleAdmin, Active: true},
			{Name: "Marta", Email: "marta@pisos.local", PasswordHash: hash, Role: domain.RoleAdvertiser, Active: true},
			{Name: "Luis", Email: "luis@pisos.local", PasswordHash: hash, Role: domain.RoleUser, Active: true},
			{Name: "Ana", Email: "ana@pisos.local", PasswordHash: hash, Role: domain.RoleUser, Active: true},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		cp := "28004"
		piso := domain.Property{Address: "Calle Fuencarral 45, 3A", City: "Madrid", PostalCode: &cp, ManagerID: users[1].ID, Active: true}
		if err := tx.Create(&piso).Error; err != nil {
			return fmt.Errorf("seed piso: %w", err)
		}
		size := 12.5
		rooms := []domain.Room{
			{PropertyID: piso.ID, Title: "Habitación exterior con balcón", MonthlyPrice: 480, Active: true, SizeM2: &size, Furnished: true, Balcony: true},
			{PropertyID: piso.ID, Title: "Habitación con baño propio", MonthlyPrice: 550, Active: true, Furnished: true, Bathroom: true},
			{PropertyID: piso.ID, Title: "Habitación interior", MonthlyPrice: 390, Available: true, Active: true},
		}
		if err := tx.Create(&rooms).Error; err != nil {
			return fmt.Errorf("seed rooms: %w", err)
		}
		photos := []domain.PropertyPhoto{
			{PropertyID: piso.ID, URL: "https://picsum.photos/seed/piso1/800/600", Order: 0},
			{PropertyID: piso.ID, URL: "https://picsum.photos/seed/piso2/800/600", Order: 1},
		}
		if err := tx.Create(&photos).Error; err != nil {
			return fmt.Errorf("seed photos: %w", err)
		}
		since := time.Now().UTC().AddDate(0, -2, 0)
		stays := []domain.Stay{
			{UserID: users[2].ID, RoomID: rooms[0].ID, EnteredAt: since, Status: domain.StayActive},
			{UserID: users[3].ID, RoomID: rooms[1].ID, EnteredAt: since.AddDate(0, 0, 10), Status: domain.StayActive},
		}
		if err := tx.Create(&stays).Error; err != nil {
			return fmt.Errorf("seed stays: %w", err)
		}
		logrus.WithField("users", len(users)).Info("Seed completed.")
		return nil
	})
}
