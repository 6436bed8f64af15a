// Package setting stores named runtime markers, such as the fingerprint of the last
// seeded permission catalog, in the settings table.
package setting

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/postdeck/postdeck/internal/db/models"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when a setting name is empty.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var s models.Setting

	err := db.Where("name = ?", name).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingNotFound
	}

	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read setting %s", name)
	}

	return &s, nil
}

// GetString returns the value of a setting, or def when it does not exist.
func GetString(db *gorm.DB, name, def string) (string, error) {
	s, err := Get(db, name)
	if errors.Is(err, ErrSettingNotFound) {
		return def, nil
	}

	if err != nil {
		return "", err
	}

	return string(s.Value), nil
}

// Set creates or replaces a setting by name.
func Set(db *gorm.DB, name string, value []byte) error {
	if err := check(db, name); err != nil {
		return err
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Name: name, Value: value}).Error
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to write setting %s", name)
	}

	return nil
}

// Delete removes a setting by name. Deleting a missing setting returns ErrSettingNotFound.
func Delete(db *gorm.DB, name string) error {
	if err := check(db, name); err != nil {
		return err
	}

	res := db.Where("name = ?", name).Delete(&models.Setting{})
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "failed to delete setting %s", name)
	}

	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

func check(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return nil
}
