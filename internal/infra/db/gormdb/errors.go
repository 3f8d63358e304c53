package gormdb

import (
	"errors"

	"gorm.io/gorm"
)

// translate maps driver errors to domain sentinels: a missing row becomes notFound and a
// unique violation becomes duplicate. Either may be nil to leave that case untouched.
func translate(err, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case duplicate != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicate
	}
	return err
}

// affected reports notFound when a targeted write matched no row.
func affected(res *gorm.DB, notFound error) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}
