package gormdb

import (
	"context"
	"strings"

	domainuser "rentdesk/internal/domain/user"
)

type userRepo struct{ u *Unit }

func (r userRepo) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var m userModel
	if err := r.u.db(ctx).First(&m, "id = ?", string(id)).Error; err != nil {
		return nil, translate(err, domainuser.ErrNotFound, nil)
	}
	return m.toDomain(), nil
}

func (r userRepo) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	var m userModel
	if err := r.u.db(ctx).First(&m, "email = ?", domainuser.NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err, domainuser.ErrNotFound, nil)
	}
	return m.toDomain(), nil
}

func (r userRepo) ByUsername(ctx context.Context, username string) (*domainuser.User, error) {
	var m userModel
	key := strings.ToLower(strings.TrimSpace(username))
	if err := r.u.db(ctx).First(&m, "username_key = ?", key).Error; err != nil {
		return nil, translate(err, domainuser.ErrNotFound, nil)
	}
	return m.toDomain(), nil
}

// Save checks email and username ownership first so the conflict names the right field.
func (r userRepo) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	if user.Email == "" {
		return domainuser.ErrEmailRequired
	}
	m := newUserModel(user)
	var clash []userModel
	err := r.u.db(ctx).
		Where("id <> ? AND (email = ? OR username_key = ?)", m.ID, m.Email, m.UsernameKey).
		Limit(2).
		Find(&clash).Error
	if err != nil {
		return err
	}
	for _, c := range clash {
		if c.Email == m.Email {
			return domainuser.ErrEmailAlreadyUsed
		}
		return domainuser.ErrUsernameTaken
	}
	return translate(r.u.db(ctx).Save(&m).Error, nil, domainuser.ErrEmailAlreadyUsed)
}

func (r userRepo) CountByRole(ctx context.Context) (map[domainuser.Role]int, error) {
	var rows []struct {
		Role  string
		Count int
	}
	err := r.u.db(ctx).Model(&userModel{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domainuser.Role]int, len(rows))
	for _, row := range rows {
		out[domainuser.Role(row.Role)] = row.Count
	}
	return out, nil
}

var _ domainuser.Repository = userRepo{}
