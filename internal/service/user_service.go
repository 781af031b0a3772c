package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/auth"
	"testhub/internal/model"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UserInput creates or updates a user. Nil fields are left alone on update.
type UserInput struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Create adds a user. Without a role the user becomes a test engineer.
func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	name, email, password := deref(in.Name), normalizeEmail(deref(in.Email)), deref(in.Password)
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("Name, email and password are required")
	}
	role := model.RoleTestEngineer
	if in.Role != nil && *in.Role != "" {
		if !in.Role.Valid() {
			return nil, apperr.Validation("Invalid role %q", *in.Role)
		}
		role = *in.Role
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(err, "query user by email")
	}
	if count > 0 {
		return nil, apperr.Validation("User already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperr.Wrap(err, "create user")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, lookupErr(err, "User not found")
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, apperr.Wrap(err, "list users")
	}
	return users, nil
}

// Names resolves user IDs to display names; unknown IDs are absent from the map.
func (s *UserService) Names(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Wrap(err, "resolve user names")
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// Update changes profile fields, the password and, when allowRole is set, the role.
func (s *UserService) Update(ctx context.Context, id uint, in UserInput, allowRole bool) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = pick(user.Name, in.Name)
	if email := normalizeEmail(deref(in.Email)); email != "" && email != user.Email {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
			return nil, apperr.Wrap(err, "query user by email")
		}
		if count > 0 {
			return nil, apperr.Validation("Email already in use")
		}
		user.Email = email
	}
	if pw := deref(in.Password); pw != "" {
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if allowRole && in.Role != nil && *in.Role != "" {
		if !in.Role.Valid() {
			return nil, apperr.Validation("Invalid role %q", *in.Role)
		}
		user.Role = *in.Role
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, apperr.Wrap(err, "update user")
	}
	return user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id uint, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Invalid role %q", role)
	}
	return s.Update(ctx, id, UserInput{Role: &role}, true)
}

// Delete is permanent so the email can be registered again.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&model.User{}, id)
	if res.Error != nil {
		return apperr.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
