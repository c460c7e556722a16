package service

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserService manages accounts. Passwords are stored as bcrypt hashes only.
type UserService struct {
	DB       *gorm.DB
	UserRepo *repository.UserRepository
}

func NewUserService(db *gorm.DB, userRepo *repository.UserRepository) *UserService {
	return &UserService{
		DB:       db,
		UserRepo: userRepo,
	}
}

type CreateUserInput struct {
	Username  string   `json:"username" binding:"required,min=3,max=100"`
	Email     *string  `json:"email" binding:"omitempty,email,max=255"`
	Password  string   `json:"password" binding:"required,min=6,max=72"`
	Roles     []string `json:"roles"`
	FirstName *string  `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string  `json:"lastName" binding:"omitempty,max=100"`
}

type UpdateUserInput struct {
	Username  *string   `json:"username" binding:"omitempty,min=3,max=100"`
	Email     *string   `json:"email" binding:"omitempty,email,max=255"`
	Password  *string   `json:"password" binding:"omitempty,min=6,max=72"`
	Roles     *[]string `json:"roles"`
	FirstName *string   `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string   `json:"lastName" binding:"omitempty,max=100"`
}

// validateRoles requires at least one known role. Duplicates are dropped.
func validateRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, util.NewValidationError("a user needs at least one role")
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if !model.Role(r).Valid() {
			return nil, util.NewValidationError("unknown role %q", r)
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Create registers a user. Without roles the user becomes a student.
func (s *UserService) Create(ctx context.Context, p util.Payload) (*model.User, error) {
	var in CreateUserInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	if !p.Has("roles") {
		in.Roles = []string{string(model.RoleStudent)}
	}
	roles, err := validateRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		Roles:     roles,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, duplicate(err, "username or email is already taken")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user %s not found", id)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	return s.UserRepo.List(ctx, f)
}

func (s *UserService) Update(ctx context.Context, id string, p util.Payload) (*model.User, error) {
	var in UpdateUserInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}

	pt := newPatch(p)
	setRequired(pt, "username", "username", in.Username)
	setNullable(pt, "email", "email", in.Email)
	setNullable(pt, "firstName", "first_name", in.FirstName)
	setNullable(pt, "lastName", "last_name", in.LastName)
	if pt.err != nil {
		return nil, pt.err
	}
	if p.Has("password") {
		if in.Password == nil {
			return nil, util.NewValidationError("password must not be null")
		}
		hashed, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		pt.fields["password"] = hashed
	}
	if p.Has("roles") {
		if in.Roles == nil {
			return nil, util.NewValidationError("roles must not be null")
		}
		roles, err := validateRoles(*in.Roles)
		if err != nil {
			return nil, err
		}
		pt.fields["roles"] = datatypes.JSONSlice[string](roles)
	}

	if len(pt.fields) == 0 {
		return s.Get(ctx, id)
	}
	if err := s.UserRepo.UpdateFields(ctx, id, pt.fields); err != nil {
		err = notFound(err, "user %s not found", id)
		return nil, duplicate(err, "username or email is already taken")
	}
	return s.Get(ctx, id)
}

// Delete removes a user with their enrollments, progress and quiz attempts.
// Courses they taught are kept without a teacher.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEnrollmentRepository(tx).DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repository.NewProgressRepository(tx).DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repository.NewQuizAttemptRepository(tx).DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repository.NewCourseRepository(tx).ClearTeacher(ctx, id); err != nil {
			return err
		}
		if err := s.UserRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFound(err, "user %s not found", id)
		}
		return nil
	})
}
