package user

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

const dateLayout = "2006-01-02"

// Querier is the subset of dbgen used for profiles and user management.
type Querier interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	UpdateUserProfile(ctx context.Context, arg dbgen.UpdateUserProfileParams) (dbgen.User, error)
	UpdateUserRoles(ctx context.Context, arg dbgen.UpdateUserRolesParams) (dbgen.User, error)
	ListUsers(ctx context.Context, arg dbgen.ListUsersParams) ([]dbgen.User, error)
	CountUsers(ctx context.Context, tenantID pgtype.UUID) (int64, error)
}

// Profile is the account as the owner sees it.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	Birthday     *string   `json:"birthday,omitempty"`
	Roles        []string  `json:"roles"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileInput is a partial update. Nil fields are left alone; an empty
// phone or birthday clears it.
type ProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Birthday *string `json:"birthday" validate:"omitempty,max=10"`
}

// RolesInput replaces a user's roles.
type RolesInput struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=customer staff admin"`
}

// Service manages the caller's profile and, for admins, tenant accounts.
type Service struct {
	Q   Querier
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) current(ctx context.Context) (dbgen.User, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.User{}, err
	}
	raw, ok := common.UserID(ctx)
	if !ok {
		return dbgen.User{}, common.Unauthorized()
	}
	id, err := common.ParseUUID("user_id", raw)
	if err != nil {
		return dbgen.User{}, common.Unauthorized()
	}
	u, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.User{}, common.Unauthorized()
		}
		return dbgen.User{}, err
	}
	if u.TenantID != tid {
		return dbgen.User{}, common.Unauthorized()
	}
	return u, nil
}

// Get returns the caller's profile.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	u, err := s.current(ctx)
	if err != nil {
		return Profile{}, err
	}
	return convertUser(u), nil
}

// Update applies a partial profile change for the caller.
func (s *Service) Update(ctx context.Context, in ProfileInput) (Profile, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Profile{}, err
	}
	u, err := s.current(ctx)
	if err != nil {
		return Profile{}, err
	}
	params := dbgen.UpdateUserProfileParams{
		TenantID: u.TenantID,
		ID:       u.ID,
		Name:     u.Name,
		Phone:    u.Phone,
		Birthday: u.Birthday,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Profile{}, common.BadRequest("name", "name must not be empty", nil)
		}
		params.Name = name
	}
	if in.Phone != nil {
		params.Phone = common.Text(*in.Phone)
	}
	if in.Birthday != nil {
		params.Birthday, err = s.parseBirthday(*in.Birthday)
		if err != nil {
			return Profile{}, err
		}
	}
	updated, err := s.Q.UpdateUserProfile(ctx, params)
	if err != nil {
		return Profile{}, common.DBError(err, "user not found")
	}
	return convertUser(updated), nil
}

func (s *Service) parseBirthday(raw string) (pgtype.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pgtype.Date{}, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return pgtype.Date{}, common.BadRequest("birthday", "birthday must be YYYY-MM-DD", err)
	}
	if day.After(s.now()) {
		return pgtype.Date{}, common.BadRequest("birthday", "birthday must be in the past", nil)
	}
	return pgtype.Date{Time: day, Valid: true}, nil
}

// List pages through the tenant's accounts, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Profile, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListUsers(ctx, dbgen.ListUsersParams{
		TenantID: tid,
		Limit:    int32(perPage),
		Offset:   common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountUsers(ctx, tid)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertUser(row))
	}
	return out, total, nil
}

// SetRoles replaces the roles of a tenant account. Admins cannot drop their
// own admin role, so a tenant always keeps the caller as an admin.
func (s *Service) SetRoles(ctx context.Context, userID string, in RolesInput) (Profile, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Profile{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return Profile{}, err
	}
	id, err := common.ParseUUID("id", userID)
	if err != nil {
		return Profile{}, err
	}
	roles := slices.Clone(in.Roles)
	slices.Sort(roles)
	roles = slices.Compact(roles)
	if caller, ok := common.UserID(ctx); ok && caller == common.UUIDString(id) && !slices.Contains(roles, common.RoleAdmin) {
		return Profile{}, common.NewAppError("SELF_DEMOTION", "admins cannot remove their own admin role", http.StatusConflict, common.ErrConflict)
	}
	updated, err := s.Q.UpdateUserRoles(ctx, dbgen.UpdateUserRolesParams{TenantID: tid, ID: id, Roles: roles})
	if err != nil {
		return Profile{}, common.DBError(err, "user not found")
	}
	return convertUser(updated), nil
}

func convertUser(u dbgen.User) Profile {
	p := Profile{
		ID:           common.UUIDString(u.ID),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        common.StringPtr(u.Phone),
		Roles:        u.Roles,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt.Time,
		UpdatedAt:    u.UpdatedAt.Time,
	}
	if u.Birthday.Valid {
		day := u.Birthday.Time.Format(dateLayout)
		p.Birthday = &day
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	return p
}
