package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/repositories"
)

// ErrUserInvalidInput indicates the caller supplied invalid input.
var ErrUserInvalidInput = errors.New("user service: invalid input")

// ErrUserNotFound indicates the profile or address does not exist.
var ErrUserNotFound = errors.New("user service: not found")

// ErrUserConflict indicates a concurrent modification clashed.
var ErrUserConflict = errors.New("user service: conflict")

// ErrUserUnavailable indicates the backing store cannot fulfil the request.
var ErrUserUnavailable = errors.New("user service: unavailable")

// UserServiceDeps wires the profile repository and cache.
type UserServiceDeps struct {
	Users       repositories.UserRepository
	Cache       cache.Cache
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type userService struct {
	users  repositories.UserRepository
	cache  cache.Cache
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewUserService constructs a UserService enforcing dependency validation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("user service: clock is required")
	}

	store := deps.Cache
	if store == nil {
		store = cache.NewNoopCache()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &userService{
		users:  deps.Users,
		cache:  store,
		now:    func() time.Time { return deps.Clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// ResolveIdentity maps a verified token onto a profile document, creating it
// on first sight. Two requests racing on first sight are tolerated: the
// loser of the insert re-reads the winner's document.
func (s *userService) ResolveIdentity(ctx context.Context, cmd ResolveIdentityCommand) (domain.User, error) {
	uid := strings.TrimSpace(cmd.UID)
	if uid == "" {
		return domain.User{}, fmt.Errorf("%w: uid is required", ErrUserInvalidInput)
	}

	key := cache.UserKey(uid)
	var cached domain.User
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "user.cache_read_failed", map[string]any{"uid": uid, "error": err.Error()})
	}

	user, err := s.users.FindByUID(ctx, uid)
	switch {
	case err == nil:
		user, err = s.refreshProfile(ctx, user, cmd)
		if err != nil {
			return domain.User{}, err
		}
	case isRepoNotFound(err):
		now := s.now()
		user = domain.User{
			UID:       uid,
			Email:     strings.TrimSpace(cmd.Email),
			Name:      strings.TrimSpace(cmd.Name),
			Roles:     cmd.Roles,
			Addresses: []domain.Address{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if insertErr := s.users.Insert(ctx, user); insertErr != nil {
			if !isRepoConflict(insertErr) {
				return domain.User{}, s.translate(insertErr)
			}
			user, err = s.users.FindByUID(ctx, uid)
			if err != nil {
				return domain.User{}, s.translate(err)
			}
		}
	default:
		return domain.User{}, s.translate(err)
	}

	s.cacheProfile(ctx, user)
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, uid string) (domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.User{}, fmt.Errorf("%w: uid is required", ErrUserInvalidInput)
	}

	key := cache.UserKey(uid)
	var cached domain.User
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "user.cache_read_failed", map[string]any{"uid": uid, "error": err.Error()})
	}

	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		return domain.User{}, s.translate(err)
	}

	s.cacheProfile(ctx, user)
	return user, nil
}

func (s *userService) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, s.translate(err)
	}
	return count, nil
}

func (s *userService) AddAddress(ctx context.Context, uid string, input AddressInput) (domain.User, error) {
	user, err := s.loadProfile(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	address, err := buildAddress(input)
	if err != nil {
		return domain.User{}, err
	}
	address.ID = s.newID()

	// The first address becomes the default automatically.
	if len(user.Addresses) == 0 {
		address.IsDefault = true
	}
	if address.IsDefault {
		for i := range user.Addresses {
			user.Addresses[i].IsDefault = false
		}
	}
	user.Addresses = append(user.Addresses, address)

	return s.saveProfile(ctx, user)
}

func (s *userService) UpdateAddress(ctx context.Context, uid string, input AddressInput) (domain.User, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return domain.User{}, fmt.Errorf("%w: address id is required", ErrUserInvalidInput)
	}

	user, err := s.loadProfile(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	address, err := buildAddress(input)
	if err != nil {
		return domain.User{}, err
	}
	address.ID = id

	idx := -1
	for i, existing := range user.Addresses {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.User{}, fmt.Errorf("%w: address %s", ErrUserNotFound, id)
	}

	if address.IsDefault {
		for i := range user.Addresses {
			user.Addresses[i].IsDefault = false
		}
	} else if user.Addresses[idx].IsDefault {
		// Unsetting the default keeps it; a default always exists.
		address.IsDefault = true
	}
	user.Addresses[idx] = address

	return s.saveProfile(ctx, user)
}

func (s *userService) DeleteAddress(ctx context.Context, uid, addressID string) (domain.User, error) {
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.User{}, fmt.Errorf("%w: address id is required", ErrUserInvalidInput)
	}

	user, err := s.loadProfile(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}

	kept := make([]domain.Address, 0, len(user.Addresses))
	removedDefault := false
	found := false
	for _, address := range user.Addresses {
		if address.ID == id {
			found = true
			removedDefault = address.IsDefault
			continue
		}
		kept = append(kept, address)
	}
	if !found {
		return domain.User{}, fmt.Errorf("%w: address %s", ErrUserNotFound, id)
	}
	if removedDefault && len(kept) > 0 {
		kept[0].IsDefault = true
	}
	user.Addresses = kept

	return s.saveProfile(ctx, user)
}

func (s *userService) loadProfile(ctx context.Context, uid string) (domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.User{}, fmt.Errorf("%w: uid is required", ErrUserInvalidInput)
	}
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		return domain.User{}, s.translate(err)
	}
	return user, nil
}

func (s *userService) saveProfile(ctx context.Context, user domain.User) (domain.User, error) {
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, s.translate(err)
	}
	s.cacheProfile(ctx, user)
	return user, nil
}

// refreshProfile keeps the stored profile in step with the token claims.
func (s *userService) refreshProfile(ctx context.Context, user domain.User, cmd ResolveIdentityCommand) (domain.User, error) {
	email := strings.TrimSpace(cmd.Email)
	name := strings.TrimSpace(cmd.Name)

	changed := false
	if email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if name != "" && name != user.Name {
		user.Name = name
		changed = true
	}
	if len(cmd.Roles) > 0 && !equalRoles(cmd.Roles, user.Roles) {
		user.Roles = cmd.Roles
		changed = true
	}
	if !changed {
		return user, nil
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, s.translate(err)
	}
	return user, nil
}

func (s *userService) cacheProfile(ctx context.Context, user domain.User) {
	if err := s.cache.SetJSON(ctx, cache.UserKey(user.UID), user, cache.IdentityTTL); err != nil {
		s.logger(ctx, "user.cache_write_failed", map[string]any{"uid": user.UID, "error": err.Error()})
	}
}

func (s *userService) translate(err error) error {
	return translateRepoError(err, ErrUserNotFound, ErrUserConflict, ErrUserUnavailable)
}

func buildAddress(input AddressInput) (domain.Address, error) {
	address := domain.Address{
		FullName:   strings.TrimSpace(input.FullName),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      strings.TrimSpace(input.Phone),
		IsDefault:  input.IsDefault,
	}
	switch {
	case address.FullName == "":
		return domain.Address{}, fmt.Errorf("%w: address name is required", ErrUserInvalidInput)
	case address.Line1 == "":
		return domain.Address{}, fmt.Errorf("%w: address line is required", ErrUserInvalidInput)
	case address.City == "":
		return domain.Address{}, fmt.Errorf("%w: address city is required", ErrUserInvalidInput)
	case address.State == "":
		return domain.Address{}, fmt.Errorf("%w: address state is required", ErrUserInvalidInput)
	case address.PostalCode == "":
		return domain.Address{}, fmt.Errorf("%w: address postal code is required", ErrUserInvalidInput)
	}
	return address, nil
}

func equalRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
