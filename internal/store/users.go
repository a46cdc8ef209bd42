package store

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/format"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/service"
)

// StatusFilter narrows the user list by account state.
type StatusFilter string

const (
	StatusTodos     StatusFilter = "todos"
	StatusActivos   StatusFilter = "activos"
	StatusInactivos StatusFilter = "inactivos"
)

// AllRoles disables the role filter.
const AllRoles = "todos"

// UserAPI is the user service as used by the administration screen.
type UserAPI interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, in service.UserInput) (*domain.User, error)
	Update(ctx context.Context, id string, in service.UserInput) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// UserFilters is the local state of the user list.
type UserFilters struct {
	Search string       `json:"search"`
	Role   string       `json:"role"`
	Status StatusFilter `json:"status"`
}

// UserKPIs count accounts.
type UserKPIs struct {
	Total     int                 `json:"total"`
	Activos   int                 `json:"activos"`
	Inactivos int                 `json:"inactivos"`
	PorRol    map[domain.Role]int `json:"porRol"`
}

// UsersView is the filtered list with KPIs over the unfiltered one.
type UsersView struct {
	Items []domain.User `json:"items"`
	KPIs  UserKPIs      `json:"kpis"`
	Stale bool          `json:"stale"`
	Err   error         `json:"-"`
}

// UserDependencies wire a UserStore.
type UserDependencies struct {
	Users  UserAPI
	Cache  *querycache.Cache
	Logger *zap.Logger
}

// UserStore is the user administration list.
type UserStore struct {
	users  UserAPI
	cache  *querycache.Cache
	logger *zap.Logger

	mu      sync.Mutex
	filters UserFilters
	version uint64
	view    memo[derivationKey, UsersView]
}

// NewUserStore builds the store with no filters.
func NewUserStore(deps UserDependencies) *UserStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &UserStore{
		users:   deps.Users,
		cache:   deps.Cache,
		logger:  deps.Logger,
		filters: UserFilters{Role: AllRoles, Status: StatusTodos},
	}
}

// Filters returns the current filters.
func (s *UserStore) Filters() UserFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetFilters replaces the filters. Unknown values disable the filter.
func (s *UserStore) SetFilters(f UserFilters) {
	if f.Status != StatusActivos && f.Status != StatusInactivos {
		f.Status = StatusTodos
	}
	if !validRole(f.Role) {
		f.Role = AllRoles
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f != s.filters {
		s.filters = f
		s.version++
	}
}

func validRole(role string) bool {
	for _, r := range domain.Roles {
		if string(r) == role {
			return true
		}
	}
	return false
}

// Load returns the filtered user list.
func (s *UserStore) Load(ctx context.Context) UsersView {
	key := querycache.NewKey(KeyUsers, nil)
	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: CatalogStaleTime}, s.users.List)
	if res.Err != nil {
		s.logger.Warn("load users", zap.Error(res.Err))
	}
	users := res.Data

	s.mu.Lock()
	f := s.filters
	view := s.view.get(derivationKey{query: key.String(), fetch: res.Version, version: s.version}, func() UsersView {
		return UsersView{Items: filterUsers(users, f), KPIs: userKPIs(users)}
	})
	s.mu.Unlock()

	view.Stale, view.Err = res.Stale, res.Err
	return view
}

func filterUsers(users []domain.User, f UserFilters) []domain.User {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if f.Role != AllRoles && string(u.Rol) != f.Role {
			continue
		}
		if (f.Status == StatusActivos && !u.Activo) || (f.Status == StatusInactivos && u.Activo) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(u.Nombre), term) && !strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func userKPIs(users []domain.User) UserKPIs {
	kpis := UserKPIs{Total: len(users), PorRol: make(map[domain.Role]int, len(domain.Roles))}
	for _, r := range domain.Roles {
		kpis.PorRol[r] = 0
	}
	for _, u := range users {
		if u.Activo {
			kpis.Activos++
		} else {
			kpis.Inactivos++
		}
		kpis.PorRol[u.Rol]++
	}
	return kpis
}

func (s *UserStore) mutation(reason string) querycache.MutationOptions {
	return querycache.MutationOptions{Invalidates: []string{KeyUsers}, Reason: reason}
}

// AddUser creates an account. A blank email is generated from the name.
func (s *UserStore) AddUser(ctx context.Context, in service.UserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		in.Email = format.UserEmail(in.Nombre)
	}
	return querycache.Mutate(ctx, s.cache, s.mutation("create-user"), func(ctx context.Context) (*domain.User, error) {
		return s.users.Create(ctx, in)
	})
}

// UpdateUser edits an account.
func (s *UserStore) UpdateUser(ctx context.Context, id string, in service.UserInput) (*domain.User, error) {
	return querycache.Mutate(ctx, s.cache, s.mutation("update-user"), func(ctx context.Context) (*domain.User, error) {
		return s.users.Update(ctx, id, in)
	})
}

// ToggleStatus activates or deactivates an account.
func (s *UserStore) ToggleStatus(ctx context.Context, id string, active bool) error {
	_, err := querycache.Mutate(ctx, s.cache, s.mutation("toggle-user"), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.users.SetActive(ctx, id, active)
	})
	return err
}

// Reset clears the filters.
func (s *UserStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = UserFilters{Role: AllRoles, Status: StatusTodos}
	s.version++
	s.view.reset()
}
