package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/config"
	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// defaultPermissions is the baseline catalog created at first startup.
// defaultPermissions — базовый каталог, создаваемый при первом запуске.
var defaultPermissions = []struct {
	name        string
	description string
}{
	{"users:read", "view user accounts"},
	{"users:write", "create and update user accounts"},
	{"users:*", "full control over user accounts"},
	{"roles:read", "view roles and their permissions"},
	{"roles:write", "create and modify roles"},
	{"roles:*", "full control over roles"},
	{"permissions:read", "view the permission catalog"},
	{"permissions:*", "full control over the permission catalog"},
	{"audit:read", "view audit trail entries"},
}

// Seeder provisions the protected system role, the default member role, the
// baseline permission catalog and the initial administrator account.
// Idempotent: every step checks for existing rows first.
// Seeder создаёт защищённую системную роль, роль member по умолчанию,
// базовый каталог разрешений и первоначальную учётную запись администратора.
// Идемпотентен: каждый шаг сначала проверяет существующие записи.
type Seeder struct {
	userRepo  port.UserRepository
	roleRepo  port.RoleRepository
	permRepo  port.PermissionRepository
	txManager port.Transaction
	cfg       config.SeedConfig
	logger    *logger.Logger
}

// NewSeeder creates a new Seeder instance.
// NewSeeder создаёт новый экземпляр Seeder.
func NewSeeder(
	userRepo port.UserRepository,
	roleRepo port.RoleRepository,
	permRepo port.PermissionRepository,
	txManager port.Transaction,
	cfg config.SeedConfig,
	log *logger.Logger,
) *Seeder {
	return &Seeder{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		txManager: txManager,
		cfg:       cfg,
		logger:    log.WithComponent("seeder"),
	}
}

// Seed runs all seeding steps.
// Seed выполняет все шаги начального заполнения.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedPermissions(ctx); err != nil {
		return err
	}
	if err := s.seedRoles(ctx); err != nil {
		return err
	}
	return s.seedAdminUser(ctx)
}

// seedPermissions fills the baseline permission catalog.
// seedPermissions заполняет базовый каталог разрешений.
func (s *Seeder) seedPermissions(ctx context.Context) error {
	for _, def := range defaultPermissions {
		if _, err := s.permRepo.FindByName(ctx, def.name); err == nil {
			continue
		} else if !isNotFound(err) {
			return err
		}

		perm, err := domain.NewPermission(def.name, def.description)
		if err != nil {
			return apperror.Internal("invalid seed permission", err)
		}
		if err := s.permRepo.Create(ctx, perm); err != nil {
			return err
		}
		s.logger.Info("seeded permission", "permission", def.name)
	}
	return nil
}

// seedRoles creates the protected admin role and the default member role.
// The admin role is constructed directly with IsSystem set: the generic
// factory intentionally refuses to create it.
// seedRoles создаёт защищённую роль admin и роль member по умолчанию.
// Роль admin конструируется напрямую с установленным IsSystem: общая
// фабрика намеренно отказывается её создавать.
func (s *Seeder) seedRoles(ctx context.Context) error {
	if _, err := s.roleRepo.FindByName(ctx, domain.SystemRoleAdmin); err != nil {
		if !isNotFound(err) {
			return err
		}

		wildcards := make([]domain.Permission, 0, 4)
		for _, name := range []string{"users:*", "roles:*", "permissions:*", "audit:read"} {
			perm, err := s.permRepo.FindByName(ctx, name)
			if err != nil {
				return err
			}
			wildcards = append(wildcards, *perm)
		}

		admin := &domain.Role{
			ID:          uuid.New(),
			Name:        domain.SystemRoleAdmin,
			Description: "full administrative access",
			IsSystem:    true,
			Permissions: wildcards,
		}
		if err := s.roleRepo.Create(ctx, admin); err != nil {
			return err
		}
		s.logger.Info("seeded system role", "role", domain.SystemRoleAdmin)
	}

	if _, err := s.roleRepo.FindByName(ctx, domain.DefaultRoleMember); err != nil {
		if !isNotFound(err) {
			return err
		}

		member, err := domain.NewRole(domain.DefaultRoleMember, "default role for registered users")
		if err != nil {
			return apperror.Internal("invalid seed role", err)
		}
		if perm, err := s.permRepo.FindByName(ctx, "users:read"); err == nil {
			_ = member.AddPermission(*perm)
		}
		if err := s.roleRepo.Create(ctx, member); err != nil {
			return err
		}
		s.logger.Info("seeded default role", "role", domain.DefaultRoleMember)
	}

	return nil
}

// seedAdminUser creates the initial administrator account.
// seedAdminUser создаёт первоначальную учётную запись администратора.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	exists, err := s.userRepo.ExistsByEmail(ctx, s.cfg.AdminEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	adminRole, err := s.roleRepo.FindByName(ctx, domain.SystemRoleAdmin)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internal("failed to hash seed admin password", err)
	}

	admin := domain.NewUser(s.cfg.AdminEmail, string(hash), s.cfg.AdminFullName, *adminRole)
	admin.PullEvents() // Seeding is not an auditable user action. / Заполнение — не аудируемое действие пользователя.

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.userRepo.CreateTx(ctx, tx, admin)
	})
	if err != nil {
		return err
	}

	s.logger.Info("seeded admin user", "email", s.cfg.AdminEmail)
	return nil
}
