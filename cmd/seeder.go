package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-approval/internal/auth"
	directoryDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/directory"
	grantDatamodel "github.com/frahmantamala/access-approval/internal/core/datamodel/grant"
	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		initLogger(cfg)
		lg := logger.LoggerWrapper()

		db, reader, err := initDB(cfg.Database, lg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer reader.Close()

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		return db.WithContext(cmd.Context()).Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
				lg.Info("cleared existing data")
			}
			return seedSampleData(cmd.Context(), tx, hash, lg)
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password given to every seeded user")
}

// clearSeedData removes rows child-first so foreign keys hold.
func clearSeedData(tx *gorm.DB) error {
	for _, table := range []string{
		"checking_records",
		"applications",
		"access_grants",
		"service_roles",
		"services",
		"users",
		"workers",
		"positions",
		"departments",
	} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

type seedUser struct {
	login      string
	fullName   string
	department string
	position   string
}

func seedSampleData(ctx context.Context, tx *gorm.DB, passwordHash string, lg *slog.Logger) error {
	roles := map[string]*directoryDatamodel.Role{}
	for _, r := range []directoryDatamodel.Role{
		{Code: string(directory.RoleAdmin), Name: "Administrator"},
		{Code: string(directory.RoleOwner), Name: "Service owner"},
		{Code: string(directory.RoleUser), Name: "User"},
		{Code: "viewer", Name: "Read-only viewer"},
	} {
		role := r
		if err := tx.Where(directoryDatamodel.Role{Code: role.Code}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", r.Code, err)
		}
		roles[role.Code] = &role
	}

	departments := map[string]int64{}
	for _, name := range []string{"Engineering", "Finance"} {
		dept := directoryDatamodel.Department{Name: name}
		if err := tx.Where(dept).FirstOrCreate(&dept).Error; err != nil {
			return fmt.Errorf("failed to seed department %s: %w", name, err)
		}
		departments[name] = dept.ID
	}

	positions := map[string]int64{}
	for _, name := range []string{"Engineer", "Analyst", "Manager"} {
		pos := directoryDatamodel.Position{Name: name}
		if err := tx.Where(pos).FirstOrCreate(&pos).Error; err != nil {
			return fmt.Errorf("failed to seed position %s: %w", name, err)
		}
		positions[name] = pos.ID
	}

	users := map[string]int64{}
	for _, u := range []seedUser{
		{login: "admin", fullName: "Ada Admin", department: "Engineering", position: "Manager"},
		{login: "owner", fullName: "Olle Owner", department: "Engineering", position: "Manager"},
		{login: "alice", fullName: "Alice Analyst", department: "Finance", position: "Analyst"},
		{login: "bob", fullName: "Bob Builder", department: "Engineering", position: "Engineer"},
	} {
		var existing directoryDatamodel.User
		err := tx.Where("login = ?", u.login).Limit(1).Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to look up user %s: %w", u.login, err)
		}
		if existing.ID != 0 {
			users[u.login] = existing.ID
			continue
		}

		worker := directoryDatamodel.Worker{FullName: u.fullName, DepartmentID: departments[u.department], PositionID: positions[u.position]}
		if err := tx.Create(&worker).Error; err != nil {
			return fmt.Errorf("failed to seed worker for %s: %w", u.login, err)
		}
		user := directoryDatamodel.User{Login: u.login, PasswordHash: passwordHash, WorkerID: worker.ID, IsActive: true}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.login, err)
		}
		users[u.login] = user.ID
		lg.InfoContext(ctx, "seeded user", "login", u.login)
	}

	services := []struct {
		name  string
		owner string
		roles []string
	}{
		{name: "billing", owner: "owner", roles: []string{string(directory.RoleUser), string(directory.RoleAdmin), "viewer"}},
		{name: "crm", owner: "owner", roles: []string{string(directory.RoleUser), "viewer"}},
		{name: "wiki", owner: "alice", roles: []string{string(directory.RoleUser)}},
	}
	serviceIDs := map[string]int64{}
	for _, s := range services {
		svc := directoryDatamodel.Service{Name: s.name, OwnerUserID: users[s.owner]}
		if err := tx.Where(directoryDatamodel.Service{Name: s.name}).FirstOrCreate(&svc).Error; err != nil {
			return fmt.Errorf("failed to seed service %s: %w", s.name, err)
		}
		offered := make([]directoryDatamodel.Role, 0, len(s.roles))
		for _, code := range s.roles {
			offered = append(offered, *roles[code])
		}
		if err := tx.Model(&svc).Association("Roles").Replace(offered); err != nil {
			return fmt.Errorf("failed to seed roles of service %s: %w", s.name, err)
		}
		serviceIDs[s.name] = svc.ID
	}

	// the admin user administers every seeded service
	for name, id := range serviceIDs {
		g := grantDatamodel.AccessGrant{UserID: users["admin"], RoleID: roles[string(directory.RoleAdmin)].ID, ServiceID: id}
		if err := tx.Where(grantDatamodel.AccessGrant{UserID: g.UserID, RoleID: g.RoleID, ServiceID: id}).FirstOrCreate(&g).Error; err != nil {
			return fmt.Errorf("failed to seed admin grant on %s: %w", name, err)
		}
	}

	lg.InfoContext(ctx, "seed complete", "users", len(users), "services", len(serviceIDs))
	return nil
}
