package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	orgDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/frahmantamala/rogue-contacts/internal/user"
	userPostgres "github.com/frahmantamala/rogue-contacts/internal/user/postgres"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users, an organization, businesses and roles for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hasher := hashing.NewHasher(hashing.NewBCrypt(cfg.Security.BCryptCost), nil)
		hash, err := hasher.ComputeHash(ctx, seedPassword)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		users := userPostgres.NewUserRepository(db)
		ids := map[string]int64{}
		for _, name := range []string{"alice", "bob", "carol"} {
			id, err := seedUser(ctx, users, name, hash)
			if err != nil {
				log.Fatalf("failed to seed user %s: %v", name, err)
			}
			ids[name] = id
		}
		fmt.Printf("Seeded users alice, bob and carol with password %q\n", seedPassword)

		guildID, err := seedOrganization(db, "guild", ids["carol"])
		if err != nil {
			log.Fatalf("failed to seed organization: %v", err)
		}
		fmt.Println("Seeded organization guild owned by carol")

		acmeID, err := seedBusiness(db, ids["alice"], "acme")
		if err != nil {
			log.Fatalf("failed to seed business acme: %v", err)
		}
		viewersID, err := seedBusinessRole(db, acmeID, "Viewers", permission.BusinessView)
		if err != nil {
			log.Fatalf("failed to seed role Viewers: %v", err)
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&businessDatamodel.RoleAssignment{UserID: ids["bob"], RoleID: viewersID}).Error; err != nil {
			log.Fatalf("failed to assign bob to Viewers: %v", err)
		}
		fmt.Println("Seeded business alice/acme; bob can view it")

		if _, err := seedBusiness(db, guildID, "shop"); err != nil {
			log.Fatalf("failed to seed business shop: %v", err)
		}
		managersID, err := seedOrganizationRole(db, guildID, "Managers",
			permission.OrganizationView, permission.OrganizationManageRoles, permission.OrganizationManageBusinesses)
		if err != nil {
			log.Fatalf("failed to seed role Managers: %v", err)
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&orgDatamodel.RoleAssignment{UserID: ids["alice"], RoleID: managersID}).Error; err != nil {
			log.Fatalf("failed to assign alice to Managers: %v", err)
		}
		fmt.Println("Seeded business guild/shop; alice manages guild")
	},
}

func seedUser(ctx context.Context, repo user.Repository, username, hash string) (int64, error) {
	existing, err := repo.GetByUsername(ctx, username)
	if err == nil {
		fmt.Println("user already exists:", username)
		return existing.ID, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return 0, err
	}

	u := &user.User{
		Username:     username,
		DisplayName:  strings.ToUpper(username[:1]) + username[1:],
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	if err := repo.Create(ctx, u); err != nil {
		return 0, err
	}
	return u.ID, nil
}

func seedOrganization(db *gorm.DB, name string, ownerID int64) (int64, error) {
	var party userDatamodel.Party
	err := db.Where("name_key = ?", strings.ToLower(name)).First(&party).Error
	if err == nil {
		return party.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		party = userDatamodel.Party{Kind: userDatamodel.PartyKindOrganization, Name: name, NameKey: strings.ToLower(name)}
		if err := tx.Create(&party).Error; err != nil {
			return err
		}
		return tx.Create(&orgDatamodel.Organization{ID: party.ID, OwnerID: ownerID}).Error
	})
	return party.ID, err
}

func seedBusiness(db *gorm.DB, ownerID int64, name string) (int64, error) {
	b := businessDatamodel.Business{OwnerID: ownerID, Name: name}
	err := db.Where("owner_id = ? AND name = ?", ownerID, name).FirstOrCreate(&b).Error
	return b.ID, err
}

func seedBusinessRole(db *gorm.DB, businessID int64, name string, perms ...permission.ID) (int64, error) {
	r := businessDatamodel.Role{BusinessID: businessID, Name: name}
	if err := db.Omit("Permissions").Where("business_id = ? AND name = ?", businessID, name).FirstOrCreate(&r).Error; err != nil {
		return 0, err
	}
	for _, p := range perms {
		row := businessDatamodel.RolePermission{RoleID: r.ID, PermissionID: int(p)}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return 0, err
		}
	}
	return r.ID, nil
}

func seedOrganizationRole(db *gorm.DB, organizationID int64, name string, perms ...permission.ID) (int64, error) {
	r := orgDatamodel.Role{OrganizationID: organizationID, Name: name}
	if err := db.Where("organization_id = ? AND name = ?", organizationID, name).FirstOrCreate(&r).Error; err != nil {
		return 0, err
	}
	for _, p := range perms {
		row := orgDatamodel.RolePermission{RoleID: r.ID, PermissionID: int(p)}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return 0, err
		}
	}
	return r.ID, nil
}

// clearSeedData removes every row; the parties cascade takes users,
// organizations and businesses with it.
func clearSeedData(db *gorm.DB) error {
	return db.Exec("TRUNCATE parties RESTART IDENTITY CASCADE").Error
}
