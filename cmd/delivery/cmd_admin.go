package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
)

var (
	storeInput services.NewStoreInput
	storeHost  string
	adminInput services.Credentials
)

// delivery store:create --name "Pizza Roma" --slug pizza-roma --email owner@roma.test --password ...
var storeCreateCmd = &cobra.Command{
	Use:   "store:create",
	Short: "Provision a store with its admin user and default stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		if storeHost != "" {
			storeInput.CustomDomain = &storeHost
		}
		platform := services.NewPlatformService(
			repositories.NewStoreRepository(db),
			repositories.NewUserRepository(db),
			repositories.NewOrderRepository(db),
		)
		store, err := platform.CreateStore(cmd.Context(), storeInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created store %s (%s)\n", store.Slug, store.ID)
		return nil
	},
}

// delivery superadmin:create --name Root --email root@platform.test --password ...
var superAdminCreateCmd = &cobra.Command{
	Use:   "superadmin:create",
	Short: "Create a platform superadmin",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		svc := services.NewAuthService(repositories.NewUserRepository(db), nil)
		admin, err := svc.CreateSuperAdmin(cmd.Context(), adminInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created superadmin %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}

func init() {
	f := storeCreateCmd.Flags()
	f.StringVar(&storeInput.Name, "name", "", "store name")
	f.StringVar(&storeInput.Slug, "slug", "", "store slug")
	f.StringVar(&storeHost, "domain", "", "custom domain")
	f.StringVar(&storeInput.Email, "email", "", "admin email")
	f.StringVar(&storeInput.Password, "password", "", "admin password")
	for _, name := range []string{"name", "slug", "email", "password"} {
		storeCreateCmd.MarkFlagRequired(name) //nolint:errcheck
	}

	f = superAdminCreateCmd.Flags()
	f.StringVar(&adminInput.Name, "name", "Platform Admin", "display name")
	f.StringVar(&adminInput.Email, "email", "", "login email")
	f.StringVar(&adminInput.Password, "password", "", "login password")
	superAdminCreateCmd.MarkFlagRequired("email")    //nolint:errcheck
	superAdminCreateCmd.MarkFlagRequired("password") //nolint:errcheck
}
