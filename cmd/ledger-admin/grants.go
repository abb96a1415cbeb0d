package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/services"
	"report-ledger-api/utils"

	"github.com/spf13/cobra"
)

var (
	grantRole       int
	grantModule     string
	grantPermission string

	targetUser   int
	targetRole   int
	targetPeriod string
)

// grantInput resolves --module, given either as a module id or a module key.
func grantInput(ctx context.Context, registry *services.ModuleRegistry) (services.GrantInput, error) {
	moduleID, err := strconv.Atoi(grantModule)
	if err != nil {
		module, err := registry.ByKey(ctx, grantModule)
		if err != nil {
			return services.GrantInput{}, err
		}
		moduleID = module.ModuleID
	}
	return services.GrantInput{
		ModuleID:       moduleID,
		PermissionType: models.PermissionType(grantPermission),
	}, nil
}

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Give a role read or write access to a module",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newAdmin()
		in, err := grantInput(cmd.Context(), svc.registry)
		if err != nil {
			return err
		}
		if err := svc.admin.Grant(cmd.Context(), grantRole, in); err != nil {
			return err
		}
		fmt.Printf("Granted %s on module %d to role %d\n", grantPermission, in.ModuleID, grantRole)
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Remove a role's read or write grant on a module",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newAdmin()
		in, err := grantInput(cmd.Context(), svc.registry)
		if err != nil {
			return err
		}
		if err := svc.admin.Revoke(cmd.Context(), grantRole, in); err != nil {
			return err
		}
		fmt.Printf("Revoked %s on module %d from role %d\n", grantPermission, in.ModuleID, grantRole)
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Move a user to another role",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAdmin().admin.SetUserRole(cmd.Context(), targetUser, targetRole); err != nil {
			return err
		}
		fmt.Printf("User %d now has role %d\n", targetUser, targetRole)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the modules a user still has to submit for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		period := targetPeriod
		if period == "" {
			period = utils.CurrentPeriod(time.Now())
		}

		modules, err := newAdmin().perms.ListPendingForWriter(cmd.Context(), targetUser, period)
		if err != nil {
			return err
		}

		fmt.Printf("%d pending for user %d in %s\n", len(modules), targetUser, period)
		for _, module := range modules {
			fmt.Printf("  %-6s %-10s %s\n", module.Key, module.Category, module.Name)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{grantCmd, revokeCmd} {
		cmd.Flags().IntVar(&grantRole, "role", 0, "Role id")
		cmd.Flags().StringVar(&grantModule, "module", "", "Module id or key (e.g. M201)")
		cmd.Flags().StringVar(&grantPermission, "permission", string(models.PermissionRead), "Permission type: read or write")
		_ = cmd.MarkFlagRequired("role")
		_ = cmd.MarkFlagRequired("module")
	}

	setRoleCmd.Flags().IntVar(&targetUser, "user", 0, "User id")
	setRoleCmd.Flags().IntVar(&targetRole, "role", 0, "Role id")
	_ = setRoleCmd.MarkFlagRequired("user")
	_ = setRoleCmd.MarkFlagRequired("role")

	pendingCmd.Flags().IntVar(&targetUser, "user", 0, "User id")
	pendingCmd.Flags().StringVar(&targetPeriod, "period", "", "Period in YYYY-MM form (default: current month)")
	_ = pendingCmd.MarkFlagRequired("user")
}
