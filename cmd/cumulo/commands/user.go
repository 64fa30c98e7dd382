package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cumulo-cloud/cumulo/internal/bytesize"
	"github.com/cumulo-cloud/cumulo/internal/cli/output"
	"github.com/cumulo-cloud/cumulo/internal/cli/prompt"
)

var (
	userAddDisplayName string
	userAddQuota       string
	userAddAdmin       bool
	userDeleteForce    bool
	userQuotaValue     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users (add, list, show, delete, passwd, quota)",
	Long: `Manage user accounts directly on the storage tree.

These commands operate offline on the configured storage path and do
not require a running server.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add a new user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

var userShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Show a user's details and storage usage",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <email>",
	Aliases: []string{"remove"},
	Short:   "Delete a user and all of their files",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserDelete,
}

var userPasswdCmd = &cobra.Command{
	Use:     "passwd <email>",
	Aliases: []string{"password"},
	Short:   "Reset a user's password",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserPasswd,
}

var userQuotaCmd = &cobra.Command{
	Use:   "quota <email>",
	Short: "Change a user's storage quota",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserQuota,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddDisplayName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userAddQuota, "quota", "", "Storage quota, e.g. 10Gi (default: server default)")
	userAddCmd.Flags().BoolVar(&userAddAdmin, "admin", false, "Grant administrator rights")

	userDeleteCmd.Flags().BoolVar(&userDeleteForce, "force", false, "Skip confirmation prompt")

	userQuotaCmd.Flags().StringVar(&userQuotaValue, "set", "", "New quota, e.g. 10Gi (0 for unlimited)")
	_ = userQuotaCmd.MarkFlagRequired("set")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userQuotaCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	var quota int64
	if userAddQuota != "" {
		size, err := bytesize.Parse(userAddQuota)
		if err != nil {
			return fmt.Errorf("invalid quota %q: %w", userAddQuota, err)
		}
		quota = int64(size)
	}

	password, err := prompt.NewPassword()
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return errors.New("aborted")
		}
		return err
	}

	user, err := svc.CreateUser(args[0], userAddDisplayName, password, quota, userAddAdmin)
	if err != nil {
		return err
	}

	fmt.Printf("User %s created (id: %s)\n", user.Email, user.ID)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	users, err := svc.ListUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	table := output.NewTableData("EMAIL", "NAME", "ADMIN", "QUOTA", "CREATED")
	for _, user := range users {
		table.AddRow(
			user.Email,
			user.DisplayName,
			boolMark(user.Admin),
			formatQuota(user.QuotaBytes),
			user.CreatedAt.Format("2006-01-02"),
		)
	}
	return output.PrintTable(os.Stdout, table)
}

func runUserShow(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	user, err := svc.FindByEmail(args[0])
	if err != nil {
		return err
	}

	usage, err := svc.GetUsage(user.ID)
	if err != nil {
		return err
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ID", user.ID},
		{"Email", user.Email},
		{"Name", user.DisplayName},
		{"Admin", boolMark(user.Admin)},
		{"Quota", formatQuota(usage.QuotaBytes)},
		{"Used", bytesize.Size(usage.UsedBytes).String()},
		{"In trash", bytesize.Size(usage.TrashBytes).String()},
		{"Shares", fmt.Sprintf("%d", len(user.Shares))},
		{"Created", user.CreatedAt.Format("2006-01-02 15:04:05")},
	})
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	user, err := svc.FindByEmail(args[0])
	if err != nil {
		return err
	}

	ok, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Delete user %s and all of their files?", user.Email), userDeleteForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := svc.DeleteUser(user.ID); err != nil {
		return err
	}
	fmt.Printf("User %s deleted\n", user.Email)
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	user, err := svc.FindByEmail(args[0])
	if err != nil {
		return err
	}

	password, err := prompt.NewPassword()
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return errors.New("aborted")
		}
		return err
	}

	if err := svc.ResetPassword(user.ID, password); err != nil {
		return err
	}
	fmt.Printf("Password updated for %s\n", user.Email)
	return nil
}

func runUserQuota(cmd *cobra.Command, args []string) error {
	svc, _, err := openDrive()
	if err != nil {
		return err
	}

	user, err := svc.FindByEmail(args[0])
	if err != nil {
		return err
	}

	size, err := bytesize.Parse(userQuotaValue)
	if err != nil {
		return fmt.Errorf("invalid quota %q: %w", userQuotaValue, err)
	}

	if err := svc.UpdateQuota(user.ID, int64(size)); err != nil {
		return err
	}
	fmt.Printf("Quota for %s set to %s\n", user.Email, formatQuota(int64(size)))
	return nil
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatQuota(quota int64) string {
	if quota <= 0 {
		return "unlimited"
	}
	return bytesize.Size(quota).String()
}
