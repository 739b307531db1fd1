package commands

import (
	"github.com/spf13/cobra"

	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/firebase"
)

func backupService() *backups.Service {
	signer := firebase.NewURLSigner(clients.IAM, cfg.SignedURLServiceAccountEmail)
	return backups.NewService(clients.Firestore, clients.Storage, cfg.BackupBucket, signer)
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage Firestore backups",
	}
	cmd.AddCommand(backupCreateCmd(), backupListCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	var collections []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Export collections to the backup bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backupService().Create(cmd.Context(), operatorUID, backups.CreateInput{Collections: collections})
			if err != nil {
				return err
			}
			return printJSON(b)
		},
	}
	cmd.Flags().StringSliceVar(&collections, "collections", nil, "collections to export (default: all)")
	return cmd
}

func backupListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := backupService().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of backups to show")
	return cmd
}
