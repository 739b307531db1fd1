// Package commands implements adminctl, the operator CLI for maintenance
// tasks that run outside the API: bootstrapping admin roles, migrating the
// pricing document, and taking Firestore backups.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sos-expat/backend/internal/config"
	"sos-expat/backend/internal/firebase"
)

const operatorUID = "adminctl"

var (
	cfg     config.Config
	clients *firebase.Clients
)

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "adminctl",
		Short:        "SOS-expat backend operator tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			c, err := firebase.NewClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			clients = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			clients.Close()
		},
	}

	root.AddCommand(setRoleCmd(), migratePricingCmd(), backupCmd())
	return root
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
