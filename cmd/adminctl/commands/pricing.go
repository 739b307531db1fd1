package commands

import (
	"github.com/spf13/cobra"

	"sos-expat/backend/internal/domain/pricing"
)

func migratePricingCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate-pricing",
		Short: "Convert a legacy flat pricing document to the nested shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := pricing.LoadDefaults(cfg.PricingDefaultsFile)
			if err != nil {
				return err
			}
			res, err := pricing.NewService(clients.Firestore, defaults).Migrate(cmd.Context(), operatorUID, dryRun)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the migrated document without writing it")
	return cmd
}
