package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetRoleValidatesFlagsBeforeConnecting(t *testing.T) {
	cmd := setRoleCmd()
	cmd.SetArgs([]string{"--role", "admin"})
	require.ErrorContains(t, cmd.Execute(), "--uid is required")

	cmd = setRoleCmd()
	cmd.SetArgs([]string{"--uid", "u1", "--role", "superuser"})
	require.ErrorContains(t, cmd.Execute(), "--role must be one of")
}

func TestBackupCommandTree(t *testing.T) {
	cmd := backupCmd()
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"create", "list"}, names)

	create, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)
	require.NotNil(t, create.Flags().Lookup("collections"))
}

func TestMigratePricingDryRunFlag(t *testing.T) {
	cmd := migratePricingCmd()
	f := cmd.Flags().Lookup("dry-run")
	require.NotNil(t, f)
	require.Equal(t, "false", f.DefValue)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	require.Equal(t, "adminctl", root.Use)
	require.True(t, root.SilenceUsage)
	require.NotNil(t, root.PersistentPreRunE)

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"set-role", "migrate-pricing", "backup"}, names)
}
