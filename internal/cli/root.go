// Package cli implements the pantry command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
	userID    int64
}

// NewRootCmd creates the top-level "pantry" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pantry",
		Short: "A local grocery-list manager",
		Long: "Pantry keeps shopping lists, reusable templates and purchase history\n" +
			"for several household members in a single local database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pantry)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/pantry)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Int64Var(&a.flags.userID, "user", 0, "act as this user instead of the active one")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newUserCmd(a),
		newListCmd(a),
		newItemCmd(a),
		newFinishCmd(a),
		newTemplateCmd(a),
		newHistoryCmd(a),
		newReceiptCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "pantry:", err)
	os.Exit(ExitCode(err))
}

// usageError marks a mistake in how the command was invoked.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error to the process exit code: 1 for mistakes the user
// can fix, 2 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidName,
		types.ErrDuplicateName,
		types.ErrNotOwner,
		types.ErrListCompleted,
		types.ErrTemplatePurchase,
		types.ErrCorruptSnapshot,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrStoreDriverUnknown,
		types.ErrFinalizePolicyUnknown,
		types.ErrStoreConfigIncomplete,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
