package cli

import (
	"fmt"

	"github.com/Picocrypt/zxcvbn-go"
	"github.com/spf13/cobra"

	"pecover/internal/orchestrator"
)

var (
	hidePassword string
	hideStdin    bool
	hideVerbose  bool
	hideQuiet    bool
)

var hideCmd = &cobra.Command{
	Use:   "hide <input-files...> -- <cover-files...>",
	Short: "Hide input files inside one or more PE cover executables",
	Long: `hide bundles the input files into a single archive, optionally
encrypts it with a passphrase, splits the result across the supplied cover
files (one chunk per cover, in the order given), and appends each chunk to
its cover.

The input files and cover files are separated by a literal "--". Flags go
before the "--"; every argument after it is taken as a cover file:

  pecover hide secret.txt -- a.exe
  pecover hide --password hunter2 a.txt b.txt -- cover1.exe cover2.exe cover3.exe`,
	Args:          cobra.MinimumNArgs(2),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runHide,
}

func init() {
	rootCmd.AddCommand(hideCmd)

	hideCmd.Flags().StringVarP(&hidePassword, "password", "p", "", "encrypt the payload with this passphrase")
	hideCmd.Flags().BoolVarP(&hideStdin, "password-stdin", "P", false, "read the passphrase from stdin instead of a flag")
	hideCmd.Flags().BoolVarP(&hideQuiet, "quiet", "q", false, "suppress progress messages")
	hideCmd.Flags().BoolVar(&hideVerbose, "verbose", false, "enable debug logging to stderr")
}

func runHide(cmd *cobra.Command, args []string) error {
	configureLogging(hideQuiet, hideVerbose)

	dash := cmd.ArgsLenAtDash()
	if dash <= 0 || dash >= len(args) {
		return fmt.Errorf("expected <input-files...> -- <cover-files...>; got %d argument(s) before \"--\"", max(dash, 0))
	}
	return runHideArgs(args[:dash], args[dash:])
}

// runHideArgs implements hide once the caller has already split the
// argument list into input paths and cover paths, so the pipeline logic can
// be exercised directly in tests without going through Cobra's "--" parsing.
func runHideArgs(inputs, covers []string) error {
	password := hidePassword
	if hideStdin {
		p, err := ReadPasswordFromStdin()
		if err != nil {
			return err
		}
		password = p
	} else if password == "" {
		p, err := ReadPasswordInteractive(true, true)
		if err != nil {
			return fmt.Errorf("password input: %w", err)
		}
		password = p
	}

	if password != "" {
		score := zxcvbn.PasswordStrength(password, nil).Score
		if score <= 1 {
			verbosef(hideQuiet, "warning: this passphrase is weak (strength %d/4)", score)
		}
	}

	verbosef(hideQuiet, "hiding %d file(s) across %d cover(s)", len(inputs), len(covers))

	err := orchestrator.Hide(orchestrator.HideRequest{
		InputPaths: inputs,
		CoverPaths: covers,
		Password:   password,
	})
	if err != nil {
		return err
	}

	verbosef(hideQuiet, "done")
	return nil
}
