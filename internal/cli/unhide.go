package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pecover/internal/errs"
	"pecover/internal/orchestrator"
)

var (
	unhidePassword string
	unhideStdin    bool
	unhideOutput   string
	unhideVerbose  bool
	unhideQuiet    bool
)

var unhideCmd = &cobra.Command{
	Use:   "unhide <cover-files...>",
	Short: "Recover files previously hidden inside PE cover executables",
	Long: `unhide reads the trailer each cover file carries, validates that the
supplied covers form a complete, consistent set, reassembles the original
payload in part order, optionally decrypts it, and extracts the bundled
files into the output directory.

Cover files may be given in any order:

  pecover unhide a.exe
  pecover unhide cover2.exe cover1.exe cover3.exe --output ./recovered --password hunter2`,
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runUnhide,
}

func init() {
	rootCmd.AddCommand(unhideCmd)

	unhideCmd.Flags().StringVarP(&unhideOutput, "output", "o", ".", "directory to extract recovered files into")
	unhideCmd.Flags().StringVarP(&unhidePassword, "password", "p", "", "passphrase to decrypt the payload, if it was hidden with one")
	unhideCmd.Flags().BoolVarP(&unhideStdin, "password-stdin", "P", false, "read the passphrase from stdin instead of a flag")
	unhideCmd.Flags().BoolVarP(&unhideQuiet, "quiet", "q", false, "suppress progress messages")
	unhideCmd.Flags().BoolVar(&unhideVerbose, "verbose", false, "enable debug logging to stderr")
}

func runUnhide(cmd *cobra.Command, args []string) error {
	configureLogging(unhideQuiet, unhideVerbose)

	password := unhidePassword
	havePassword := password != ""
	if unhideStdin {
		p, err := ReadPasswordFromStdin()
		if err != nil {
			return err
		}
		password = p
		havePassword = true
	}

	verbosef(unhideQuiet, "reading %d cover file(s)", len(args))

	err := orchestrator.Unhide(orchestrator.UnhideRequest{
		CoverPaths: args,
		OutputDir:  unhideOutput,
		Password:   password,
	})

	if errors.Is(err, errs.ErrEncryptedPayloadNoPassword) && !havePassword {
		p, perr := ReadPasswordInteractive(false, false)
		if perr != nil {
			return fmt.Errorf("password input: %w", perr)
		}
		err = orchestrator.Unhide(orchestrator.UnhideRequest{
			CoverPaths: args,
			OutputDir:  unhideOutput,
			Password:   p,
		})
	}
	if err != nil {
		return err
	}

	verbosef(unhideQuiet, "recovered files written to %s", unhideOutput)
	return nil
}
