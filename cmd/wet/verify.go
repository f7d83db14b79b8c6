package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wetools/wet/internal/source"
	"github.com/wetools/wet/internal/verify"
)

func verifyCmd() *cobra.Command {
	var originalZip, sourcesZip string

	cmd := &cobra.Command{
		Use:   "verify <original-folder> <output-root|sources-copy>",
		Short: "Check whether an original input matches its Sources copy",
		Long: `Verify re-runs the deletion gates against an original export folder and
the copy a previous run placed under the output root's Sources folder.
It is read-only; it reports what would be safe to delete and why
anything is not.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcesDir, err := findSourcesCopy(args[0], args[1])
			if err != nil {
				return err
			}

			req := verify.Request{
				CopySourcesEnabled: true,
				OriginalDir:        args[0],
				SourcesDir:         sourcesDir,
				OriginalZip:        originalZip,
				SourcesZip:         sourcesZip,
			}
			res, err := verify.Verify(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, adv := range res.Advisories {
				fmt.Printf("note: %s\n", adv)
			}
			if len(res.GateFailures) > 0 {
				fmt.Printf("NOT deletable: %s\n", strings.Join(res.GateFailures, ", "))
				return nil
			}
			for _, d := range res.Deletable {
				fmt.Printf("deletable: %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&originalZip, "original-zip", "", "original archive to compare as well")
	cmd.Flags().StringVar(&sourcesZip, "sources-zip", "", "archive copy under the output root")

	return cmd
}

// findSourcesCopy accepts either the Sources copy itself or the output root
// that contains it.
func findSourcesCopy(original, candidate string) (string, error) {
	base := filepath.Base(original)
	for _, p := range []string{
		filepath.Join(candidate, source.SourcesDirName, base),
		filepath.Join(candidate, base),
		candidate,
	} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no Sources copy of %s found under %s", base, candidate)
}
