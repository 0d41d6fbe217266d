package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"trivia-session-engine/internal/config"
	"trivia-session-engine/internal/domain"
)

// NewPhasesCmd prints the level distribution and pass threshold of every phase.
func NewPhasesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "phases",
		Short: "Print the question distribution of each phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			switch {
			case os.IsNotExist(err):
				// no config file: print the default tables
				cfg = config.Config{}
			case err != nil:
				return fmt.Errorf("load config %s: %w", *configPath, err)
			}
			phases := cfg.Phases()
			out := cmd.OutOrStdout()
			for n := domain.MinPhase; n <= domain.MaxPhase; n++ {
				pc, err := phases.ForPhase(n)
				if err != nil {
					return err
				}
				levels := make([]int, 0, len(pc.Distribution))
				for level := range pc.Distribution {
					levels = append(levels, level)
				}
				sort.Ints(levels)
				parts := make([]string, 0, len(levels))
				for _, level := range levels {
					parts = append(parts, fmt.Sprintf("L%d=%d", level, pc.Distribution[level]))
				}
				fmt.Fprintf(out, "phase %2d  %-24s pass %.0f%%\n", n, strings.Join(parts, " "), pc.MinimumAccuracy*100)
			}
			return nil
		},
	}
}
