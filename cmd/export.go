package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chordpad/midi"
	"github.com/jsphweid/chordpad/sheet"
	"github.com/spf13/cobra"
)

var (
	exportFrom int
	exportTo   int
)

func init() {
	exportCmd.Flags().IntVar(&exportFrom, "from", 0, "first line to export")
	exportCmd.Flags().IntVar(&exportTo, "to", -1, "line after the last one to export (default: all)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <draft-id> <out.mid|out.txt>",
	Short: "Exports a draft as midi markers or a chord sheet",
	Long:  `Exports a draft as midi markers or a chord sheet`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, logger, err := openService(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		d, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		to := exportTo
		if to < 0 {
			to = len(d.Document.Lines)
		}

		out := args[1]
		switch strings.ToLower(filepath.Ext(out)) {
		case ".mid", ".midi":
			s, err := midi.Excerpt(d.Title, d.Document, exportFrom, to, cfg.Midi.TicksPerChar)
			if err != nil {
				return err
			}
			if err := midi.WriteFile(out, s); err != nil {
				return err
			}
		default:
			if err := os.WriteFile(out, []byte(sheet.Format(d.Document)+"\n"), 0644); err != nil {
				return fmt.Errorf("write sheet: %w", err)
			}
		}
		fmt.Printf("Exported %v to %v\n", d.ID, out)
		return nil
	},
}
