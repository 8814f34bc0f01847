package cmd

import (
	"fmt"

	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [draft-id]",
	Short: "Reports chord usage of one draft or all drafts",
	Long:  `Reports chord usage of one draft or all drafts`,
	Args:  cobra.MaximumNArgs(1),
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

		if len(args) == 1 {
			d, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportDraft(d)
			return nil
		}

		list, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		var chordsPerDraft []int
		for _, s := range list {
			fmt.Printf("%v  %-30v lines: %-4v chords: %v\n", s.ID, s.Title, s.NumLines, s.NumChords)
			chordsPerDraft = append(chordsPerDraft, s.NumChords)
		}
		fmt.Printf("drafts: %v\n", len(list))
		fmt.Printf("chords: %v\n", util.Sum(chordsPerDraft))
		return nil
	},
}

func reportDraft(d model.Draft) {
	fmt.Printf("draft: %v\n", d.ID)
	fmt.Printf("title: %v\n", d.Title)
	fmt.Printf("updated: %v\n", d.UpdatedAt)
	fmt.Printf("lines: %v\n", len(d.Document.Lines))
	fmt.Printf("chords: %v\n", d.Document.NumChords())
	for _, c := range chord.Usage(d.Document) {
		fmt.Printf("  %-8v %v\n", c.Symbol, c.Count)
	}
}
