package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var importTitle string

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "draft title (default: file name)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <sheet.txt|song.mid>",
	Short: "Creates a draft from a chord sheet or midi file",
	Long:  `Creates a draft from a chord sheet or midi file`,
	Args:  cobra.ExactArgs(1),
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

		doc, err := readDocument(args[0], cfg.Midi.TicksPerChar)
		if err != nil {
			return err
		}
		title := importTitle
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		d, err := svc.Import(cmd.Context(), title, doc)
		if err != nil {
			return err
		}
		fmt.Println(d.ID)
		return nil
	},
}
