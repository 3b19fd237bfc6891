package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var flagInitOutput string

var initCmd = &cobra.Command{
	Use:   "init <template>",
	Short: "Write a documented starter pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl, ok := findTemplate(args[0])
		if !ok {
			return fmt.Errorf("unknown template %q (see 'pipeforge templates')", args[0])
		}

		out := flagInitOutput
		if out == "" {
			out = tmpl.Name + ".yml"
		}
		if err := os.WriteFile(out, []byte(tmpl.Body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Println(styleOK.Render("wrote " + out))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&flagInitOutput, "output", "o", "", "output file path (default: <template>.yml)")
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available init templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := make([]string, len(templateCatalog))
		for i, t := range templateCatalog {
			names[i] = t.Name
		}
		sort.Strings(names)

		var b strings.Builder
		for _, name := range names {
			t, _ := findTemplate(name)
			fmt.Fprintf(&b, "%-12s %s\n", t.Name, t.Description)
		}
		fmt.Print(b.String())
		return nil
	},
}
