package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacchi/umbra"
)

func newCSSCommand(a *app) *cobra.Command {
	var selector string

	cmd := &cobra.Command{
		Use:   "css [FILE]",
		Short: "Print the CSS of a document",
		Long: `Print the CSS declarations of a document.

Without FILE the default two-layer state is used. Use "-" to read stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				store *umbra.Store
				err   error
			)
			if len(args) == 0 {
				store, err = a.newStore()
			} else {
				store, err = a.load(cmd.Context(), args[0], cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderCSS(store, selector))
			return err
		},
	}
	cmd.Flags().StringVar(&selector, "rule", "", "wrap the declarations in a rule for this selector")
	return cmd
}

func renderCSS(store *umbra.Store, selector string) string {
	if selector != "" {
		return store.Rule(selector)
	}
	return store.CSSDeclaration() + "\n"
}

func newConvertCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a document between formats",
		Long: `Convert a document between formats.

Formats are picked from file extensions. "-" reads stdin or writes stdout
in the format given by --format. s3://bucket/key paths are supported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd.Context(), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.save(cmd.Context(), store, args[1], cmd.OutOrStdout())
		},
	}
}

func newPresetCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Write the bundled " + umbra.PresetName + " preset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}
			store.LoadPreset()
			return a.save(cmd.Context(), store, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", stdio, "destination path")
	return cmd
}
