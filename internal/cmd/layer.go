package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yacchi/umbra"
)

func newLayerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Edit the shadow layers of a document",
	}
	cmd.AddCommand(
		newLayerListCommand(a),
		newLayerAddCommand(a),
		newLayerRemoveCommand(a),
		newLayerSetCommand(a),
	)
	return cmd
}

func newLayerListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE",
		Short: "List the layers of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd.Context(), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, l := range store.Layers() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", l.ID, l); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newLayerAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE",
		Short: "Append a layer with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(store *umbra.Store) error {
				l := store.AddLayer()
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "added layer %d\n", l.ID)
				return err
			})
		},
	}
}

func newLayerRemoveCommand(a *app) *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:   "remove FILE",
		Short: "Remove a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(store *umbra.Store) error {
				if err := selectLayer(store, cmd.Flags(), id); err != nil {
					return err
				}
				if len(store.Layers()) == 1 {
					return fmt.Errorf("cannot remove the last layer: a document needs at least one")
				}
				l, err := store.RemoveSelectedLayer()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed layer %d\n", l.ID)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "layer id (default: first layer)")
	return cmd
}

func newLayerSetCommand(a *app) *cobra.Command {
	var (
		id           int
		hoff, voff   int
		blur, spread int
		color        string
	)

	cmd := &cobra.Command{
		Use:   "set FILE",
		Short: "Change the properties of a layer",
		Long: `Change the properties of a layer.

Only the given flags are applied. Without --id the first layer is edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return a.edit(cmd, args[0], func(store *umbra.Store) error {
				if err := selectLayer(store, flags, id); err != nil {
					return err
				}
				ints := []struct {
					name  string
					value int
					set   func(int) error
				}{
					{"hoff", hoff, store.SetSelectedOffsetX},
					{"voff", voff, store.SetSelectedOffsetY},
					{"blur", blur, store.SetSelectedBlur},
					{"spread", spread, store.SetSelectedSpread},
				}
				for _, f := range ints {
					if !flags.Changed(f.name) {
						continue
					}
					if err := f.set(f.value); err != nil {
						return err
					}
				}
				if flags.Changed("color") {
					return store.SetSelectedColor(color)
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&id, "id", 0, "layer id (default: first layer)")
	flags.IntVar(&hoff, "hoff", 0, "horizontal offset in px")
	flags.IntVar(&voff, "voff", 0, "vertical offset in px")
	flags.IntVar(&blur, "blur", 0, "blur radius in px")
	flags.IntVar(&spread, "spread", 0, "spread radius in px")
	flags.StringVar(&color, "color", "", "shadow color")
	return cmd
}

// selectLayer selects --id when it was given; otherwise the selection made
// by the import (the first layer) is kept.
func selectLayer(store *umbra.Store, flags *pflag.FlagSet, id int) error {
	if !flags.Changed("id") {
		return nil
	}
	if !store.SelectLayer(id) {
		return fmt.Errorf("no layer with id %d", id)
	}
	return nil
}

func newSettingsCommand(a *app) *cobra.Command {
	var shape, size, color string

	cmd := &cobra.Command{
		Use:   "settings FILE",
		Short: "Change the shape, size or background color of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("shape") {
				switch umbra.Shape(shape) {
				case umbra.ShapeSquare, umbra.ShapeCircle:
				default:
					return fmt.Errorf("invalid shape %q (want %s or %s)", shape, umbra.ShapeSquare, umbra.ShapeCircle)
				}
			}
			return a.edit(cmd, args[0], func(store *umbra.Store) error {
				if flags.Changed("shape") {
					store.SetShape(umbra.Shape(shape))
				}
				if flags.Changed("size") {
					store.SetSize(size)
				}
				if flags.Changed("color") {
					store.SetColor(color)
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&shape, "shape", "", "square or circle")
	flags.StringVar(&size, "size", "", "element size in px")
	flags.StringVar(&color, "color", "", "background color")
	return cmd
}

// edit loads path, applies fn and writes the result back to path.
func (a *app) edit(cmd *cobra.Command, path string, fn func(*umbra.Store) error) error {
	if path == stdio {
		return fmt.Errorf("cannot edit stdin in place; use convert to copy it to a file first")
	}
	store, err := a.load(cmd.Context(), path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		return err
	}
	return a.save(cmd.Context(), store, path, cmd.OutOrStdout())
}
