package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviours"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
	"github.com/reactive-graph/reactive-graph-sub007/internal/registry"
	"github.com/reactive-graph/reactive-graph-sub007/internal/system"
)

// BindingInfo describes one registered behaviour binding.
type BindingInfo struct {
	Kind      string `json:"kind"`
	Owner     string `json:"owner"`
	Behaviour string `json:"behaviour"`
}

// NewBehavioursCommand creates the behaviours command.
func NewBehavioursCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "behaviours",
		Short: "List built-in behaviour bindings",
		Long: `List every behaviour binding of the built-in library: the owning
entity type, relation type or component, and the behaviour type attached
to matching instances.

Examples:
  rgraph behaviours
  rgraph behaviours --kind relation --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBehaviours(rootOpts, kind, cmd)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only this registry (entity|entity-component|relation|relation-component)")

	return cmd
}

func runBehaviours(opts *RootOptions, kind string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	types, err := loadTypes("")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load types", err)
	}
	sys := system.New(types)
	if err := sys.Install(behaviours.Library{}); err != nil {
		return WrapExitError(ExitFailure, "failed to install library", err)
	}

	all := listBindings(sys)
	var out []BindingInfo
	for _, b := range all {
		if kind == "" || b.Kind == kind {
			out = append(out, b)
		}
	}
	if kind != "" && len(out) == 0 && !knownKind(kind) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown kind %q", kind))
	}
	if out == nil {
		out = []BindingInfo{}
	}

	if f.JSON() {
		return f.Success(out)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tOWNER\tBEHAVIOUR")
	for _, b := range out {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Owner, b.Behaviour)
	}
	return tw.Flush()
}

// listBindings returns the bindings of all four registries, grouped by
// registry and ordered by key within each.
func listBindings(sys *system.System) []BindingInfo {
	var out []BindingInfo
	out = appendBindings(out, sys.EntityBehaviours)
	out = appendBindings(out, sys.EntityComponentBehaviours)
	out = appendBindings(out, sys.RelationBehaviours)
	out = appendBindings(out, sys.RelationComponentBehaviours)
	return out
}

func appendBindings[O comparable, ID comparable, T reactive.Instance[ID]](out []BindingInfo, r *registry.Registry[O, ID, T]) []BindingInfo {
	for _, b := range r.GetAll() {
		out = append(out, BindingInfo{
			Kind:      strings.ReplaceAll(r.Kind(), " ", "-"),
			Owner:     fmt.Sprint(b.Key.Owner),
			Behaviour: b.Key.Behaviour.String(),
		})
	}
	return out
}

func knownKind(kind string) bool {
	switch kind {
	case "entity", "entity-component", "relation", "relation-component":
		return true
	}
	return false
}
