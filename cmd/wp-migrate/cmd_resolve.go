package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/toothbrush/wp-migrate/pagetree"
	"github.com/toothbrush/wp-migrate/wordpress"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show where a destination path lands in the page tree",
	Long: `
Walks a destination path, e.g. /about/team/people, level by level and tells you which page each
level resolved to.  With the default --action move nothing is written, which makes this a dry run
for a queue row.  With --action create missing ancestors are created as placeholder pages; the
page itself is only ever made by a migration run.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(args[0])
	},
}

var (
	ResolveAction      string
	ResolveCreateDelay time.Duration
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&ResolveAction, "action", "move", "move (look only) or create (make missing levels)")
	resolveCmd.Flags().DurationVar(&ResolveCreateDelay, "create-delay", 0, "pause before each page creation")
}

func runResolve(raw string) error {
	ctx, stop := signalContext()
	defer stop()

	action, err := pagetree.ParseAction(ResolveAction)
	if err != nil {
		return err
	}
	spec, err := pagetree.NewPathSpec(raw, action)
	if err != nil {
		return err
	}

	s, err := openSite(action == pagetree.Create)
	if err != nil {
		return err
	}
	defer s.Close()

	// narrate regardless of --debug, that's the point of this command
	Debug = true
	builder, resolver := newResolverTree(s, ResolveCreateDelay)

	fmt.Printf("Resolving /%s (%s, depth %d)\n", spec, spec.Action, spec.Depth())

	for i := 1; i <= spec.Depth(); i++ {
		prefix := spec.Prefix(i)
		page, ok, err := resolver.FindByExactPath(ctx, prefix.String())
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("  /%s: page %d, %s\n", prefix, page.ID, page.Link)
		} else {
			fmt.Printf("  /%s: not found by permalink\n", prefix)
		}
	}

	if spec.Depth() == 0 {
		home, err := builder.Resolve(ctx, spec)
		if err != nil {
			return err
		}
		if home.ID == 0 {
			fmt.Println("The site has no home page.")
			return nil
		}
		return describePage(ctx, s.API, spec, home.ID)
	}

	// the same steps a queue row goes through: ancestors first, then the leaf
	parent, err := builder.ResolveParent(ctx, spec)
	if mae, ok := pagetree.IsMissingAncestor(err); ok {
		fmt.Printf("Nothing at /%s (looking for %q): a Move row for /%s would be logged for reprocessing.\n", mae.Path, mae.Slug, spec)
		return nil
	}
	if err != nil {
		return err
	}
	for _, id := range parent.Created {
		fmt.Printf("  created page %d\n", id)
	}

	leaf, ok, err := resolver.Lookup(ctx, spec.Segments, parent.ID)
	if err != nil {
		return err
	}
	if !ok {
		where := "at the top level"
		if parent.ID != 0 {
			where = fmt.Sprintf("under page %d", parent.ID)
		}
		fmt.Printf("/%s doesn't exist yet; a row for it would create it %s.\n", spec, where)
		return nil
	}
	return describePage(ctx, s.API, spec, leaf.ID)
}

func describePage(ctx context.Context, api *wordpress.API, spec pagetree.PathSpec, id int) error {
	page, err := api.GetPage(ctx, id)
	if errors.Is(err, wordpress.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "page %d vanished after resolving\n", id)
		return err
	}
	if err != nil {
		return err
	}
	fmt.Printf("/%s resolves to page %d (%q, %s) at %s\n", spec, page.ID, page.Title.Rendered, page.Status, page.Link)
	return nil
}
