package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/acoburn/trellis-rosid/internal/app"
	"github.com/acoburn/trellis-rosid/internal/config"
	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/rosid"
	"github.com/acoburn/trellis-rosid/internal/topology"
)

func newApp() (*app.App, error) {
	return app.New(config.Load())
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the storage engine as a long-lived process",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Ping(5 * time.Second); err != nil {
			return fmt.Errorf("rosidctl: storage root not writable: %w", err)
		}
		a.Log.WithField("root", a.Config.Root).WithField("async", a.Config.Async).Info("rosidctl: serving")

		if err := a.EnsureRoot(cmd.Context(), a.Config.Partition); err != nil {
			return fmt.Errorf("rosidctl: initialize partition root: %w", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		a.Log.Info("rosidctl: shutting down")
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "idempotently create a partition's root resource",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.EnsureRoot(cmd.Context(), a.Config.Partition)
	},
}

var getAt string
var getContext string

var getCmd = &cobra.Command{
	Use:   "get <iri>",
	Short: "read a resource, optionally as of a past instant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tc, err := contextByName(getContext)
		if err != nil {
			return err
		}

		id := quad.IRI(args[0])
		t := time.Now()
		if getAt != "" {
			t, err = time.Parse(time.RFC3339, getAt)
			if err != nil {
				return fmt.Errorf("rosidctl: parse --at: %w", err)
			}
		}

		r, err := a.Service.GetAt(cmd.Context(), id, t)
		if err != nil {
			return err
		}

		next, closeFn := r.Stream(tc)
		defer closeFn()

		count := 0
		for {
			q, ok := next()
			if !ok {
				break
			}
			fmt.Println(
				quad.EncodeTerm(q.Subject), quad.EncodeTerm(q.Predicate),
				quad.EncodeTerm(q.Object), quad.EncodeTerm(q.Label),
			)
			count++
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "# %s quads\n", humanize.Comma(int64(count)))

		if ds, ok := r.Datastream(); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "# datastream %s (%s, %s)\n", ds.Location, ds.Format, humanize.Bytes(uint64(ds.Size)))
		}
		return nil
	},
}

var writeAdd []string
var writeRemove []string
var writeGraph string

var writeCmd = &cobra.Command{
	Use:   "write <iri>",
	Short: "append a journal block adding and/or removing quads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		defaultGraph := quad.PreferUserManaged.Graph()
		if writeGraph != "" {
			gc, ok := quad.ParseContext(quad.IRI(writeGraph))
			if !ok {
				return fmt.Errorf("rosidctl: unknown --graph %q", writeGraph)
			}
			defaultGraph = gc.Graph()
		}

		add, err := parseQuadLines(writeAdd, defaultGraph)
		if err != nil {
			return err
		}
		remove, err := parseQuadLines(writeRemove, defaultGraph)
		if err != nil {
			return err
		}

		id := quad.IRI(args[0])
		now := time.Now().UTC()
		if err := a.Service.Write(cmd.Context(), id, remove, add, now); err != nil {
			return err
		}

		a.Dispatch(cmd.Context(), topology.TopicUpdate, topology.Record{
			Resource: id,
			Remove:   remove,
			Add:      add,
			At:       now,
		})
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge <iri>",
	Short: "remove a resource's journal and derived artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		datastreams, err := a.Service.Purge(cmd.Context(), quad.IRI(args[0]))
		if err != nil {
			return err
		}
		for _, ds := range datastreams {
			fmt.Fprintf(cmd.ErrOrStderr(), "# referenced datastream %s\n", ds)
		}
		return nil
	},
}

var listPageSize int

var listCmd = &cobra.Command{
	Use:   "list <partition>",
	Short: "list resources cached under a partition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		next, err := a.Service.List(cmd.Context(), args[0], rosid.ListOptions{PageSize: listPageSize})
		if err != nil {
			return err
		}

		count := 0
		for {
			e, ok := next()
			if !ok {
				break
			}
			fmt.Printf("%s\t%s\n", e.ID, e.InteractionModel)
			count++
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "# %s resources\n", humanize.Comma(int64(count)))
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getAt, "at", "", "read as of this RFC3339 instant instead of the latest state")
	getCmd.Flags().StringVar(&getContext, "context", "user", "context to stream: user, server, acl, audit, containment, membership, inbound")

	writeCmd.Flags().StringArrayVar(&writeAdd, "add", nil, `quad to add, "<s> <p> <o> [<g>]"`)
	writeCmd.Flags().StringArrayVar(&writeRemove, "remove", nil, `quad to remove, "<s> <p> <o> [<g>]"`)
	writeCmd.Flags().StringVar(&writeGraph, "graph", "", "default graph context for --add/--remove terms omitting one (default trellis:PreferUserManaged)")

	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "stop after this many entries (0 means unbounded)")
}
