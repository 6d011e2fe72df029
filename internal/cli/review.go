package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/store"
)

// reviewCommands creates the commands that change stored letters.
func (c *CLI) reviewCommands() []*cobra.Command {
	return []*cobra.Command{
		c.createCommand(),
		c.listCommand(),
		c.transitionCommand("submit", "Submit a draft or rejected letter for review", document.StatusSubmitted),
		c.transitionCommand("approve", "Approve a submitted letter", document.StatusApproved),
		c.transitionCommand("reject", "Reject a submitted letter with a note", document.StatusRejected),
	}
}

// withService opens the configured store and runs fn against a service over it.
func (c *CLI) withService(ctx context.Context, fn func(*store.Service, lifecycle.Actor) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	actor, err := c.actor()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg, actor)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := store.NewService(st, c.Logger)
	svc.MaxCaption = cfg.Render.MaxCaption
	return fn(svc, actor)
}

// createCommand stores a local letter as a new draft.
func (c *CLI) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [file]",
		Short: "Store a letter from a JSON file as a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.loadDocument(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			return c.withService(cmd.Context(), func(svc *store.Service, actor lifecycle.Actor) error {
				created, err := svc.Create(cmd.Context(), doc, actor)
				if err != nil {
					return err
				}
				printSuccess("Created %s", StyleHighlight.Render(created.ID))
				printKeyValue("Perihal", created.Header.Subject)
				printKeyValue("Status", string(created.Status))
				printNextStep("Submit for review", fmt.Sprintf("%s submit %s", appName, created.ID))
				return nil
			})
		},
	}
}

// listCommand lists stored letters.
func (c *CLI) listCommand() *cobra.Command {
	var (
		status string
		kind   string
		mine   bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored letters, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.Filter{Limit: limit}
			if status != "" {
				f.Status = document.Status(strings.ToUpper(status))
				if !f.Status.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			if kind != "" {
				k, err := document.ParseKind(kind)
				if err != nil {
					return err
				}
				f.Jenis = k
			}
			return c.withService(cmd.Context(), func(svc *store.Service, actor lifecycle.Actor) error {
				if mine {
					f.OwnerID = actor.ID
				}
				recs, err := svc.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("No letters found")
					return nil
				}
				for _, r := range recs {
					fmt.Printf("%s  %-10s %-16s %s\n", StyleDim.Render(r.ID), r.Status, r.Jenis, r.Perihal)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only letters with this status")
	cmd.Flags().StringVar(&kind, "kind", "", "only letters of this kind")
	cmd.Flags().BoolVar(&mine, "mine", false, "only letters owned by the acting user")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of letters")

	return cmd
}

// transitionCommand creates submit, approve or reject.
func (c *CLI) transitionCommand(use, short string, to document.Status) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *store.Service, actor lifecycle.Actor) error {
				tr, err := svc.Transition(cmd.Context(), args[0], actor, to, note)
				if err != nil {
					return err
				}
				printSuccess("%s %s %s %s", tr.DocumentID, tr.From, iconArrow, StyleHighlight.Render(string(tr.To)))
				if tr.Note != "" {
					printDetail("Catatan: %s", tr.Note)
				}
				return nil
			})
		},
	}

	if to == document.StatusRejected {
		cmd.Flags().StringVarP(&note, "note", "m", "", "reason for the rejection (required)")
	}

	return cmd
}
