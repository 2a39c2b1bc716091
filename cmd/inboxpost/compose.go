package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/inboxpost/activity"
)

func newComposeCmd(a *app) *cobra.Command {
	var (
		actor     string
		idBase    string
		content   string
		inReplyTo string
		to        []string
		cc        []string
		out       string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Write a Create activity wrapping a Note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if actor == "" {
				// keyId is usually the actor URL, sometimes with a #main-key fragment.
				actor, _, _ = strings.Cut(a.cfg.Actor.KeyID, "#")
			}

			doc, err := activity.NewCreateNote(activity.NoteConfig{
				Actor:     actor,
				IDBase:    idBase,
				Content:   content,
				InReplyTo: inReplyTo,
				To:        to,
				Cc:        cc,
			})
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
				return err
			}

			if err := os.WriteFile(out, append(doc, '\n'), 0o644); err != nil {
				return err
			}

			a.logger.Info("document written", zap.String("path", out), zap.Int("bytes", len(doc)+1))

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&actor, "actor", "", "actor URL (defaults to the key id without fragment)")
	flags.StringVar(&idBase, "id-base", "", "URL prefix for generated object ids (defaults to the actor URL)")
	flags.StringVar(&content, "content", "<p>Hello world</p>", "HTML content of the note")
	flags.StringVar(&inReplyTo, "in-reply-to", "", "URL of the object being replied to")
	flags.StringSliceVar(&to, "to", nil, "primary audience (defaults to the public collection)")
	flags.StringSliceVar(&cc, "cc", nil, "secondary audience")
	flags.StringVarP(&out, "output", "o", "", "write to file instead of stdout")

	return cmd
}
