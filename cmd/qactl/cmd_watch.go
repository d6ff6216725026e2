package main

import (
	"fmt"

	"QA_Community/internal/client"

	"github.com/spf13/cobra"
)

func newWatchCmd(o *options) *cobra.Command {
	var communities, collections []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live community and collection changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			live, err := c.Subscribe(cmd.Context(), o.user)
			if err != nil {
				return err
			}
			defer live.Close()

			for _, s := range communities {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				if err := live.JoinCommunity(id); err != nil {
					return err
				}
			}
			for _, s := range collections {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				if err := live.JoinCollection(id); err != nil {
					return err
				}
			}

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-live.Events():
					if !ok {
						return live.Err()
					}
					if err := printEvent(o, ev); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().StringSliceVar(&communities, "community", nil, "only these community ids")
	cmd.Flags().StringSliceVar(&collections, "collection", nil, "only these collection ids")
	return cmd
}

func printEvent(o *options, ev client.Event) error {
	var entity any = ev.Community
	if ev.Collection != nil {
		entity = ev.Collection
	}
	fmt.Fprintf(o.out, "%s %s %d\n", ev.Channel, ev.Type, ev.EntityID())
	return o.print(entity)
}
