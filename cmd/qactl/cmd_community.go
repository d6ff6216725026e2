package main

import (
	"QA_Community/internal/client"

	"github.com/spf13/cobra"
)

func newCommunityCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{Use: "community", Short: "Manage communities"}

	var (
		name, description, visibility string
		participants                  []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a community administered by --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			community, err := c.CreateCommunity(cmd.Context(), client.CreateCommunityRequest{
				Name:         name,
				Description:  description,
				Admin:        o.user,
				Visibility:   visibility,
				Participants: participants,
			})
			if err != nil {
				return err
			}
			return o.print(community)
		},
	}
	create.Flags().StringVar(&name, "name", "", "community name")
	create.Flags().StringVar(&description, "description", "", "community description")
	create.Flags().StringVar(&visibility, "visibility", "PUBLIC", "PUBLIC or PRIVATE")
	create.Flags().StringSliceVar(&participants, "participant", nil, "initial participants")

	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			communities, err := c.ListCommunities(cmd.Context())
			if err != nil {
				return err
			}
			return o.print(communities)
		},
	}

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			community, err := c.GetCommunity(cmd.Context(), id)
			if err != nil {
				return err
			}
			return o.print(community)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle ID",
		Short: "Join the community, or leave it if already a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			community, err := c.ToggleMembership(cmd.Context(), id, o.user)
			if err != nil {
				return err
			}
			return o.print(community)
		},
	}

	del := &cobra.Command{
		Use:  "delete ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			community, err := c.DeleteCommunity(cmd.Context(), id, o.user)
			if err != nil {
				return err
			}
			return o.print(community)
		},
	}

	var size, last string
	questions := &cobra.Command{
		Use:   "questions ID",
		Short: "List questions asked in a community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var lastID uint64
			if last != "" {
				if lastID, err = parseID(last); err != nil {
					return err
				}
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			page, err := c.CommunityQuestions(cmd.Context(), id, o.user, lastID, atoiOr(size, 0))
			if err != nil {
				return err
			}
			return o.print(page)
		},
	}
	questions.Flags().StringVar(&size, "size", "", "page size")
	questions.Flags().StringVar(&last, "last", "", "cursor from a previous page")

	cmd.AddCommand(create, list, get, toggle, del, questions)
	return cmd
}
