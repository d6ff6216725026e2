package main

import (
	"QA_Community/internal/client"

	"github.com/spf13/cobra"
)

func newCollectionCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{Use: "collection", Short: "Manage question collections"}

	var (
		name, description string
		private           bool
		questionIDs       []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a collection owned by --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			collection, err := c.CreateCollection(cmd.Context(), client.CreateCollectionRequest{
				Name:        name,
				Description: description,
				Username:    o.user,
				Questions:   questionIDs,
				IsPrivate:   private,
			})
			if err != nil {
				return err
			}
			return o.print(collection)
		},
	}
	create.Flags().StringVar(&name, "name", "", "collection name")
	create.Flags().StringVar(&description, "description", "", "collection description")
	create.Flags().BoolVar(&private, "private", false, "only visible to the owner")
	create.Flags().StringSliceVar(&questionIDs, "question", nil, "question ids to include")

	list := &cobra.Command{
		Use:   "list OWNER",
		Short: "List OWNER's collections as seen by --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			collections, err := c.UserCollections(cmd.Context(), args[0], o.user)
			if err != nil {
				return err
			}
			return o.print(collections)
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
			collection, err := c.GetCollection(cmd.Context(), id, o.user)
			if err != nil {
				return err
			}
			return o.print(collection)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle COLLECTION_ID QUESTION_ID",
		Short: "Add the question to the collection, or remove it if present",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			collectionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			questionID, err := parseID(args[1])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			collection, err := c.ToggleQuestion(cmd.Context(), collectionID, questionID, o.user)
			if err != nil {
				return err
			}
			return o.print(collection)
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
			collection, err := c.DeleteCollection(cmd.Context(), id, o.user)
			if err != nil {
				return err
			}
			return o.print(collection)
		},
	}

	cmd.AddCommand(create, list, get, toggle, del)
	return cmd
}
