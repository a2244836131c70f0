/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package command

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suparena/collectionstore/datastore/codec"
	"github.com/suparena/collectionstore/storagemodels"
)

func (cl *Commandline) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := cl.coll.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("document %s/%s not found", cl.coll.Path(), args[0])
			}
			return printJSON(cmd, doc)
		},
	}
}

func (cl *Commandline) listCmd() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every document matching the filters",
		Example: `  collectionctl list --where "status == \"open\"" --where "priority >= 2"
  collectionctl list --where "tags array-contains \"urgent\""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			constraints := make([]storagemodels.Constraint, 0, len(where))
			for _, w := range where {
				c, err := ParseWhere(w)
				if err != nil {
					return err
				}
				constraints = append(constraints, c)
			}
			docs, err := cl.coll.ReadAll(cmd.Context(), constraints...)
			if err != nil {
				return err
			}
			return printJSON(cmd, docs)
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, `filter "field op value"; repeat to AND filters`)
	return cmd
}

func (cl *Commandline) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := cl.coll.GetSize(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"count": n})
		},
	}
}

func (cl *Commandline) latestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recently created documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := cl.coll.ReadSingle(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []storagemodels.Document{}
			}
			return printJSON(cmd, docs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 1, "number of documents")
	return cmd
}

func (cl *Commandline) putCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "put <json>",
		Short: "Create a document; with --id an existing document is replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseDocument(args[0])
			if err != nil {
				return err
			}
			var doc storagemodels.Document
			if id != "" {
				doc, err = cl.coll.CreateWithID(cmd.Context(), id, data)
			} else {
				doc, err = cl.coll.Create(cmd.Context(), data)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document id; generated when empty")
	return cmd
}

func (cl *Commandline) patchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <id> <json>",
		Short: "Merge top-level fields into a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseDocument(args[1])
			if err != nil {
				return err
			}
			return cl.coll.Patch(cmd.Context(), args[0], fields)
		},
	}
}

func (cl *Commandline) setFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-field <id> <path> <json>",
		Short: "Set the field at a dotted path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.coll.UpdateInside(cmd.Context(), args[0], args[1], parseValue(args[2]))
		},
	}
}

func (cl *Commandline) arrayAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "array-add <id> <path> <json>",
		Short: "Add a value to an array field unless already present",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.coll.UpdateArrayInside(cmd.Context(), args[0], args[1], parseValue(args[2]))
		},
	}
}

func (cl *Commandline) arrayRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "array-remove <id> <path> <json>",
		Short: "Remove every occurrence of a value from an array field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.coll.DeleteArrayItem(cmd.Context(), args[0], args[1], parseValue(args[2]))
		},
	}
}

func (cl *Commandline) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.coll.Delete(cmd.Context(), args[0])
		},
	}
}

func (cl *Commandline) purgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every document in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %s without --yes", cl.coll.Path())
			}
			n, err := cl.coll.DeleteAll(cmd.Context())
			l := cl.logger()
			l.Info().Int("deleted", n).Str("collection", cl.coll.Path()).Msg("purge finished")
			if perr := printJSON(cmd, map[string]int{"deleted": n}); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every document")
	return cmd
}

func parseDocument(raw string) (storagemodels.Document, error) {
	doc, err := codec.Unmarshal([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return doc, nil
}
