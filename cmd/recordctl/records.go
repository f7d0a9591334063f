package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/recordbook/internal/client"
	"github.com/stwalsh4118/recordbook/internal/dashboard"
	"github.com/stwalsh4118/recordbook/internal/models"
	"github.com/stwalsh4118/recordbook/internal/recordform"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

func newListCmd(a *app) *cobra.Command {
	var view dashboard.View

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := dashboard.New(a.apiClient())
			if err := ctrl.Apply(cmd.Context(), view); err != nil {
				return describe(err)
			}
			printPage(a.out, ctrl.Snapshot())
			return nil
		},
	}

	cmd.Flags().IntVar(&view.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&view.PageSize, "limit", dashboard.DefaultPageSize, "records per page (8, 16, 24 or 32)")
	cmd.Flags().StringVar(&view.Search, "search", "", "match name, email, phone, address, state, district, city or zipcode")
	cmd.Flags().StringVar(&view.SortBy, "sort", dashboard.DefaultSortField, "sort field")
	cmd.Flags().StringVar(&view.SortOrder, "order", dashboard.SortAsc, "sort order (asc or desc)")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.apiClient().GetRecord(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			return printJSON(a.out, rec)
		},
	}
}

// fieldFlags registers one string flag per form field.
func fieldFlags(cmd *cobra.Command) map[string]*string {
	values := make(map[string]*string, len(recordform.Fields))
	for _, field := range recordform.Fields {
		values[field] = cmd.Flags().String(flagName(field), "", "record "+flagName(field))
	}
	return values
}

// flagName maps recordDate to record-date.
func flagName(field string) string {
	if field == recordform.FieldRecordDate {
		return "record-date"
	}
	return field
}

// applyFlags copies changed flags into the form. The state goes first so its
// districts are loaded before the district is checked against them.
func applyFlags(cmd *cobra.Command, form *recordform.Form, values map[string]*string) error {
	fields := append([]string{recordform.FieldState}, recordform.Fields...)
	seen := map[string]bool{}
	for _, field := range fields {
		if seen[field] || !cmd.Flags().Changed(flagName(field)) {
			continue
		}
		seen[field] = true
		if err := form.Set(cmd.Context(), field, *values[field]); err != nil {
			return describe(err)
		}
	}
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var values map[string]*string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := a.apiClient()
			form := recordform.New(api)
			if err := applyFlags(cmd, form, values); err != nil {
				return err
			}
			in, err := form.Submit()
			if err != nil {
				return describe(err)
			}

			rec, err := dashboard.New(api).Add(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Record added successfully! id=%s\n", rec.ID)
			return nil
		},
	}
	values = fieldFlags(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var values map[string]*string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := a.apiClient()
			current, err := api.GetRecord(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}

			form := recordform.New(api)
			if err := form.Edit(cmd.Context(), *current); err != nil {
				return describe(err)
			}
			if err := applyFlags(cmd, form, values); err != nil {
				return err
			}
			in, err := form.Submit()
			if err != nil {
				return describe(err)
			}

			rec, err := dashboard.New(api).Update(cmd.Context(), form.EditingID(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, "Record updated successfully!")
			return printJSON(a.out, rec)
		},
	}
	values = fieldFlags(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dashboard.New(a.apiClient()).Delete(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, "Record deleted successfully!")
			return nil
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the total number of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.apiClient().CountRecords(cmd.Context())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, n)
			return nil
		},
	}
}

func printPage(w io.Writer, s dashboard.State) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tEMAIL\tCITY\tSTATE\tZIPCODE\tDATE")
	for _, r := range s.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, models.FormatPhone(r.Phone), r.Email, r.City, r.State, r.Zipcode, r.FormattedRecordDate())
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Page %d of %d (%d records)\n", s.CurrentPage, s.TotalPages, s.TotalRecords)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe turns API and form validation failures into one readable error
// listing each field message.
func describe(err error) error {
	if verr, ok := validation.AsError(err); ok {
		return fmt.Errorf("invalid record: %s", joinFields(verr.Fields))
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			return fmt.Errorf("%s: %s", apiErr.Message, joinFields(fields))
		}
		return fmt.Errorf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
	}
	return err
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
