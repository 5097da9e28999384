package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"employee-management/internal/client"
	"employee-management/internal/logger"
	"employee-management/internal/models"
	"employee-management/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	v   *viper.Viper
	log *zap.Logger
}

// formFlags maps command line flags to draft fields.
var formFlags = []struct {
	flag  string
	field pipeline.Field
	usage string
}{
	{"name", pipeline.FieldName, "employee name"},
	{"email", pipeline.FieldEmail, "employee email"},
	{"mobile", pipeline.FieldMobileNo, "mobile number"},
	{"designation", pipeline.FieldDesignation, "HR, Manager or Sales"},
	{"gender", pipeline.FieldGender, "male, female or other"},
	{"created-date", pipeline.FieldCreatedDate, "creation date (YYYY-MM-DD)"},
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "emsctl",
		Short:         "Manage employee records from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !a.v.GetBool("verbose") {
				return nil
			}
			l, err := logger.New("debug")
			if err != nil {
				return err
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:5000", "API base URL (EMS_SERVER)")
	pf.String("user", "", "signed-in email (EMS_USER)")
	pf.String("token", "", "bearer token from login (EMS_TOKEN)")
	pf.Duration("timeout", 0, "request timeout (0 uses the transport default)")
	pf.BoolP("verbose", "v", false, "log requests to stderr")

	a.v.SetEnvPrefix("EMS")
	a.v.AutomaticEnv()
	for _, name := range []string{"server", "user", "token", "timeout", "verbose"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(a.loginCmd(), a.listCmd(), a.createCmd(), a.editCmd(), a.deleteCmd())
	return root
}

func (a *app) client() *client.Client {
	var opts []client.Option
	if d := a.v.GetDuration("timeout"); d > 0 {
		opts = append(opts, client.WithTimeout(d))
	}
	return client.New(a.v.GetString("server"), opts...)
}

// savedWithStaleList reports a save whose follow-up reload failed. It prints
// the success line plus a warning and returns true in that case.
func savedWithStaleList(cmd *cobra.Command, err error, done string) bool {
	if !errors.Is(err, pipeline.ErrReloadFailed) {
		return false
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	return true
}

func (a *app) session() client.Session {
	return client.Session{Email: a.v.GetString("user"), Token: a.v.GetString("token")}
}

// pipeline builds a pipeline for the current session and loads the list.
func (a *app) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	s := a.session()
	p, err := pipeline.New(a.client().WithSession(s), s, a.log)
	if errors.Is(err, pipeline.ErrNoSession) {
		return nil, fmt.Errorf("%w: run emsctl login and set EMS_USER", err)
	}
	if err != nil {
		return nil, err
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	p.ShowList()
	return p, nil
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print the session environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Login successful")
			fmt.Fprintf(out, "export EMS_USER=%s\n", s.Email)
			if s.Token != "" {
				fmt.Fprintf(out, "export EMS_TOKEN=%s\n", s.Token)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		search string
		sortBy string
		page   int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List employees",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := pipeline.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			p.SetSearch(search)
			p.SetSort(key)
			p.SetPage(page)

			renderView(cmd.OutOrStdout(), p.View())
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name, email or created date")
	cmd.Flags().StringVar(&sortBy, "sort", string(pipeline.SortByName), "sort key: name, email, created_date or _id")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func addFormFlags(cmd *cobra.Command) {
	for _, f := range formFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().String("image", "", "path of an image to upload")
}

// applyFormFlags copies the flags the user set into the open draft.
func applyFormFlags(cmd *cobra.Command, p *pipeline.Pipeline) error {
	for _, f := range formFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(f.flag)
		if err := p.SetField(f.field, value); err != nil {
			return err
		}
	}

	path, _ := cmd.Flags().GetString("image")
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return p.AttachImage(filepath.Base(path), data)
}

func checkCourses(labels []string) error {
	for _, l := range labels {
		if !models.IsCourse(l) {
			return fmt.Errorf("unknown course %q (want one of %v)", l, models.Courses)
		}
	}
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var courses []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCourses(courses); err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			p.BeginCreate()
			if err := applyFormFlags(cmd, p); err != nil {
				return err
			}
			for _, c := range courses {
				if err := p.ToggleCourse(c, true); err != nil {
					return err
				}
			}
			err = p.Submit(cmd.Context())
			if savedWithStaleList(cmd, err, "Employee created") {
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Employee created")
			return nil
		},
	}
	addFormFlags(cmd)
	cmd.Flags().StringSliceVar(&courses, "course", nil, "course labels (MCA, BCA, BSc)")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var add, remove []string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCourses(append(append([]string(nil), add...), remove...)); err != nil {
				return err
			}
			id := args[0]
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			if err := p.BeginEdit(id); err != nil {
				return err
			}
			if err := applyFormFlags(cmd, p); err != nil {
				return err
			}
			for _, c := range remove {
				if err := p.ToggleCourse(c, false); err != nil {
					return err
				}
			}
			for _, c := range add {
				if err := p.ToggleCourse(c, true); err != nil {
					return err
				}
			}

			err = p.Submit(cmd.Context())
			if savedWithStaleList(cmd, err, "Employee updated") {
				return nil
			}
			var partial *pipeline.PartialFailureError
			if errors.As(err, &partial) {
				return fmt.Errorf("%w; courses are now empty, re-run edit to restore them", err)
			}
			if err != nil {
				return err
			}

			for _, e := range p.Records() {
				if e.ID == id {
					renderEmployee(cmd.OutOrStdout(), e)
				}
			}
			return nil
		},
	}
	addFormFlags(cmd)
	cmd.Flags().StringSliceVar(&add, "add-course", nil, "course labels to add")
	cmd.Flags().StringSliceVar(&remove, "remove-course", nil, "course labels to remove")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete an employee",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			if err := p.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Employee deleted")
			return nil
		},
	}
}
