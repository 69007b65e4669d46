package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-prolific/prolific"
)

// withSession opens a session for the duration of fn.
func withSession(env *Env, flags *globalFlags, fn func(*session) error) error {
	sess, err := openSession(env, flags)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}

func listCmd(short string, run func(cmd *cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
}

func workspacesCmd(env *Env, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "workspaces", Short: "Workspaces visible to the token"}
	cmd.AddCommand(listCmd("List workspaces", func(c *cobra.Command) error {
		return withSession(env, flags, func(s *session) error {
			workspaces, err := s.svc.ListWorkspaces(c.Context())
			if err != nil {
				return err
			}
			return newPrinter(env.Stdout, flags.output).table(workspaces,
				[]string{"ID", "TITLE"}, workspaceRows(workspaces))
		})
	}))
	return cmd
}

func projectsCmd(env *Env, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Projects in a workspace"}
	cmd.AddCommand(listCmd("List projects in the workspace", func(c *cobra.Command) error {
		return withSession(env, flags, func(s *session) error {
			projects, err := s.svc.ListProjects(c.Context(), "")
			if err != nil {
				return err
			}
			return newPrinter(env.Stdout, flags.output).table(projects,
				[]string{"ID", "TITLE", "USERS", "CREATED"}, projectRows(projects))
		})
	}))
	return cmd
}

func studiesCmd(env *Env, flags *globalFlags) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{Use: "studies", Short: "Studies in a workspace or project"}
	list := listCmd("List studies", func(c *cobra.Command) error {
		return withSession(env, flags, func(s *session) error {
			studies, err := s.svc.ListStudies(c.Context(), prolific.StudyListOptions{
				ProjectID:   projectID,
				WorkspaceID: s.cfg.WorkspaceID,
			})
			if err != nil {
				return err
			}
			return newPrinter(env.Stdout, flags.output).table(studies,
				[]string{"ID", "NAME", "STATUS", "PLACES"}, studyRows(studies))
		})
	})
	list.Flags().StringVarP(&projectID, "project", "p", "", "only studies of this project")
	cmd.AddCommand(list)
	return cmd
}

func filtersCmd(env *Env, flags *globalFlags) *cobra.Command {
	var tag string
	cmd := &cobra.Command{Use: "filters", Short: "Recruiting filters and filter sets"}
	list := listCmd("List recruiting filters", func(c *cobra.Command) error {
		return withSession(env, flags, func(s *session) error {
			var (
				filters []prolific.Filter
				err     error
			)
			if tag != "" {
				filters, err = s.svc.FindFiltersByTag(c.Context(), "", tag)
			} else {
				filters, err = s.svc.ListFilters(c.Context(), "")
			}
			if err != nil {
				return err
			}
			return newPrinter(env.Stdout, flags.output).table(filters,
				[]string{"ID", "TITLE", "TAG", "TYPE"}, filterRows(filters))
		})
	})
	list.Flags().StringVarP(&tag, "tag", "t", "", "only filters with this tag")

	sets := listCmd("List filter sets", func(c *cobra.Command) error {
		return withSession(env, flags, func(s *session) error {
			sets, err := s.svc.ListFilterSets(c.Context(), "")
			if err != nil {
				return err
			}
			return newPrinter(env.Stdout, flags.output).table(sets,
				[]string{"ID", "NAME", "VERSION", "FILTERS"}, filterSetRows(sets))
		})
	})
	sets.Use = "sets"

	cmd.AddCommand(list, sets)
	return cmd
}

func overviewCmd(env *Env, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Projects, studies and filter sets of the workspace at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(env, flags, func(s *session) error {
				return runOverview(cmd.Context(), env, flags, s)
			})
		},
	}
}

func runOverview(ctx context.Context, env *Env, flags *globalFlags, s *session) error {
	ov, err := s.svc.Overview(ctx, "")
	if err != nil {
		return err
	}
	p := newPrinter(env.Stdout, flags.output)
	if flags.output == outputJSON {
		return p.json(ov)
	}
	p.section(fmt.Sprintf("Workspace %s", ov.WorkspaceID))
	p.section(fmt.Sprintf("Projects (%d)", len(ov.Projects)))
	if err := p.table(ov.Projects, []string{"ID", "TITLE", "USERS", "CREATED"}, projectRows(ov.Projects)); err != nil {
		return err
	}
	p.section(fmt.Sprintf("Studies (%d)", len(ov.Studies)))
	if err := p.table(ov.Studies, []string{"ID", "NAME", "STATUS", "PLACES"}, studyRows(ov.Studies)); err != nil {
		return err
	}
	p.section(fmt.Sprintf("Filter sets (%d)", len(ov.FilterSets)))
	return p.table(ov.FilterSets, []string{"ID", "NAME", "VERSION", "FILTERS"}, filterSetRows(ov.FilterSets))
}

func workspaceRows(workspaces []prolific.Workspace) [][]string {
	rows := make([][]string, 0, len(workspaces))
	for _, w := range workspaces {
		rows = append(rows, []string{w.ID, w.Title})
	}
	return rows
}

func projectRows(projects []prolific.Project) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Title, strconv.Itoa(len(p.Users)), p.CreatedAt})
	}
	return rows
}

func studyRows(studies []prolific.Study) [][]string {
	rows := make([][]string, 0, len(studies))
	for _, s := range studies {
		places := fmt.Sprintf("%d/%d", s.PlacesTaken, s.TotalAvailablePlaces)
		rows = append(rows, []string{s.ID, s.Name, string(s.Status), places})
	}
	return rows
}

func filterRows(filters []prolific.Filter) [][]string {
	rows := make([][]string, 0, len(filters))
	for _, f := range filters {
		rows = append(rows, []string{f.ID, f.Title, f.FilterTag, f.Type})
	}
	return rows
}

func filterSetRows(sets []prolific.FilterSet) [][]string {
	rows := make([][]string, 0, len(sets))
	for _, fs := range sets {
		rows = append(rows, []string{fs.ID, fs.Name, strconv.Itoa(fs.Version), strconv.Itoa(len(fs.Filters))})
	}
	return rows
}
