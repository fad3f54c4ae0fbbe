package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"launchpad/internal/ai"
	"launchpad/internal/config"
	"launchpad/internal/db"
	"launchpad/internal/domain"
	"launchpad/internal/engine"
	"launchpad/internal/jira"
	"launchpad/internal/launch"
	"launchpad/internal/migrate"
	"launchpad/internal/repo"
	"launchpad/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Launchpad CLI",
	Long: `Launchpad tracks cross-team initiatives from idea to Jira.
An initiative starts as a draft with a title, description, and objectives.
Generation enriches it with a team mapping, a one-pager, a task breakdown,
and a complexity estimate; launching files one Jira ticket per task (or per
team) and records the results. Teams live in a local catalog seeded with
the usual suspects (Frontend, Backend, QA, ...) and carry the Jira project
code used at launch time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initViper)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initViper() {
	viper.SetEnvPrefix("LAUNCHPAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initiativeCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(repairCmd())
	rootCmd.AddCommand(jiraCmd())
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default launchpad.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e, jc := buildEngine(conn, cfg, log)
			var checker server.JiraChecker
			if jc != nil {
				checker = jc
			}
			handler, err := server.New(server.Config{Engine: e, Jira: checker, BasePath: basePath})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Launchpad API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config host:port)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

func initiativeCmd() *cobra.Command {
	ini := &cobra.Command{
		Use:   "initiative",
		Short: "Manage initiatives",
		Long:  "Initiatives flow draft -> analyzing -> ready -> launched -> completed, with cancelled as an exit. Generation needs a draft; launching needs a ready initiative with team assignments.",
	}
	ini.AddCommand(initiativeCreateCmd())
	ini.AddCommand(initiativeListCmd())
	ini.AddCommand(initiativeShowCmd())
	ini.AddCommand(initiativeUpdateCmd())
	ini.AddCommand(initiativeDeleteCmd())
	ini.AddCommand(initiativeGenerateCmd())
	ini.AddCommand(initiativeLaunchCmd())
	ini.AddCommand(initiativeDashboardCmd())
	return ini
}

func initiativeCreateCmd() *cobra.Command {
	var title, description string
	var objectives []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an initiative",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.CreateInitiative(ctx, title, description, objectives)
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringArrayVar(&objectives, "objective", []string{}, "objective (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func initiativeListCmd() *cobra.Command {
	var f repo.InitiativeFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List initiatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListInitiatives(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Teams", "Tasks", "Tickets"})
				for _, in := range items {
					tw.AppendRow(table.Row{
						in.ID, in.Title, in.Status,
						strings.Join(in.TeamAssignments, ","),
						len(in.TaskBreakdown), len(in.CreatedTickets),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max results")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "results offset")
	return cmd
}

func initiativeShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an initiative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.GetInitiative(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	return cmd
}

func initiativeUpdateCmd() *cobra.Command {
	var title, description, status, onePager string
	var objectives []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an initiative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := repo.InitiativeUpdate{}
			if cmd.Flags().Changed("title") {
				u.Title = &title
			}
			if cmd.Flags().Changed("description") {
				u.Description = &description
			}
			if cmd.Flags().Changed("objective") {
				u.Objectives = objectives
			}
			if cmd.Flags().Changed("one-pager") {
				u.OnePager = &onePager
			}
			if cmd.Flags().Changed("status") {
				st, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}
				u.Status = &st
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.UpdateInitiative(ctx, args[0], u)
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringArrayVar(&objectives, "objective", []string{}, "objective (repeatable, replaces all)")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&onePager, "one-pager", "", "one-pager markdown")
	return cmd
}

func initiativeDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an initiative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.DeleteInitiative(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %s (%s)\n", in.ID, in.Title)
				return nil
			})
		},
	}
	return cmd
}

func initiativeGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <id>",
		Short: "Generate planning artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.GenerateArtifacts(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
		Args: cobra.ExactArgs(1),
	}
	return cmd
}

func initiativeLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <id>",
		Short: "Create Jira tickets for a ready initiative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Launch(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Launched %s: %d tickets (%d ok, %d failed)\n",
					res.Initiative.Title, res.Summary.Total, res.Summary.Successful, res.Summary.Failed)
				for _, tk := range res.Tickets {
					if tk.Success {
						fmt.Printf("  %s: %s %s\n", tk.Team, tk.TicketKey, tk.TicketURL)
					} else {
						fmt.Printf("  %s: FAILED %s\n", tk.Team, tk.Error)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func initiativeDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard <id>",
		Short: "Show initiative dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.GetDashboard(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	return cmd
}

func teamCmd() *cobra.Command {
	team := &cobra.Command{
		Use:   "team",
		Short: "Manage the team catalog",
	}
	team.AddCommand(teamListCmd())
	team.AddCommand(teamAddCmd())
	team.AddCommand(teamUpdateCmd())
	team.AddCommand(teamDeleteCmd())
	team.AddCommand(teamStatsCmd())
	return team
}

func teamListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				teams, err := e.ListTeams(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(teams)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "PM", "TL", "EM", "Jira", "Slack"})
				for _, t := range teams {
					tw.AppendRow(table.Row{t.ID, t.TeamName, t.PM, t.TL, t.EM, t.JiraProjectCode, t.SlackChannel})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func teamAddCmd() *cobra.Command {
	var t domain.Team
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateTeam(ctx, t)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&t.TeamName, "name", "", "team name")
	cmd.Flags().StringVar(&t.PM, "pm", "", "product manager")
	cmd.Flags().StringVar(&t.PMEmail, "pm-email", "", "product manager email")
	cmd.Flags().StringVar(&t.TL, "tl", "", "tech lead")
	cmd.Flags().StringVar(&t.TLEmail, "tl-email", "", "tech lead email")
	cmd.Flags().StringVar(&t.EM, "em", "", "engineering manager")
	cmd.Flags().StringVar(&t.EMEmail, "em-email", "", "engineering manager email")
	cmd.Flags().StringVar(&t.JiraProjectCode, "jira-code", "", "Jira project code")
	cmd.Flags().StringVar(&t.SlackChannel, "slack", "", "Slack channel")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func teamUpdateCmd() *cobra.Command {
	var name, pm, pmEmail, tl, tlEmail, em, emEmail, jiraCode, slack string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid team id %q", args[0])
			}
			u := repo.TeamUpdate{}
			set := func(flag string, dst **string, val *string) {
				if cmd.Flags().Changed(flag) {
					*dst = val
				}
			}
			set("name", &u.TeamName, &name)
			set("pm", &u.PM, &pm)
			set("pm-email", &u.PMEmail, &pmEmail)
			set("tl", &u.TL, &tl)
			set("tl-email", &u.TLEmail, &tlEmail)
			set("em", &u.EM, &em)
			set("em-email", &u.EMEmail, &emEmail)
			set("jira-code", &u.JiraProjectCode, &jiraCode)
			set("slack", &u.SlackChannel, &slack)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTeam(ctx, id, u)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "team name")
	cmd.Flags().StringVar(&pm, "pm", "", "product manager")
	cmd.Flags().StringVar(&pmEmail, "pm-email", "", "product manager email")
	cmd.Flags().StringVar(&tl, "tl", "", "tech lead")
	cmd.Flags().StringVar(&tlEmail, "tl-email", "", "tech lead email")
	cmd.Flags().StringVar(&em, "em", "", "engineering manager")
	cmd.Flags().StringVar(&emEmail, "em-email", "", "engineering manager email")
	cmd.Flags().StringVar(&jiraCode, "jira-code", "", "Jira project code")
	cmd.Flags().StringVar(&slack, "slack", "", "Slack channel")
	return cmd
}

func teamDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid team id %q", args[0])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.DeleteTeam(ctx, id)
				if err != nil {
					return err
				}
				fmt.Printf("Deleted team %s\n", t.TeamName)
				return nil
			})
		},
	}
	return cmd
}

func teamStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show team workload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid team id %q", args[0])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.TeamStats(ctx, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("%s: %d initiatives, %d tasks, %d estimated hours\n",
					s.Team.TeamName, s.InitiativeCount, s.TaskCount, s.EstimatedHours)
				return nil
			})
		},
	}
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Initiative counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts, err := e.StatusCounts(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				for status, c := range counts {
					fmt.Printf("%s: %d\n", status, c)
				}
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, initiativeID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, initiativeID, evtType)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&initiativeID, "initiative", "", "initiative id filter")
	return cmd
}

func repairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair corrupted stored fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				count, err := e.Repair(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Repaired %d initiative(s)\n", count)
				return nil
			})
		},
	}
	return cmd
}

func jiraCmd() *cobra.Command {
	j := &cobra.Command{
		Use:   "jira",
		Short: "Jira integration",
	}
	j.AddCommand(jiraCheckCmd())
	return j
}

func jiraCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify Jira credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if cfg.Jira.Host == "" {
				return fmt.Errorf("jira is not configured; set JIRA_HOST, JIRA_USERNAME, JIRA_API_TOKEN")
			}
			jc := jira.NewClient(cfg.Jira.Host, cfg.Jira.Username, cfg.Jira.APIToken, nil)
			user, err := jc.CheckAuth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Connected to %s as %s\n", cfg.Jira.Host, user)
			return nil
		},
	}
	return cmd
}

// --- helpers ---

func buildEngine(conn *sql.DB, cfg *config.Config, log *zap.Logger) (engine.Engine, *jira.Client) {
	gen := ai.NewGenerator(ai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout, log), log)
	var jc *jira.Client
	var creator launch.TicketCreator
	var tickets engine.TicketStatusGetter
	if cfg.Jira.Host != "" {
		jc = jira.NewClient(cfg.Jira.Host, cfg.Jira.Username, cfg.Jira.APIToken, log)
		creator = jc
		tickets = jc
	}
	launcher := launch.New(creator, cfg.Launch.TicketDelay, log)
	return engine.New(conn, cfg, gen, launcher, tickets, log), jc
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	e, _ := buildEngine(conn, cfg, zap.NewNop())
	return fn(ctx, e)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
