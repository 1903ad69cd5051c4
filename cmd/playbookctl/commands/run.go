package commands

import (
	"context"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chelnak/ysmrr"
	"github.com/fatih/structs"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/buildbeaver/playbook/internal/config"
	"github.com/buildbeaver/playbook/internal/gerror"
	"github.com/buildbeaver/playbook/internal/ids"
	"github.com/buildbeaver/playbook/internal/loader"
	"github.com/buildbeaver/playbook/internal/logger"
	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/workflow"
)

var (
	flagWorkflow string
	flagDeadline time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <FILE>",
	Short: "Load and run a playbook document",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybook,
}

func init() {
	runCmd.Flags().StringVar(&flagWorkflow, "workflow", "", "run only the named workflow (default: run every workflow concurrently)")
	runCmd.Flags().DurationVar(&flagDeadline, "deadline", 0, "override the per-workflow execution deadline (default: from config)")
}

// workflowOutcome is one workflow's final disposition, projected into
// logrus fields via fatih/structs for the closing structured log line,
// the same struct-to-Fields idiom the teacher's templates.go uses to
// turn a static Go struct into a map for templating.
type workflowOutcome struct {
	Workflow string `structs:"workflow"`
	Status   string `structs:"status"`
	Duration string `structs:"duration"`
	Error    string `structs:"error,omitempty"`
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return failWith(1, fmt.Errorf("loading configuration: %w", err))
	}

	logRegistry, err := logger.NewLogRegistry(logger.LogLevelConfig(fmt.Sprintf("cli=%s,workflow=%s,job=%s", cfg.LogLevel, cfg.LogLevel, cfg.LogLevel)))
	if err != nil {
		return failWith(1, fmt.Errorf("configuring logging: %w", err))
	}
	logFactory := logger.MakeLogrusLogFactoryStdOut(logRegistry)
	log := logFactory("cli")

	pb, err := loader.LoadFile(args[0])
	if err != nil {
		log.WithField("error", err).Error("failed to load playbook")
		return failWith(1, err)
	}

	targets, err := selectWorkflows(pb, flagWorkflow)
	if err != nil {
		return failWith(1, err)
	}

	deadline := cfg.Deadline
	if flagDeadline > 0 {
		deadline = flagDeadline
	}

	useColor := !cfg.NoColor && os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(os.Stdout.Fd())
	var spinnerManager ysmrr.SpinnerManager
	spinners := make(map[ids.WorkflowName]*ysmrr.Spinner)
	if useColor {
		spinnerManager = ysmrr.NewSpinnerManager()
		for name := range targets {
			spinners[name] = spinnerManager.AddSpinner(fmt.Sprintf("workflow %s", name))
		}
		spinnerManager.Start()
	}

	pctx := playbook.NewContext(&pb.Setup)

	type result struct {
		name     ids.WorkflowName
		duration time.Duration
		err      error
	}
	results := make(chan result, len(targets))
	var wg sync.WaitGroup
	for name, wfConfig := range targets {
		wg.Add(1)
		go func(name ids.WorkflowName, wfConfig playbook.WorkflowConfig) {
			defer wg.Done()
			scheduler := workflow.NewScheduler(
				workflow.WithDeadline(deadline),
				workflow.WithLogFactory(logFactory),
			)
			start := time.Now()
			_, err := scheduler.Execute(context.Background(), name, wfConfig, pb.Jobs, pctx)
			elapsed := time.Since(start)

			if spinner, ok := spinners[name]; ok {
				if err != nil {
					spinner.Error()
				} else {
					spinner.Complete()
				}
			}
			results <- result{name: name, duration: elapsed, err: err}
		}(name, wfConfig)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]workflowOutcome, 0, len(targets))
	var failed bool
	for r := range results {
		outcome := workflowOutcome{
			Workflow: r.name.String(),
			Status:   "succeeded",
			Duration: r.duration.Round(time.Millisecond).String(),
		}
		if r.err != nil {
			failed = true
			outcome.Status = "failed"
			outcome.Error = r.err.Error()
		}
		outcomes = append(outcomes, outcome)
		log.WithFields(logger.Fields(structs.Map(outcome))).Info("workflow finished")
	}

	if useColor {
		spinnerManager.Stop()
	}

	printSummaryTable(cmd, outcomes)

	if failed {
		return failWith(2, gerror.New(gerror.CodeStepError, gerror.AudienceExternal, "one or more workflows failed"))
	}
	return nil
}

// selectWorkflows narrows a playbook's workflow map to the one named by
// --workflow, or returns the full map if the flag was omitted, per
// spec's "omitted, every workflow runs concurrently" rule.
func selectWorkflows(pb *playbook.Playbook, name string) (map[ids.WorkflowName]playbook.WorkflowConfig, error) {
	if name == "" {
		return pb.Workflows, nil
	}
	wfConfig, ok := pb.Workflows[ids.WorkflowName(name)]
	if !ok {
		return nil, gerror.New(gerror.CodeValidationJobNotDefined, gerror.AudienceExternal, "no such workflow in playbook").
			With("workflow", name)
	}
	return map[ids.WorkflowName]playbook.WorkflowConfig{ids.WorkflowName(name): wfConfig}, nil
}

func printSummaryTable(cmd *cobra.Command, outcomes []workflowOutcome) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKFLOW\tSTATUS\tDURATION\tERROR")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Workflow, o.Status, o.Duration, o.Error)
	}
	w.Flush()
}
