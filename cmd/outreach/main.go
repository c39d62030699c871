// Command outreach runs the cold-lead pipeline once from the command line.
//
//	outreach sync          enroll last month's leads
//	outreach send [N]      send up to N pending messages
//	outreach run [N]       sync if nothing is pending, then send
//	outreach retry [N]     move up to N failed entries back to pending
//	outreach stats         print queue counts
//	outreach enqueue [N]   hand a run to the scheduler worker
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"coldlead_backend/internal/bootstrap"
	"coldlead_backend/internal/scheduler"
	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const usage = `usage: outreach <command> [N]

commands:
  sync          enroll last month's leads into the queue
  send [N]      send up to N pending messages (default OUTREACH_BATCH_SIZE)
  run [N]       sync when nothing is pending, then send up to N
  retry [N]     move up to N failed entries back to pending
  stats         print the number of entries per status
  enqueue [N]   queue a run for the scheduler worker
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := run(flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	cmd := args[0]
	limit, err := parseLimit(args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == "enqueue" {
		return enqueue(ctx, cfg, limit, out)
	}

	pipeline, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pipeline.Close()
	ctrl := pipeline.Controller

	switch cmd {
	case "sync":
		summary, err := ctrl.Sync(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, summary)
	case "send":
		return printJSON(out, ctrl.Send(ctx, limit))
	case "run":
		summary, err := ctrl.Run(ctx, limit)
		if err != nil {
			return err
		}
		return printJSON(out, summary)
	case "retry":
		return printJSON(out, ctrl.Retry(ctx, limit))
	case "stats":
		return printJSON(out, ctrl.Stats(ctx))
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func enqueue(ctx context.Context, cfg config.SchedulerConfig, limit int, out io.Writer) error {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	id, err := client.EnqueueRun(ctx, scheduler.OutreachRunPayload{Limit: limit, Trigger: "cli"})
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return errors.New("a run is already queued")
	}
	if err != nil {
		return err
	}
	return printJSON(out, map[string]string{"taskId": id})
}

// parseLimit reads the optional batch size. Zero means the configured default.
func parseLimit(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("batch size must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
