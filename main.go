package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"

	"github.com/scrossle/claude-subconscious/core/conversations"
	"github.com/scrossle/claude-subconscious/core/state"
	syncengine "github.com/scrossle/claude-subconscious/core/sync"
	"github.com/scrossle/claude-subconscious/pkg/config"
	"github.com/scrossle/claude-subconscious/pkg/remote"
	"github.com/scrossle/claude-subconscious/pkg/utils"
)

// hookPayload is the optional JSON the host process writes on stdin at each
// lifecycle checkpoint
type hookPayload struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	CWD       string `json:"cwd"`
}

// readHookPayload waits briefly for input. Input is optional: the host may
// pipe a payload or nothing at all, so after the bounded wait we proceed
// with defaults rather than blocking the checkpoint.
func readHookPayload(r io.Reader) hookPayload {
	var payload hookPayload

	done := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(r)
		done <- data
	}()

	select {
	case data := <-done:
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				xlog.Debug("Ignoring unparseable hook payload", "error", err)
			}
		}
	case <-time.After(100 * time.Millisecond):
	}

	return payload
}

// stdoutEmitter prints the delta payload for the host to consume
type stdoutEmitter struct{}

func (stdoutEmitter) Emit(d *syncengine.Delta) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: subconscious <session-start|pre-action|post-prompt|watch|notify-worker> [args]")
		os.Exit(2)
	}
	command := os.Args[1]

	cfg := config.Load()
	if !cfg.Enabled() {
		// not configured: the checkpoint proceeds as if we did not exist
		xlog.Debug("Sync not configured, skipping")
		return
	}

	payload := readHookPayload(os.Stdin)

	cwd := payload.CWD
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = os.Getenv("SUBCONSCIOUS_SESSION_ID")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		xlog.Debug("No session id supplied, generated one", "session", sessionID)
	}

	client := remote.NewClient(cfg.APIURL, cfg.APIKey, cfg.Timeout)
	store := state.NewStore(cfg.StateDir, utils.ProjectScope(cwd))
	resolver := conversations.NewResolver(store.Bindings(), client)
	orchestrator := syncengine.NewOrchestrator(client, store, resolver, stdoutEmitter{}, cfg.AgentID, cfg.MessageLimit)

	ctx := context.Background()

	switch command {
	case "session-start", "pre-action":
		runSync(ctx, orchestrator, sessionID)
	case "post-prompt":
		if payload.Prompt != "" {
			spawnNotifyWorker(sessionID, cwd, payload.Prompt)
		}
		runSync(ctx, orchestrator, sessionID)
	case "watch":
		runWatch(ctx, cfg, orchestrator, sessionID)
	case "notify-worker":
		// internal: spawned detached by the post-prompt checkpoint, which
		// pipes the session and prompt on stdin
		if payload.SessionID != "" && payload.Prompt != "" {
			syncengine.NotifyEarly(ctx, client, store, resolver, payload.SessionID, cfg.AgentID, payload.Prompt)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", command)
		os.Exit(2)
	}
}

func runSync(ctx context.Context, orchestrator *syncengine.Orchestrator, sessionID string) {
	if err := orchestrator.Sync(ctx, sessionID); err != nil {
		// the checkpoint must never be blocked by a sync failure
		xlog.Error("Sync failed", "session", sessionID, "error", err)
		os.Exit(1)
	}
}

// runWatch re-syncs on a cron schedule until interrupted
func runWatch(ctx context.Context, cfg *config.Config, orchestrator *syncengine.Orchestrator, sessionID string) {
	c := cron.New()
	_, err := c.AddFunc(cfg.WatchSchedule, func() {
		if err := orchestrator.Sync(ctx, sessionID); err != nil {
			xlog.Error("Scheduled sync failed", "session", sessionID, "error", err)
		}
	})
	if err != nil {
		xlog.Error("Invalid watch schedule", "schedule", cfg.WatchSchedule, "error", err)
		os.Exit(1)
	}

	xlog.Info("Watching", "session", sessionID, "schedule", cfg.WatchSchedule)
	if err := orchestrator.Sync(ctx, sessionID); err != nil {
		xlog.Error("Initial sync failed", "session", sessionID, "error", err)
	}
	c.Start()
	select {}
}

// workerHandoff builds the argv and stdin payload for the detached worker.
// The prompt travels on stdin only: argv shows up in the process table and
// is subject to OS argument-length limits.
func workerHandoff(sessionID, cwd, prompt string) ([]string, []byte, error) {
	data, err := json.Marshal(hookPayload{SessionID: sessionID, Prompt: prompt, CWD: cwd})
	if err != nil {
		return nil, nil, err
	}
	return []string{"notify-worker"}, data, nil
}

// spawnNotifyWorker hands the prompt to a detached copy of this binary. The
// worker owns its own failure domain: it is never awaited and its exit is
// never observed.
func spawnNotifyWorker(sessionID, cwd, prompt string) {
	self, err := os.Executable()
	if err != nil {
		xlog.Debug("Cannot locate own binary, skipping early notify", "error", err)
		return
	}

	args, payload, err := workerHandoff(sessionID, cwd, prompt)
	if err != nil {
		xlog.Debug("Failed to build worker payload", "error", err)
		return
	}

	cmd := exec.Command(self, args...)
	cmd.Dir = cwd
	cmd.Stdout = nil
	cmd.Stderr = nil
	stdin, err := cmd.StdinPipe()
	if err != nil {
		xlog.Debug("Failed to open worker stdin", "error", err)
		return
	}
	if err := cmd.Start(); err != nil {
		xlog.Debug("Failed to spawn notify worker", "error", err)
		return
	}
	if _, err := stdin.Write(payload); err != nil {
		xlog.Debug("Failed to hand off prompt to worker", "error", err)
	}
	stdin.Close()
	_ = cmd.Process.Release()
}
