package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moyoez/batchupload/api"
	"github.com/moyoez/batchupload/api/notifyhub"
	"github.com/moyoez/batchupload/notify"
	"github.com/moyoez/batchupload/session"
	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/transfer"
	"github.com/moyoez/batchupload/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	if err := tool.ValidateConfig(appCfg); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(cfg.Mode) {
	case "serve":
		err = runServe(ctx, cfg, appCfg)
	case "send":
		err = runSend(ctx, cfg, appCfg)
	default:
		err = fmt.Errorf("unknown mode %q (want serve or send)", cfg.Mode)
	}
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
}

// runServe runs the intake endpoint until interrupted or "q" is typed.
func runServe(ctx context.Context, cfg types.Config, appCfg types.AppConfig) error {
	receiptTTL, err := tool.ParseDuration(appCfg.ReceiptTTL)
	if err != nil {
		return fmt.Errorf("invalid receiptTTL: %w", err)
	}
	engine := api.NewIntakeEngine(api.IntakeOptions{
		FieldName:      appCfg.FieldName,
		MaxUploadBytes: appCfg.MaxUploadBytes,
		ReceiptTTL:     receiptTTL,
	})
	server := api.NewServer("intake", appCfg.ListenPort, engine)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	intakeURL := tool.IntakeURL(appCfg.ListenPort)
	tool.DefaultLogger.Infof("Server is running on %s", intakeURL)
	if cfg.UseQRCode {
		if qr, err := tool.TerminalQRCode(intakeURL); err != nil {
			tool.DefaultLogger.Warnf("%v", err)
		} else {
			fmt.Println(qr)
		}
	}

	quit := make(chan struct{})
	if !cfg.SkipStdinCommands {
		go readCommands(os.Stdin, func(command string) bool {
			switch command {
			case "h":
				fmt.Println("c - clear")
				fmt.Println("q - quit")
				fmt.Println("h - help")
			case "c":
				fmt.Print("\033[H\033[2J")
			case "q":
				close(quit)
				return false
			}
			return true
		})
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case <-quit:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runSend uploads the files named on the command line as one batch.
func runSend(ctx context.Context, cfg types.Config, appCfg types.AppConfig) error {
	policy, err := session.ParsePolicy(appCfg.Policy)
	if err != nil {
		return err
	}
	throttle, err := tool.ParseDuration(appCfg.Throttle)
	if err != nil {
		return fmt.Errorf("invalid throttle: %w", err)
	}
	timeout, err := tool.ParseDuration(appCfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid requestTimeout: %w", err)
	}

	client := transfer.NewClient(appCfg.Endpoint,
		transfer.WithHTTPClient(tool.NewHTTPClient(timeout)),
		transfer.WithFieldName(appCfg.FieldName),
	)

	dispatcher := notify.NewDispatcher(appCfg.NotifySocket)
	var hub *notifyhub.Hub
	if appCfg.ControlPort > 0 {
		hub = notifyhub.New()
		dispatcher.SetHub(hub)
	}

	sess := session.New(client,
		session.WithPolicy(policy),
		session.WithThrottle(throttle),
		session.WithNotifier(dispatcher),
		session.WithListener(func(snap session.Snapshot) {
			tool.DefaultLogger.Debugf("[Session] %s %d/%d", snap.State, snap.Completed, snap.Total())
			if hub != nil {
				hub.Broadcast(api.SnapshotNotification(snap))
			}
		}),
	)
	defer dispatcher.Flush()

	for _, arg := range cfg.Files {
		path, err := tool.PathFromFileURL(arg)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		file, err := transfer.FileFromPath(path)
		if err != nil {
			return err
		}
		if err := sess.Add(file); err != nil {
			return err
		}
	}

	var control *api.Server
	if appCfg.ControlPort > 0 {
		control = api.NewServer("control", appCfg.ControlPort, api.NewControlEngine(sess, hub))
		go func() {
			if err := control.Start(); err != nil {
				tool.DefaultLogger.Errorf("%v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = control.Shutdown(shutdownCtx)
		}()
	}

	if len(cfg.Files) == 0 && control == nil {
		return fmt.Errorf("no files to send")
	}
	if len(cfg.Files) > 0 {
		tool.DefaultLogger.Infof("Uploading %d files to %s", len(cfg.Files), client.Endpoint())
		if err := sess.Start(); err != nil {
			return err
		}
	}

	quit := make(chan struct{})
	if !cfg.SkipStdinCommands {
		go readCommands(os.Stdin, func(command string) bool {
			switch command {
			case "h":
				fmt.Println("c - cancel")
				fmt.Println("r - retry")
				fmt.Println("s - status")
				fmt.Println("q - close and quit")
				fmt.Println("h - help")
			case "c":
				sess.Cancel()
			case "r":
				if err := sess.Retry(); err != nil {
					tool.DefaultLogger.Warnf("Retry: %v", err)
				}
			case "s":
				snap := sess.Snapshot()
				fmt.Printf("%s %d/%d (%.0f%%) %s\n", snap.State, snap.Completed, snap.Total(), snap.Progress()*100, snap.LastError)
			case "q":
				close(quit)
				return false
			}
			return true
		})
	}

	// Without a control API or stdin there is nobody to retry: finish with the first attempt.
	if control == nil && cfg.SkipStdinCommands {
		select {
		case <-sess.Done():
		case <-ctx.Done():
			sess.Close()
		}
		return sess.Wait()
	}

	select {
	case <-ctx.Done():
	case <-quit:
	}
	sess.Close()
	_ = sess.Wait()
	return nil
}

// readCommands feeds trimmed stdin lines to handle until it returns false.
func readCommands(r io.Reader, handle func(command string) bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !handle(strings.TrimSpace(scanner.Text())) {
			return
		}
	}
}
