package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"refcommission/internal"
	"refcommission/internal/config"
	"refcommission/internal/logging"
	"refcommission/internal/pipeline"
	"refcommission/internal/server"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	processor := pipeline.NewProcessingService(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		referrals := fs.String("referrals", "", "referral xlsx/xls path")
		transactions := fs.String("transactions", "", "transaction xlsx/xls path")
		output := fs.String("output", "", "output xlsx path (default OUTPUT_DIR/OUTPUT_FILENAME)")
		_ = fs.Parse(os.Args[2:])
		if *referrals == "" || *transactions == "" {
			must(fmt.Errorf("--referrals and --transactions are required"))
		}
		out := *output
		if strings.TrimSpace(out) == "" {
			out = cfg.OutputPath()
		}

		result := calculate(ctx, processor, *referrals, *transactions)
		must(pipeline.ExportToXLSXFile(result, cfg.OutputSheet, out))
		fmt.Printf("run done rows=%d matched=%d output=%s\n", len(result.Rows), result.Matched, out)
	case "preview":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		referrals := fs.String("referrals", "", "referral xlsx/xls path")
		transactions := fs.String("transactions", "", "transaction xlsx/xls path")
		rows := fs.Int("rows", cfg.PreviewRows, "rows to print")
		_ = fs.Parse(os.Args[2:])
		if *referrals == "" || *transactions == "" {
			must(fmt.Errorf("--referrals and --transactions are required"))
		}

		result := calculate(ctx, processor, *referrals, *transactions)
		must(printPreview(os.Stdout, result, *rows))
	case "serve":
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.New(cfg, logger, processor).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			must(err)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func calculate(ctx context.Context, processor *pipeline.ProcessingService, referralPath, transactionPath string) internal.CommissionResult {
	referral, err := readInput(referralPath)
	must(err)
	transaction, err := readInput(transactionPath)
	must(err)

	result, err := processor.Calculate(ctx, referral, transaction)
	must(err)
	return result
}

func readInput(path string) (internal.SpreadsheetInput, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.SpreadsheetInput{}, err
	}
	return internal.SpreadsheetInput{Name: filepath.Base(path), Content: blob}, nil
}

func printPreview(w io.Writer, result internal.CommissionResult, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Headers, "\t"))
	for _, row := range pipeline.PreviewRows(result, limit) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "rows=%d matched=%d unmatched=%d\n", len(result.Rows), result.Matched, result.Unmatched)
	return err
}

func usage() {
	fmt.Println("usage: refcommission <command>")
	fmt.Println("commands:")
	fmt.Println("  run --referrals=referral.xlsx --transactions=transactions.xlsx [--output=./out/result.xlsx]")
	fmt.Println("  preview --referrals=referral.xlsx --transactions=transactions.xlsx [--rows=20]")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
