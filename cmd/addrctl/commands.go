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

	"github.com/address-simplifier/app/bootstrap"
	"github.com/address-simplifier/app/config"
	"github.com/address-simplifier/internal/normalizer"
	"github.com/address-simplifier/internal/oracle"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sessionFactory opens lookup sessions; nil means headless Chrome
var sessionFactory oracle.SessionFactory

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "addrctl",
		Short: "Taoyuan address simplifier tools",
		Long: `addrctl runs the address simplification pipeline from the command line.

Addresses are read from the arguments, or one per line from stdin when no
argument is given.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config/app.yaml when present)")

	root.AddCommand(newSimplifyCmd(), newLookupCmd(&cfgFile))
	return root
}

func newSimplifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simplify [address...]",
		Short: "Split and format addresses without looking them up",
		Example: `  addrctl simplify 桃園市中壢區過嶺里5鄰中山路1-2號3樓
  cat addresses.txt | addrctl simplify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := readAddresses(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			n := normalizer.Default()
			rows := make([][]string, 0, len(addresses))
			for _, a := range addresses {
				split := n.SimplifyAddress(a)
				rows = append(rows, []string{
					split.Original,
					split.Shortened,
					split.Suffix,
					n.FormatSimplifiedAddress(split.Shortened),
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"原始地址", "簡化地址", "後綴", "格式化"}, rows)
			return nil
		},
	}
}

func newLookupCmd(cfgFile *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "lookup [address...]",
		Short: "Look addresses up on the government site",
		Long: `lookup runs the full pipeline, including the lookup on the government
address site through a headless browser, one address after another.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := readAddresses(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			// sessions open on the first lookup
			cfg.Oracle.WarmUp = false

			logger, err := bootstrap.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, cfg, logger, sessionFactory)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := app.Close(closeCtx); err != nil {
					logger.Warn("Failed to release resources", zap.Error(err))
				}
			}()

			rows := make([][]string, 0, len(addresses))
			for _, a := range addresses {
				reqCtx, cancel := context.WithTimeout(ctx, timeout)
				result, err := app.AddressService.SearchAddress(reqCtx, a)
				cancel()
				if err != nil {
					rows = append(rows, []string{a, "", "", "error: " + err.Error()})
					continue
				}
				rows = append(rows, []string{a, result.SimplifiedAddress, result.FormattedSimplifiedAddress, result.Status})
			}
			writeTable(cmd.OutOrStdout(), []string{"原始地址", "簡化地址", "格式化", "狀態"}, rows)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "timeout per address")
	return cmd
}

// readAddresses returns args, or the non-blank lines of in when args is empty
func readAddresses(args []string, in io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var addresses []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			addresses = append(addresses, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("no address given")
	}
	return addresses, nil
}

// writeTable prints rows aligned on display width, so Han text lines up
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = normalizer.VisualWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], normalizer.VisualWidth(cell))
		}
	}

	line := func(cells []string) {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = normalizer.PadText(c, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	}

	line(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}
