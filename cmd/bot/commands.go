package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SunshineSolar/internal/bot"
	"SunshineSolar/internal/config"
	"SunshineSolar/internal/httpapi"
	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/scheduler"

	"github.com/spf13/cobra"
)

var cfgPath string

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(runCmd, tickCmd, maintainCmd, showCmd)
}

var rootCmd = &cobra.Command{
	Use:           "sunshine",
	Short:         "Sunshine Solar idle game bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and run the accrual schedule (default)",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one generation pass against the ledger file and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := openLedger()
		if err != nil {
			return err
		}
		return printPass(cmd, store.RunGeneration())
	},
}

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run one maintenance pass against the ledger file and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := openLedger()
		if err != nil {
			return err
		}
		return printPass(cmd, store.RunMaintenance())
	},
}

var showCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Print one account's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openLedger()
		if err != nil {
			return err
		}
		acc, err := store.Status(args[0])
		if err != nil {
			return fmt.Errorf("show %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), bot.FormatStatus(acc.Name, acc, store.Rates(), cfg.Schedule.TicksPerDay))
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func openLedger() (*ledger.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	rates, err := cfg.BuildRates()
	if err != nil {
		return nil, nil, fmt.Errorf("build rates: %w", err)
	}
	store, _ := ledger.Open(cfg.Ledger.File, cfg.Ledger.SeedFile, rates)
	return store, cfg, nil
}

func printPass(cmd *cobra.Command, sum ledger.PassSummary) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s pass %s: %d accounts, %d skipped, took %s\n", sum.Job, sum.ID, sum.Accounts, sum.Skipped, sum.Duration)
	switch sum.Job {
	case scheduler.JobGeneration:
		fmt.Fprintf(out, "generated %s energy, paid %s fuel, %d fuel ticks skipped\n",
			bot.FormatEnergy(sum.Generated), bot.FormatMoney(sum.FuelPaid), sum.FuelSkipped)
	case scheduler.JobMaintenance:
		fmt.Fprintf(out, "collected %s maintenance\n", bot.FormatMoney(sum.Charged))
	}
	if sum.SaveErr != nil {
		return fmt.Errorf("pass not persisted: %w", sum.SaveErr)
	}
	return nil
}

func runBot(_ *cobra.Command, _ []string) error {
	log.Println("[INFO] Sunshine Solar starting...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	rates, err := cfg.BuildRates()
	if err != nil {
		return fmt.Errorf("build rates: %w", err)
	}

	store, _ := ledger.Open(cfg.Ledger.File, cfg.Ledger.SeedFile, rates)
	stats := bot.NewStats(time.Now())

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(store)
	sched.OnPass = stats.ObservePass
	if err := sched.RegisterAll(cfg.Schedule.Generation, cfg.Schedule.Maintenance); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing generation pass now")
		go sched.RunGenerationNow()
	}

	handler := bot.NewHandler(store, stats, bot.Options{
		Prefix:        cfg.Discord.Prefix,
		TicksPerDay:   cfg.Schedule.TicksPerDay,
		RatePerSecond: cfg.Commands.RatePerSecond,
		Burst:         cfg.Commands.Burst,
	})
	dc, err := bot.NewDiscord(cfg.Discord.Token, handler)
	if err != nil {
		return err
	}

	if cfg.HTTP.Addr != "off" {
		srv := httpapi.NewServer(cfg.HTTP.Addr, store, sched)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[ERROR] %v", err)
			}
		}()
	}

	log.Println("[INFO] Sunshine Solar is running. Press Ctrl+C to stop.")
	if err := dc.Run(ctx); err != nil {
		return err
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	if err := store.Save(); err != nil {
		log.Printf("[ERROR] final save: %v", err)
	}
	log.Println("[INFO] Sunshine Solar stopped")
	return nil
}
