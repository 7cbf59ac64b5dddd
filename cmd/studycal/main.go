package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studycal/internal/backup"
	"studycal/internal/config"
	"studycal/internal/ics"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/planner"
	"studycal/internal/store"
	"studycal/internal/transfer"
	"studycal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	exportPath string
	importPath string
	icsPath    string
	icsImport  string
}

func main() {
	appLog.Info("studycal starting", "version", "0.1.0")

	flags := parseFlags()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to read .env", "err", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv(nil)

	// CLI --listen overrides config file and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"store", conf.Store.Driver,
		"data_dir", conf.Store.Dir,
		"backup_cron", conf.Backup.Cron,
		"basic_auth", conf.BasicAuth != nil,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, conf.Store)
	if err != nil {
		appLog.Error("failed to open store", err, "driver", conf.Store.Driver)
		os.Exit(1)
	}
	defer st.Close()

	p, err := planner.New(ctx, st)
	if err != nil {
		appLog.Error("failed to load collections", err)
		os.Exit(1)
	}
	loc := conf.Location()

	if flags.oneShot() {
		if err := runOneShot(ctx, flags, p, loc); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	backups := backup.New(conf.Backup, p, loc)
	if err := backups.Start(); err != nil {
		appLog.Error("failed to start backup scheduler", err)
		os.Exit(1)
	}

	if err := web.StartServer(ctx, conf, p, flags.debug); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	backups.Stop(stopCtx)
	appLog.Info("studycal exiting")
}

func (f flagConfig) oneShot() bool {
	return f.exportPath != "" || f.importPath != "" || f.icsPath != "" || f.icsImport != ""
}

// runOneShot handles -import, -import-ics, -export and -ics in that order,
// so "-import a.json -export b.json" converts in a single run.
func runOneShot(ctx context.Context, flags flagConfig, p *planner.Planner, loc *time.Location) error {
	now := time.Now().In(loc)

	if flags.importPath != "" {
		data, err := os.ReadFile(flags.importPath)
		if err != nil {
			return err
		}
		doc, err := p.ImportReplace(ctx, data)
		if err != nil {
			return err
		}
		appLog.Info("imported document",
			"path", flags.importPath,
			"classes", len(doc.Classes),
			"study_sessions", len(doc.StudySessions),
			"export_date", doc.ExportDate,
		)
	}

	if flags.icsImport != "" {
		body, err := os.ReadFile(flags.icsImport)
		if err != nil {
			return err
		}
		classes, err := ics.ParseClasses(body, loc)
		if err != nil {
			return err
		}
		for _, c := range classes {
			if c.Emoji == "" {
				c.Emoji = model.DefaultEmoji
			}
			if c.Color == "" {
				c.Color = model.DefaultColor
			}
			if _, err := p.AddClass(ctx, c); err != nil {
				return err
			}
		}
		appLog.Info("imported calendar", "path", flags.icsImport, "classes", len(classes))
	}

	if flags.exportPath != "" {
		data, err := transfer.Marshal(p.ExportSnapshot(now))
		if err != nil {
			return err
		}
		if err := config.WriteFileAtomic(flags.exportPath, data, 0o600); err != nil {
			return err
		}
		appLog.Info("exported document", "path", flags.exportPath, "bytes", len(data))
	}

	if flags.icsPath != "" {
		body, err := ics.ExportClasses(p.Classes(), now, loc)
		if err != nil {
			return err
		}
		if err := config.WriteFileAtomic(flags.icsPath, body, 0o644); err != nil {
			return err
		}
		appLog.Info("exported calendar", "path", flags.icsPath, "bytes", len(body))
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Log every HTTP request and run gin in debug mode")
	flag.StringVar(&cfg.exportPath, "export", "", "Write the export document to this path and exit")
	flag.StringVar(&cfg.importPath, "import", "", "Replace all data from this export document and exit")
	flag.StringVar(&cfg.icsPath, "ics", "", "Write classes as an iCalendar file to this path and exit")
	flag.StringVar(&cfg.icsImport, "import-ics", "", "Add the weekly events of this iCalendar file as classes and exit")

	flag.Parse()

	return cfg
}
