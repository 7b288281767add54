package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/terminal/account"
	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/broker/ib"
	"github.com/rustyeddy/terminal/broker/schwab"
	"github.com/rustyeddy/terminal/config"
	"github.com/rustyeddy/terminal/journal"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/schedule"
	"github.com/rustyeddy/terminal/session"
)

var decoders = map[string]broker.Decoder{
	schwab.Name: schwab.Decoder{},
	ib.Name:     ib.Decoder{},
}

// load resolves the configuration of one command run. Flags set on the
// command line win over the config file.
func load(cmd *cobra.Command, rc *config.RootConfig) (*config.Config, error) {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		loaded, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.Journal = config.JournalConfig{Type: "none"}
	}

	if rc.ConfigPath == "" || cmd.Flags().Changed("log-level") {
		cfg.Log.Level = rc.LogLevel
	}
	if cmd.Flags().Changed("db") {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: rc.DBPath}
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config, rc *config.RootConfig) (*logger.Log, error) {
	log := logger.GetLogger()
	if err := log.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAge); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}
	if rc.NoColor {
		log.DisableColors()
	}
	return log, nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(jc.DealsFile, jc.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	}
	return journal.Nop{}, nil
}

func newSession(cfg *config.Config, log *logger.Log, j journal.Journal) (*session.Session, error) {
	span, err := cfg.Scheduler.ParseSpan()
	if err != nil {
		return nil, fmt.Errorf("scheduler span: %w", err)
	}

	acct := account.New(cfg.Account.ID, cfg.Account.Balance,
		account.WithJournal(j),
		account.WithLogger(log),
		account.WithCommission(cfg.Account.Commission),
	)
	s := session.New(acct, &schedule.Runner{Count: cfg.Scheduler.Count, Span: span}, log)

	names := cfg.Brokers
	if len(names) == 0 {
		names = config.Brokers
	}
	for _, name := range names {
		d, ok := decoders[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", session.ErrUnknownBroker, name)
		}
		s.Register(name, d)
	}
	return s, nil
}
