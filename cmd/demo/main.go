// Command demo runs a knight through idle, take_damage and die states on a
// realtime loop until the knight dies or the process is interrupted.
//
// Settings come from FSMX_* environment variables (see config.Host); the
// machine table from FSMX_MACHINE_FILE or -machine, falling back to the
// built-in table.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/config"
	"github.com/comalice/fsmx/internal/logging"
	"github.com/comalice/fsmx/observe"
	"github.com/comalice/fsmx/realtime"
)

const builtinTable = `
id: knight
initial: idle
states: [idle, take_damage, die]
`

// Knight is the demo owner.
type Knight struct {
	name   string
	Health int

	once sync.Once
	dead chan struct{}
}

func NewKnight(name string, health int) *Knight {
	return &Knight{name: name, Health: health, dead: make(chan struct{})}
}

func (k *Knight) Name() string      { return k.name }
func (k *Knight) Initialize() error { return nil }
func (k *Knight) Destroy()          { k.once.Do(func() { close(k.dead) }) }

// Idle waits for hits.
type Idle struct {
	fsmx.BaseState[*Knight]
}

func (s *Idle) OnEnter(*Knight, fsmx.State[*Knight]) {}
func (s *Idle) OnUpdate(*Knight, *fsmx.Machine[*Knight], time.Duration) error {
	return nil
}

// Blackboard keys shared by the knight states.
const (
	keyDamage = "damage"
	keyHits   = "hits"
)

func blackboardInt(b *fsmx.Blackboard, key string) int {
	n, _ := b.Get(key).(int)
	return n
}

// TakeDamage applies the pending hit from the blackboard and either
// recovers or dies.
type TakeDamage struct {
	fsmx.BaseState[*Knight]
}

func (s *TakeDamage) OnEnter(k *Knight, _ fsmx.State[*Knight]) {
	b := s.Machine().Blackboard()
	k.Health -= blackboardInt(b, keyDamage)
	b.Set(keyHits, blackboardInt(b, keyHits)+1)
}

func (s *TakeDamage) OnUpdate(k *Knight, m *fsmx.Machine[*Knight], _ time.Duration) error {
	if k.Health <= 0 {
		return m.ChangeState("die")
	}
	return m.ChangeState("idle")
}

// Die releases the knight.
type Die struct {
	fsmx.BaseState[*Knight]
}

func (s *Die) OnEnter(k *Knight, _ fsmx.State[*Knight]) {
	k.Destroy()
}

func (s *Die) OnUpdate(*Knight, *fsmx.Machine[*Knight], time.Duration) error {
	return nil
}

func catalog() *fsmx.Catalog[*Knight] {
	return fsmx.NewCatalog[*Knight]().
		MustAdd("idle", func() fsmx.State[*Knight] { return &Idle{} }).
		MustAdd("take_damage", func() fsmx.State[*Knight] { return &TakeDamage{} }).
		MustAdd("die", func() fsmx.State[*Knight] { return &Die{} })
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile  = flag.String("env", "", "optional .env file")
		table    = flag.String("machine", "", "machine table (overrides FSMX_MACHINE_FILE)")
		health   = flag.Int("health", 5, "knight health")
		damage   = flag.Int("damage", 2, "damage per hit")
		interval = flag.Duration("hit", 300*time.Millisecond, "time between hits")
		graph    = flag.String("graph", "", "write the transition graph to this .dot, .json or .yaml file")
		journal  = flag.String("journal", "", "append machine events to this SQLite database")
	)
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	host, err := config.LoadHost(envFiles...)
	if err != nil {
		return err
	}
	logger, err := host.Logger(os.Stderr, slog.String("service", "fsmx-demo"))
	if err != nil {
		return err
	}

	if *table == "" {
		*table = host.MachineFile
	}
	cfg, err := loadTable(*table)
	if err != nil {
		return err
	}
	opts, err := config.Options(cfg, catalog())
	if err != nil {
		return err
	}

	metrics := &observe.Metrics{}
	recorder := observe.NewRecorder(observe.WithHistory(-1))
	events := make(chan observe.Event, 64)
	publisher := observe.NewChannelPublisher(events)

	observers := []fsmx.Observer{observe.NewLoggingObserver(logger), metrics, recorder, publisher}
	if *journal != "" {
		db, err := sql.Open("sqlite", *journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		j, err := observe.NewJournal(db, logger)
		if err != nil {
			return err
		}
		observers = append(observers, j)
	}

	opts = append(opts,
		fsmx.WithLogger[*Knight](logger),
		fsmx.WithObserver[*Knight](observers...),
	)
	m := fsmx.New(opts...)
	m.Blackboard().Set(keyDamage, *damage)

	knight := NewKnight("sir-robin", *health)
	if err := m.AttachOwner(knight); err != nil {
		return err
	}
	if err := knight.Initialize(); err != nil {
		return err
	}
	if err := m.Initialize(cfg.InitialKey()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := realtime.New(m, host.Realtime(), realtime.WithLogger(logger))
	if err := loop.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range events {
			if e.Kind == observe.KindTransition && !e.Transition.Initial {
				fmt.Printf("%s: %s -> %s\n", e.Machine.Owner, e.Transition.From, e.Transition.To)
			}
		}
	}()

	hits := realtime.NewTimerSource("take_damage", 1, *interval)
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go func() {
		if err := loop.Feed(feedCtx, hits); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("feed stopped", logging.Error(err))
		}
	}()

	select {
	case <-knight.dead:
	case <-ctx.Done():
		logger.Info("interrupted")
	}
	hits.Stop()
	stopFeed()

	if err := loop.Stop(); err != nil {
		return err
	}
	if err := loop.Err(); err != nil {
		logger.Warn("loop reported an error", logging.Error(err))
	}
	publisher.Close()
	wg.Wait()

	s := metrics.Snapshot()
	fmt.Printf("frames=%d transitions=%d rejected=%d final=%s health=%d hits=%d\n",
		loop.Frame(), s.Transitions, s.Rejected, m.CurrentKey(), knight.Health,
		blackboardInt(m.Blackboard(), keyHits))

	if *graph != "" {
		if err := recorder.WriteFile(*graph); err != nil {
			return err
		}
		logger.Info("graph written", slog.String("path", *graph))
	}
	return nil
}

func loadTable(path string) (*config.MachineConfig, error) {
	if path == "" {
		return config.Parse([]byte(builtinTable))
	}
	return config.LoadFile(path)
}
