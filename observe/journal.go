package observe

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/fsmx"
)

// Journal appends observer callbacks to an SQL table as an audit log.
//
// It expects an *sql.DB that uses a SQLite driver. The caller is responsible
// for importing the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
//	db, _ := sql.Open("sqlite", "file:fsmx.db?_pragma=journal_mode(WAL)")
//	j, err := observe.NewJournal(db)
type Journal struct {
	db     *sql.DB
	logger *slog.Logger

	mu  sync.Mutex
	err error
}

// NewJournal creates the journal table if needed. A nil logger means
// slog.Default().
func NewJournal(db *sql.DB, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{db: db, logger: logger}
	if err := j.initSchema(); err != nil {
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS fsm_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			machine_id TEXT NOT NULL,
			owner TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			initial INTEGER NOT NULL,
			error TEXT NOT NULL,
			at INTEGER NOT NULL
		);`,
	)
	return err
}

func (j *Journal) OnTransition(t fsmx.Transition) {
	initial := 0
	if t.Initial {
		initial = 1
	}
	j.insert(KindTransition, t.Info(), t.From, t.To, initial, "", t.Timestamp)
}

func (j *Journal) OnRejected(info fsmx.MachineInfo, key fsmx.StateKey, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	j.insert(KindRejected, info, "", key, 0, msg, time.Now())
}

func (j *Journal) OnDuplicate(info fsmx.MachineInfo, key fsmx.StateKey) {
	j.insert(KindDuplicate, info, "", key, 0, "", time.Now())
}

func (j *Journal) insert(kind Kind, info fsmx.MachineInfo, from, to fsmx.StateKey, initial int, msg string, at time.Time) {
	_, err := j.db.Exec(`
		INSERT INTO fsm_events (kind, machine_id, owner, from_state, to_state, initial, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind), info.MachineID, info.Owner, string(from), string(to), initial, msg, at.UnixNano(),
	)
	if err == nil {
		return
	}

	j.logger.Error("journal write failed",
		slog.String("machine", info.MachineID),
		slog.String("kind", string(kind)),
		slog.Any("error", err),
	)
	j.mu.Lock()
	if j.err == nil {
		j.err = err
	}
	j.mu.Unlock()
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Events returns the journaled events of one machine in write order.
func (j *Journal) Events(machineID string) ([]Event, error) {
	rows, err := j.db.Query(`
		SELECT kind, owner, from_state, to_state, initial, error, at
		FROM fsm_events
		WHERE machine_id = ?
		ORDER BY seq`,
		machineID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			kind, owner, from, to, msg string
			initial                    int
			at                         int64
		)
		if err := rows.Scan(&kind, &owner, &from, &to, &initial, &msg, &at); err != nil {
			return nil, err
		}

		e := Event{
			Kind:    Kind(kind),
			Machine: fsmx.MachineInfo{MachineID: machineID, Owner: owner},
			Key:     fsmx.StateKey(to),
		}
		switch e.Kind {
		case KindTransition:
			e.Transition = fsmx.Transition{
				MachineID: machineID,
				Owner:     owner,
				From:      fsmx.StateKey(from),
				To:        fsmx.StateKey(to),
				Initial:   initial == 1,
				Timestamp: time.Unix(0, at),
			}
		case KindRejected:
			e.Err = errors.New(msg)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
