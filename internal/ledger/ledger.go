// Package ledger remembers which jobs completed successfully and with what
// inputs, so a re-run can reuse artifacts that are still valid and
// unchanged.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/vk/trimgrid/internal/tools"
)

const keyPrefix = "jobs/"

// Record is what the ledger keeps per completed job.
type Record struct {
	JobID       string    `json:"job_id"`
	Fingerprint string    `json:"fingerprint"`
	RunID       string    `json:"run_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Ledger stores completion records keyed by job id.
type Ledger interface {
	Get(jobID string) (Record, bool, error)
	Put(rec Record) error
	Delete(jobID string) error
	Close() error
}

// Badger is a Ledger persisted in a badger database.
type Badger struct {
	db *badger.DB
}

// Open opens (creating if needed) the ledger stored under dir.
func Open(dir string) (*Badger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dir, "ledger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Get returns the record for jobID, if any.
func (b *Badger) Get(jobID string) (Record, bool, error) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + jobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get ledger record %s: %w", jobID, err)
	}
	return rec, true, nil
}

// Put stores rec, replacing any previous record for the same job.
func (b *Badger) Put(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger record: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.JobID), data)
	})
}

// Delete forgets a job. Deleting an unknown job is not an error.
func (b *Badger) Delete(jobID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + jobID))
	})
}

// List returns every stored record.
func (b *Badger) List() ([]Record, error) {
	var out []Record
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Fingerprint identifies a job's invocation: the exact argv plus the size
// and modification time of each input. Any change to parameters, tool or
// inputs yields a different fingerprint.
func Fingerprint(cmd tools.Command, inputs []string) (string, error) {
	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}

	write(cmd.Path)
	for _, a := range cmd.Args {
		write(a)
	}
	write("--inputs--")
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return "", fmt.Errorf("fingerprint input %s: %w", in, err)
		}
		write(in)
		write(strconv.FormatInt(info.Size(), 10))
		write(strconv.FormatInt(info.ModTime().UnixNano(), 10))
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
