// internal/logstore/store.go

// Package logstore persists sample records.
package logstore

import (
	"errors"
	"io"

	"github.com/tamzrod/flowlogger/internal/sample"
)

// Store is a persistent sample log.
type Store interface {
	// Append adds one record.
	Append(r sample.Record) error
	// Reset clears the log and starts it with the header line.
	Reset() error
	// Dump writes the log, header included, one line per record.
	Dump(w io.Writer) error
	Close() error
}

// Multi appends to every store. The first store is the primary: Dump
// reads from it.
type Multi struct {
	stores []Store
}

// NewMulti fans out to stores. At least one is required.
func NewMulti(stores ...Store) (*Multi, error) {
	if len(stores) == 0 {
		return nil, errors.New("logstore: at least one store required")
	}
	return &Multi{stores: stores}, nil
}

func (m *Multi) Append(r sample.Record) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Append(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Reset() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Reset(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Dump(w io.Writer) error {
	return m.stores[0].Dump(w)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
