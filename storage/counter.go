package storage

import (
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
)

// GetCounter retrieves a counter value for a given key.
// If the key doesn't exist and defaultValue is provided, it returns the defaultValue.
func (s *BadgerStorage) GetCounter(key []byte, defaultValue ...uint64) (uint64, error) {
	var counter uint64

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			if len(defaultValue) > 0 {
				counter = defaultValue[0]
				return nil
			}
			return err
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			counter, err = strconv.ParseUint(string(val), 10, 64)
			return err
		})
	})

	return counter, err
}

// IncCounter atomically increments a counter and returns the new value. A
// missing counter starts from defaultValue (or zero) before incrementing.
// Transaction conflicts between concurrent increments are retried.
func (s *BadgerStorage) IncCounter(key []byte, defaultValue ...uint64) (uint64, error) {
	for {
		counter, err := s.incCounterOnce(key, defaultValue...)
		if err == badger.ErrConflict {
			continue
		}
		return counter, err
	}
}

func (s *BadgerStorage) incCounterOnce(key []byte, defaultValue ...uint64) (uint64, error) {
	var counter uint64

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			if len(defaultValue) > 0 {
				counter = defaultValue[0]
			}
		} else if err != nil {
			return err
		} else {
			err = item.Value(func(val []byte) error {
				counter, err = strconv.ParseUint(string(val), 10, 64)
				return err
			})
			if err != nil {
				return err
			}
		}

		counter++
		return txn.Set(key, []byte(strconv.FormatUint(counter, 10)))
	})

	return counter, err
}

func (s *BadgerStorage) SetCounter(key []byte, value uint64) error {
	return s.Set(key, []byte(strconv.FormatUint(value, 10)))
}
