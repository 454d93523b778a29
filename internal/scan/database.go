package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
)

const bucketName = "scans"

// ErrScanNotFound is returned when no record exists for an ID.
var ErrScanNotFound = errors.New("scan not found")

// DB defines the interface for scan persistence.
type DB interface {
	// SaveScan saves a record to the database
	SaveScan(record *Record) error

	// GetScan retrieves a record by ID, returning ErrScanNotFound on a miss
	GetScan(id string) (*Record, error)

	// ListScans returns all records for one owner, ordered by scan time
	ListScans(ownerID string, order SortOrder) ([]*Record, error)
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates the scans bucket on an already-open database. The caller
// owns the database handle and its lifecycle.
func NewBoltDB(db *bbolt.DB) (*BoltDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating scans bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// SaveScan saves a record to the database
func (b *BoltDB) SaveScan(record *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetScan retrieves a record by ID
func (b *BoltDB) GetScan(id string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrScanNotFound
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListScans returns all records for one owner, ordered by scan time. Owner
// filtering happens here so no foreign record ever leaves the store.
func (b *BoltDB) ListScans(ownerID string, order SortOrder) ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			if record.OwnerID == ownerID {
				records = append(records, &record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ScannedAt.Equal(b.ScannedAt) {
			// stable tie-break so equal timestamps keep a fixed order
			if order == SortAscending {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if order == SortAscending {
			return a.ScannedAt.Before(b.ScannedAt)
		}
		return a.ScannedAt.After(b.ScannedAt)
	})

	return records, nil
}
