package repository

import "fmt"

// Bucket (bolt) and table (sqlite) holding every persisted key.
const bucketName = "local_storage"

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Storage is a flat string-keyed store. Values are opaque JSON documents.
// A missing key is not an error: Get reports ok=false.
type Storage interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open returns the storage backend selected by driver.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case DriverBolt, "":
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
