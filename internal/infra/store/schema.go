package store

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const (
	schemaVersion = 1

	instanceTypesBucketName = "instance_types"
	metaBucketName          = "meta"
	versionKey              = "schema_version"
	updatedAtKey            = "updated_at"
)

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(instanceTypesBucketName)); err != nil {
			return fmt.Errorf("create instance types bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}

		// Version 1 is the only layout so far; a version 2 adds its migration here.
		switch currentVersion := readSchemaVersion(meta); currentVersion {
		case 0:
			return writeSchemaVersion(meta, schemaVersion)
		case schemaVersion:
			return nil
		default:
			return fmt.Errorf("unsupported catalog schema version %d", currentVersion)
		}
	})
}

func checkSchema(tx *bolt.Tx) error {
	if tx.Bucket([]byte(instanceTypesBucketName)) == nil {
		return fmt.Errorf("missing %s bucket", instanceTypesBucketName)
	}
	version := readSchemaVersion(tx.Bucket([]byte(metaBucketName)))
	if version != schemaVersion {
		return fmt.Errorf("unsupported catalog schema version %d", version)
	}
	return nil
}

func readSchemaVersion(meta *bolt.Bucket) int {
	if meta == nil {
		return 0
	}
	raw := meta.Get([]byte(versionKey))
	if len(raw) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw))
}

func writeSchemaVersion(meta *bolt.Bucket, version int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(version))
	return meta.Put([]byte(versionKey), buf)
}
