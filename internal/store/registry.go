// Package store is the durable side of pack provisioning: a SQLite registry
// mapping pack families to their installed roots, plus idempotent artifact
// copies into the models directory.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PackEntry is one registered pack installation.
type PackEntry struct {
	Family      string
	DisplayName string
	InstallRoot string
	Artifacts   []string
	InstalledAt int64
}

// RecordPack upserts the install location for a family. This is the durable
// configuration write that makes a validated pack discoverable across runs.
func RecordPack(entry PackEntry) error {
	if entry.Family == "" {
		return fmt.Errorf("cannot record pack without family")
	}
	if entry.InstalledAt == 0 {
		entry.InstalledAt = time.Now().Unix()
	}

	return withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO packs (family, display_name, install_root, artifacts, installed_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(family) DO UPDATE SET
				display_name=excluded.display_name,
				install_root=excluded.install_root,
				artifacts=excluded.artifacts,
				installed_at=excluded.installed_at
		`, entry.Family, entry.DisplayName, entry.InstallRoot, strings.Join(entry.Artifacts, ","), entry.InstalledAt)
		if err != nil {
			return fmt.Errorf("failed to upsert pack: %w", err)
		}
		return nil
	})
}

// LookupPack returns the registered entry for a family, or nil when absent.
func LookupPack(family string) (*PackEntry, error) {
	d, err := getDB()
	if err != nil {
		return nil, err
	}

	var entry PackEntry
	var displayName, artifacts sql.NullString
	var installedAt sql.NullInt64

	row := d.QueryRow(`
		SELECT family, display_name, install_root, artifacts, installed_at
		FROM packs WHERE family = ?
	`, family)

	err = row.Scan(&entry.Family, &displayName, &entry.InstallRoot, &artifacts, &installedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query pack: %w", err)
	}

	if displayName.Valid {
		entry.DisplayName = displayName.String
	}
	if artifacts.Valid && artifacts.String != "" {
		entry.Artifacts = strings.Split(artifacts.String, ",")
	}
	if installedAt.Valid {
		entry.InstalledAt = installedAt.Int64
	}

	return &entry, nil
}

// RemovePack deletes the registry row for a family. Removing an absent
// family is not an error.
func RemovePack(family string) error {
	return withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM packs WHERE family = ?", family); err != nil {
			return fmt.Errorf("failed to delete pack: %w", err)
		}
		return nil
	})
}

// ListPacks returns all registered packs, newest first.
func ListPacks() ([]PackEntry, error) {
	d, err := getDB()
	if err != nil {
		return nil, err
	}

	rows, err := d.Query(`
		SELECT family, display_name, install_root, artifacts, installed_at
		FROM packs ORDER BY installed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query packs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []PackEntry
	for rows.Next() {
		var entry PackEntry
		var displayName, artifacts sql.NullString
		var installedAt sql.NullInt64
		if err := rows.Scan(&entry.Family, &displayName, &entry.InstallRoot, &artifacts, &installedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pack: %w", err)
		}
		if displayName.Valid {
			entry.DisplayName = displayName.String
		}
		if artifacts.Valid && artifacts.String != "" {
			entry.Artifacts = strings.Split(artifacts.String, ",")
		}
		if installedAt.Valid {
			entry.InstalledAt = installedAt.Int64
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
