package db

import (
	"fmt"
	"time"

	"gasgauge/internal/engine"
)

// InsertRecord stores one fee observation.
func (d *DB) InsertRecord(r engine.Record) error {
	_, err := d.sql.Exec(
		"INSERT INTO fee_records (timestamp, network, base_fee, priority_tip, max_fee, token_price_usd) VALUES (?,?,?,?,?,?)",
		r.Timestamp, r.Network, r.BaseFee, r.PriorityTip, r.MaxFee, r.TokenPriceUSD,
	)
	if err != nil {
		return fmt.Errorf("insert fee record: %w", err)
	}
	return nil
}

// RecordsByNetwork returns up to limit of the newest records for a
// network, newest first. limit <= 0 means no cap.
func (d *DB) RecordsByNetwork(network string, limit int) ([]engine.Record, error) {
	query := "SELECT timestamp, network, base_fee, priority_tip, max_fee, token_price_usd FROM fee_records WHERE network=? ORDER BY timestamp DESC"
	args := []any{network}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fee records: %w", err)
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		var r engine.Record
		if err := rows.Scan(&r.Timestamp, &r.Network, &r.BaseFee, &r.PriorityTip, &r.MaxFee, &r.TokenPriceUSD); err != nil {
			return nil, fmt.Errorf("scan fee record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AllRecords returns every record for a network oldest first, the
// order exports are written in.
func (d *DB) AllRecords(network string) ([]engine.Record, error) {
	rows, err := d.sql.Query(
		"SELECT timestamp, network, base_fee, priority_tip, max_fee, token_price_usd FROM fee_records WHERE network=? ORDER BY timestamp ASC",
		network,
	)
	if err != nil {
		return nil, fmt.Errorf("query fee records: %w", err)
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		var r engine.Record
		if err := rows.Scan(&r.Timestamp, &r.Network, &r.BaseFee, &r.PriorityTip, &r.MaxFee, &r.TokenPriceUSD); err != nil {
			return nil, fmt.Errorf("scan fee record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestRecord returns the newest record for a network.
func (d *DB) LatestRecord(network string) (engine.Record, bool) {
	var r engine.Record
	err := d.sql.QueryRow(
		"SELECT timestamp, network, base_fee, priority_tip, max_fee, token_price_usd FROM fee_records WHERE network=? ORDER BY timestamp DESC LIMIT 1",
		network,
	).Scan(&r.Timestamp, &r.Network, &r.BaseFee, &r.PriorityTip, &r.MaxFee, &r.TokenPriceUSD)
	if err != nil {
		return engine.Record{}, false
	}
	return r, true
}

// CountRecords returns how many records a network has stored.
func (d *DB) CountRecords(network string) (int, error) {
	var count int
	err := d.sql.QueryRow("SELECT COUNT(*) FROM fee_records WHERE network=?", network).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fee records: %w", err)
	}
	return count, nil
}

// CountAllRecords reports the number of stored samples across every network.
func (d *DB) CountAllRecords() (int, error) {
	var count int
	err := d.sql.QueryRow("SELECT COUNT(*) FROM fee_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fee records: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes records older than the given number of days
// across all networks and reports how many went.
func (d *DB) PruneOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)
	res, err := d.sql.Exec("DELETE FROM fee_records WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune fee records: %w", err)
	}
	return res.RowsAffected()
}
