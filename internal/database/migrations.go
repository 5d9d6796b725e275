package database

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reservation_id TEXT NOT NULL UNIQUE,
			room_type_id TEXT NOT NULL,
			guest_name TEXT,
			check_in DATETIME NOT NULL,
			check_out DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			total_amount REAL,
			booked_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_stay
		ON reservations(check_in, check_out);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_room_type
		ON reservations(room_type_id);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS pace_baselines (
			lead_bucket TEXT PRIMARY KEY,
			avg_bookings REAL NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Seed baseline booking counts per lead-time bucket. Calibrate against
	// real pace data once enough history accumulates.
	_, err = d.db.Exec(`
		INSERT OR IGNORE INTO pace_baselines (lead_bucket, avg_bookings) VALUES
			('0-7', 4.5),
			('8-14', 3.5),
			('15-30', 2.5),
			('31-60', 1.8),
			('61-90', 1.2),
			('91-180', 0.8),
			('181+', 0.4);
	`)
	if err != nil {
		return err
	}

	return nil
}
