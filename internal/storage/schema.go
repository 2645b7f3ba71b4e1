package storage

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS participants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    telegram_id INTEGER NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    birth_date TIMESTAMP NOT NULL,
    phone TEXT NOT NULL,
    distance_type TEXT NOT NULL DEFAULT '',
    start_number TEXT NOT NULL UNIQUE,
    registered_at TIMESTAMP NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_participants_telegram ON participants(telegram_id);
CREATE INDEX IF NOT EXISTS idx_participants_start_number ON participants(start_number);

CREATE TABLE IF NOT EXISTS challenges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    challenge_type TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_challenges_type ON challenges(challenge_type);
CREATE INDEX IF NOT EXISTS idx_challenges_active ON challenges(is_active);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    event_type TEXT NOT NULL,
    distance_type TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    registration_deadline TIMESTAMP,
    max_participants INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'upcoming',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);

CREATE TABLE IF NOT EXISTS challenge_registrations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_id INTEGER NOT NULL,
    challenge_id INTEGER NOT NULL,
    bib_number TEXT NOT NULL,
    registered_at TIMESTAMP NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    FOREIGN KEY (participant_id) REFERENCES participants(id),
    FOREIGN KEY (challenge_id) REFERENCES challenges(id),
    UNIQUE(participant_id, challenge_id)
);

CREATE INDEX IF NOT EXISTS idx_challenge_regs_challenge ON challenge_registrations(challenge_id);
CREATE INDEX IF NOT EXISTS idx_challenge_regs_participant ON challenge_registrations(participant_id);

CREATE TABLE IF NOT EXISTS event_registrations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_id INTEGER NOT NULL,
    event_id INTEGER NOT NULL,
    bib_number TEXT NOT NULL,
    registered_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'approved',
    FOREIGN KEY (participant_id) REFERENCES participants(id),
    FOREIGN KEY (event_id) REFERENCES events(id),
    UNIQUE(participant_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_event_regs_event ON event_registrations(event_id);
CREATE INDEX IF NOT EXISTS idx_event_regs_participant ON event_registrations(participant_id);

CREATE TABLE IF NOT EXISTS submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_id INTEGER NOT NULL,
    challenge_id INTEGER NOT NULL,
    submitted_at TIMESTAMP NOT NULL,
    media_token TEXT NOT NULL DEFAULT '',
    result_value REAL NOT NULL,
    result_unit TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    moderator_comment TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (participant_id) REFERENCES participants(id),
    FOREIGN KEY (challenge_id) REFERENCES challenges(id)
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_participant ON submissions(participant_id);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted ON submissions(submitted_at);

CREATE TABLE IF NOT EXISTS admin_actions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    moderator_id INTEGER NOT NULL,
    action TEXT NOT NULL,
    target_id INTEGER NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_admin_actions_timestamp ON admin_actions(timestamp);
`

// InitSchema initializes the database schema
func InitSchema(queue *DBQueue) error {
	return queue.Execute(func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}
