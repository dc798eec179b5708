package store

// schema is applied on Open. The UNIQUE(player_id, match_id) constraint backs
// idempotent ingestion: a second insert of the same match for the same player
// is a no-op, not an error.
const schema = `
CREATE TABLE IF NOT EXISTS players (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	puuid TEXT NOT NULL DEFAULT '',
	game_name TEXT NOT NULL,
	tag_line TEXT NOT NULL,
	last_synced_match_id TEXT NOT NULL DEFAULT '',
	total_score REAL NOT NULL DEFAULT 0,
	average_score REAL NOT NULL DEFAULT 0,
	highest_score REAL,
	lowest_score REAL,
	most_played_role TEXT NOT NULL DEFAULT 'Undefined',
	match_count INTEGER NOT NULL DEFAULT 0,
	last_updated_ms INTEGER NOT NULL DEFAULT 0,
	UNIQUE (game_name, tag_line)
);

CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	match_id TEXT NOT NULL,
	score REAL NOT NULL,
	role TEXT NOT NULL,
	kills INTEGER NOT NULL,
	deaths INTEGER NOT NULL,
	assists INTEGER NOT NULL,
	cs INTEGER NOT NULL,
	vision_score INTEGER NOT NULL,
	total_damage INTEGER NOT NULL,
	game_ts_ms INTEGER NOT NULL,
	duration_minutes REAL NOT NULL,
	UNIQUE (player_id, match_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_player_ts ON matches (player_id, game_ts_ms DESC);

CREATE TABLE IF NOT EXISTS queue (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	player_name TEXT NOT NULL UNIQUE,
	joined_ms INTEGER NOT NULL
);
`
