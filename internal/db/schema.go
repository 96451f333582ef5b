package db

// Schema is the Postgres schema. Every statement is idempotent so it can be
// applied on each start.
const Schema = `
CREATE TABLE IF NOT EXISTS ticks (
    id                  BIGSERIAL PRIMARY KEY,
    user_id             TEXT NOT NULL,
    source_type         TEXT NOT NULL,
    route_name          TEXT NOT NULL,
    route_key           TEXT NOT NULL,
    route_grade         TEXT NOT NULL DEFAULT '',
    tick_date           DATE NOT NULL,
    length              INTEGER,
    pitches             INTEGER,
    location            TEXT,
    location_raw        TEXT,
    route_type          TEXT,
    lead_style          TEXT,
    notes               TEXT,
    route_url           TEXT,
    route_quality       DOUBLE PRECISION,
    user_quality        DOUBLE PRECISION,
    send_bool           BOOLEAN NOT NULL DEFAULT FALSE,
    discipline          TEXT,
    length_category     TEXT,
    season_category     TEXT,
    binned_grade        TEXT,
    binned_code         INTEGER NOT NULL DEFAULT 0,
    cur_max_sport       INTEGER NOT NULL DEFAULT 0,
    cur_max_trad        INTEGER NOT NULL DEFAULT 0,
    cur_max_tr          INTEGER NOT NULL DEFAULT 0,
    cur_max_boulder     INTEGER NOT NULL DEFAULT 0,
    cur_max_mixed       INTEGER NOT NULL DEFAULT 0,
    cur_max_winter_ice  INTEGER NOT NULL DEFAULT 0,
    cur_max_aid         INTEGER NOT NULL DEFAULT 0,
    cur_max_route       INTEGER NOT NULL DEFAULT 0,
    difficulty_category TEXT,
    crux_angle          TEXT,
    crux_energy         TEXT,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, route_key, tick_date)
);

CREATE INDEX IF NOT EXISTS idx_ticks_user_date ON ticks (user_id, tick_date);

CREATE TABLE IF NOT EXISTS performance_pyramid (
    id            BIGSERIAL PRIMARY KEY,
    user_id       TEXT NOT NULL,
    tick_id       BIGINT NOT NULL REFERENCES ticks (id) ON DELETE CASCADE,
    route_name    TEXT NOT NULL,
    location      TEXT,
    discipline    TEXT NOT NULL,
    send_date     DATE NOT NULL,
    binned_code   INTEGER NOT NULL,
    binned_grade  TEXT NOT NULL,
    num_attempts  INTEGER NOT NULL,
    days_attempts INTEGER NOT NULL,
    num_sends     INTEGER NOT NULL,
    crux_angle    TEXT,
    crux_energy   TEXT
);

CREATE INDEX IF NOT EXISTS idx_pyramid_user ON performance_pyramid (user_id, discipline);

CREATE TABLE IF NOT EXISTS tags (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tick_tags (
    tick_id BIGINT NOT NULL REFERENCES ticks (id) ON DELETE CASCADE,
    tag_id  BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
    PRIMARY KEY (tick_id, tag_id)
);

CREATE TABLE IF NOT EXISTS user_sources (
    user_id      TEXT NOT NULL,
    source_type  TEXT NOT NULL,
    profile_url  TEXT,
    last_sync_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, source_type)
);
`
