package sqlite

const schema = `
-- Tasks table (intent; completion lives on plan entries, never here)
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    key_result_id TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_key_result ON tasks(key_result_id);

-- Daily plans table (structure; frozen into truth when closed = 1)
CREATE TABLE IF NOT EXISTS daily_plans (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    date TEXT NOT NULL,
    closed INTEGER NOT NULL DEFAULT 0,
    closed_at DATETIME,
    version INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(owner_id, date)
);

CREATE INDEX IF NOT EXISTS idx_daily_plans_owner_date ON daily_plans(owner_id, date);

-- Plan entries table (owned by the plan; no independent lifecycle)
CREATE TABLE IF NOT EXISTS plan_entries (
    plan_id TEXT NOT NULL,
    task_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed')),
    completed_at DATETIME,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (plan_id, task_id),
    FOREIGN KEY (plan_id) REFERENCES daily_plans(id) ON DELETE CASCADE
);

-- Weekly plans table (intent grid; days stored as weekday -> task id JSON)
CREATE TABLE IF NOT EXISTS weekly_plans (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    week_start TEXT NOT NULL,
    days TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(owner_id, week_start)
);

-- Goals table
CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL,
    horizon TEXT NOT NULL CHECK(horizon IN ('week', 'month', 'quarter', 'year')),
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'completed', 'abandoned')),
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_goals_owner_status ON goals(owner_id, status);

-- Key results table (cascade with their goal)
CREATE TABLE IF NOT EXISTS key_results (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL,
    title TEXT NOT NULL,
    type TEXT NOT NULL CHECK(type IN ('accumulative', 'habit', 'milestone')),
    start_value REAL NOT NULL DEFAULT 0,
    target_value REAL NOT NULL,
    current_value REAL NOT NULL DEFAULT 0,
    increment REAL NOT NULL DEFAULT 1,
    weight REAL NOT NULL DEFAULT 1,
    FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_key_results_goal ON key_results(goal_id);

-- Goal snapshots table (write-once per goal and date)
CREATE TABLE IF NOT EXISTS goal_snapshots (
    goal_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    date TEXT NOT NULL,
    progress REAL NOT NULL,
    key_result_values TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (goal_id, date),
    FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_goal_snapshots_owner ON goal_snapshots(owner_id);

-- Streak states table (derived; written only by streak derivation)
CREATE TABLE IF NOT EXISTS streak_states (
    owner_id TEXT PRIMARY KEY,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_evaluated_date TEXT,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Nudges table (ephemeral suggestions; deleting them never affects truth)
CREATE TABLE IF NOT EXISTS nudges (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    type TEXT NOT NULL CHECK(type IN ('missed_day', 'streak_at_risk')),
    message TEXT NOT NULL,
    scheduled_for DATETIME NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sent', 'cancelled')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_nudges_owner_status ON nudges(owner_id, status);

-- Domain events table (append-only audit trail)
CREATE TABLE IF NOT EXISTS domain_events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK(type IN ('task_completed', 'day_closed', 'weekly_plan_updated', 'goal_status_changed')),
    owner_id TEXT NOT NULL,
    occurred_at DATETIME NOT NULL,
    data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_domain_events_owner ON domain_events(owner_id);
CREATE INDEX IF NOT EXISTS idx_domain_events_type ON domain_events(type);
CREATE INDEX IF NOT EXISTS idx_domain_events_occurred ON domain_events(occurred_at);

-- Processed events table (per-subscriber idempotency marks)
CREATE TABLE IF NOT EXISTS processed_events (
    subscriber TEXT NOT NULL,
    event_id TEXT NOT NULL,
    processed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (subscriber, event_id)
);

-- Config table
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
