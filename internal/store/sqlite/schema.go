package sqlite

// schema is the full database schema, applied on open. Natural-key
// uniqueness (the importer's idempotency keys) is enforced here rather
// than in application code.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace TEXT NOT NULL,
    name TEXT NOT NULL,
    creator_id INTEGER NOT NULL,
    UNIQUE (namespace, name)
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_emails (
    user_id INTEGER NOT NULL REFERENCES users(id),
    email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS identities (
    user_id INTEGER NOT NULL REFERENCES users(id),
    provider TEXT NOT NULL,
    extern_uid INTEGER NOT NULL,
    UNIQUE (provider, extern_uid)
);

CREATE TABLE IF NOT EXISTS labels (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    title TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    UNIQUE (project_id, title)
);

CREATE TABLE IF NOT EXISTS milestones (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    iid INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'active',
    due_date TEXT,
    created_at TEXT,
    updated_at TEXT,
    UNIQUE (project_id, iid)
);

CREATE TABLE IF NOT EXISTS merge_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    iid INTEGER NOT NULL,
    source_project_id INTEGER NOT NULL REFERENCES projects(id),
    target_project_id INTEGER NOT NULL REFERENCES projects(id),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source_branch TEXT NOT NULL,
    source_branch_sha TEXT NOT NULL,
    target_branch TEXT NOT NULL,
    target_branch_sha TEXT NOT NULL,
    state TEXT NOT NULL DEFAULT 'opened',
    milestone_id INTEGER REFERENCES milestones(id),
    author_id INTEGER NOT NULL,
    assignee_id INTEGER,
    created_at TEXT,
    updated_at TEXT,
    UNIQUE (iid, source_project_id)
);

CREATE TABLE IF NOT EXISTS merge_request_diffs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    merge_request_id INTEGER NOT NULL REFERENCES merge_requests(id),
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS merge_request_labels (
    merge_request_id INTEGER NOT NULL REFERENCES merge_requests(id),
    label_id INTEGER NOT NULL REFERENCES labels(id),
    UNIQUE (merge_request_id, label_id)
);

CREATE TABLE IF NOT EXISTS issues (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    iid INTEGER NOT NULL,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'opened',
    milestone_id INTEGER REFERENCES milestones(id),
    author_id INTEGER NOT NULL,
    assignee_id INTEGER,
    created_at TEXT,
    updated_at TEXT,
    UNIQUE (iid, project_id)
);

CREATE TABLE IF NOT EXISTS issue_labels (
    issue_id INTEGER NOT NULL REFERENCES issues(id),
    label_id INTEGER NOT NULL REFERENCES labels(id),
    UNIQUE (issue_id, label_id)
);

CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    noteable_type TEXT NOT NULL,
    noteable_id INTEGER NOT NULL,
    body TEXT NOT NULL,
    commit_id TEXT NOT NULL DEFAULT '',
    line_code TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL DEFAULT '',
    author_id INTEGER NOT NULL,
    created_at TEXT,
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS releases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    tag TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT,
    updated_at TEXT,
    UNIQUE (project_id, tag)
);
`
