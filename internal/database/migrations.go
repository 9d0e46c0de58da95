package database

const schema = `
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_id TEXT NOT NULL UNIQUE,
    file_name TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    mime_type TEXT NOT NULL DEFAULT '',
    size_in_bytes INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS image_variants (
    image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
    variant_name TEXT NOT NULL,
    url TEXT NOT NULL,
    PRIMARY KEY (image_id, variant_name)
);

CREATE INDEX IF NOT EXISTS idx_images_created_at ON images (created_at);
`
