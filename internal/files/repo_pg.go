package files

import (
	"context"
	"database/sql"
	"errors"
)

const uploadColumns = `
document_id, owner_token, storage_key, storage_url, file_name, size_bytes, mime_type, uploaded_at,
provider_file_id, vector_store_id, assistant_id, thread_id`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new upload record.
func (r *PGRepo) Create(ctx context.Context, rec UploadRecord) error {
	const query = `
INSERT INTO uploads (
    document_id,
    owner_token,
    storage_key,
    storage_url,
    file_name,
    size_bytes,
    mime_type,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		rec.DocumentID,
		rec.OwnerToken,
		rec.StorageKey,
		rec.StorageURL,
		rec.FileName,
		rec.SizeBytes,
		rec.MimeType,
		rec.UploadedAt,
	)
	return err
}

// GetByDocumentID fetches an upload record by document id.
func (r *PGRepo) GetByDocumentID(ctx context.Context, documentID string) (UploadRecord, error) {
	const query = `
SELECT ` + uploadColumns + `
FROM uploads
WHERE document_id = $1
LIMIT 1`
	rec, err := scanUpload(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UploadRecord{}, ErrNotFound
		}
		return UploadRecord{}, err
	}
	return rec, nil
}

// ListByOwner lists upload records owned by the given bearer token, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerToken string) ([]UploadRecord, error) {
	const query = `
SELECT ` + uploadColumns + `
FROM uploads
WHERE owner_token = $1
ORDER BY uploaded_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

// Rename updates only the display name. Renaming an unknown id is a no-op.
func (r *PGRepo) Rename(ctx context.Context, documentID, fileName string) error {
	const query = `
UPDATE uploads
SET file_name = $1
WHERE document_id = $2`
	_, err := r.DB.ExecContext(ctx, query, fileName, documentID)
	return err
}

// Delete removes the record; the stored blob is left in place.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	const query = `DELETE FROM uploads WHERE document_id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProviderResources persists the assistant-provider identifiers.
func (r *PGRepo) SetProviderResources(ctx context.Context, documentID string, res ProviderResources) error {
	const query = `
UPDATE uploads
SET provider_file_id = $1, vector_store_id = $2, assistant_id = $3, thread_id = $4
WHERE document_id = $5`
	out, err := r.DB.ExecContext(ctx, query,
		nullableString(res.FileID),
		nullableString(res.VectorStoreID),
		nullableString(res.AssistantID),
		nullableString(res.ThreadID),
		documentID,
	)
	if err != nil {
		return err
	}
	affected, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Share grants an account read access to a document. Idempotent.
func (r *PGRepo) Share(ctx context.Context, documentID, phone string) error {
	const query = `
INSERT INTO file_shares (document_id, phone)
VALUES ($1, $2)
ON CONFLICT (document_id, phone) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, documentID, phone)
	return err
}

// ListSharedWith lists upload records shared with the given phone, newest first.
func (r *PGRepo) ListSharedWith(ctx context.Context, phone string) ([]UploadRecord, error) {
	const query = `
SELECT u.document_id, u.owner_token, u.storage_key, u.storage_url, u.file_name, u.size_bytes, u.mime_type, u.uploaded_at,
       u.provider_file_id, u.vector_store_id, u.assistant_id, u.thread_id
FROM uploads u
JOIN file_shares s ON s.document_id = u.document_id
WHERE s.phone = $1
ORDER BY u.uploaded_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (UploadRecord, error) {
	var rec UploadRecord
	var fileID, vectorStoreID, assistantID, threadID sql.NullString
	err := row.Scan(
		&rec.DocumentID,
		&rec.OwnerToken,
		&rec.StorageKey,
		&rec.StorageURL,
		&rec.FileName,
		&rec.SizeBytes,
		&rec.MimeType,
		&rec.UploadedAt,
		&fileID,
		&vectorStoreID,
		&assistantID,
		&threadID,
	)
	if err != nil {
		return UploadRecord{}, err
	}
	rec.Resources = ProviderResources{
		FileID:        fileID.String,
		VectorStoreID: vectorStoreID.String,
		AssistantID:   assistantID.String,
		ThreadID:      threadID.String,
	}
	return rec, nil
}

func collectUploads(rows *sql.Rows) ([]UploadRecord, error) {
	var out []UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
