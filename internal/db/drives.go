package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/placement-tracker/internal/types"
)

const driveColumns = `id, company_name, role, drive_type, batch, drive_date, registration_deadline,
	eligible_branches, min_cgpa, eligibility_text, ctc_amount_lpa, ctc_text, job_location,
	registration_link, status, confidence_score, validation_issues, source_message_id,
	created_at, last_updated`

// CreateDrive inserts a new drive. The identity columns carry a unique
// index; a collision returns ErrIdentityConflict without touching the
// stored row.
func (db *DB) CreateDrive(ctx context.Context, drive *types.Drive) error {
	if drive.ID == uuid.Nil {
		drive.ID = uuid.New()
	}
	key := drive.Identity()

	result, err := db.pool.Exec(ctx,
		`INSERT INTO placement_drives (id, company_name, company_key, role, role_key, drive_type, batch,
		        drive_date, registration_deadline, eligible_branches, min_cgpa, eligibility_text,
		        ctc_amount_lpa, ctc_text, job_location, registration_link, status, confidence_score,
		        validation_issues, source_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		 ON CONFLICT (company_key, batch, role_key) DO NOTHING`,
		drive.ID, drive.CompanyName, key.Company, drive.Role, key.Role, nullable(string(drive.DriveType)),
		drive.Batch, drive.DriveDate, drive.RegistrationDeadline, drive.EligibleBranches, drive.MinCGPA,
		nullable(drive.EligibilityText), drive.CTCAmount, nullable(drive.CTCText),
		nullable(drive.JobLocation), nullable(drive.RegistrationLink), string(drive.Status),
		drive.Confidence, drive.Issues, nullable(drive.SourceMessageID),
	)
	if err != nil {
		return fmt.Errorf("failed to create drive: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrIdentityConflict
	}
	return nil
}

// UpdateDrive rewrites a stored drive by id, recomputing its identity keys.
func (db *DB) UpdateDrive(ctx context.Context, drive *types.Drive) error {
	key := drive.Identity()
	result, err := db.pool.Exec(ctx,
		`UPDATE placement_drives SET
		     company_name = $2, company_key = $3, role = $4, role_key = $5, drive_type = $6, batch = $7,
		     drive_date = $8, registration_deadline = $9, eligible_branches = $10, min_cgpa = $11,
		     eligibility_text = $12, ctc_amount_lpa = $13, ctc_text = $14, job_location = $15,
		     registration_link = $16, status = $17, confidence_score = $18, validation_issues = $19,
		     source_message_id = $20, last_updated = NOW()
		 WHERE id = $1`,
		drive.ID, drive.CompanyName, key.Company, drive.Role, key.Role, nullable(string(drive.DriveType)),
		drive.Batch, drive.DriveDate, drive.RegistrationDeadline, drive.EligibleBranches, drive.MinCGPA,
		nullable(drive.EligibilityText), drive.CTCAmount, nullable(drive.CTCText),
		nullable(drive.JobLocation), nullable(drive.RegistrationLink), string(drive.Status),
		drive.Confidence, drive.Issues, nullable(drive.SourceMessageID),
	)
	if err != nil {
		return fmt.Errorf("failed to update drive: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("drive not found: %s", drive.ID)
	}
	return nil
}

// GetDriveByIdentity retrieves the drive matching an identity key, or nil.
func (db *DB) GetDriveByIdentity(ctx context.Context, key types.IdentityKey) (*types.Drive, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+driveColumns+` FROM placement_drives
		 WHERE company_key = $1 AND batch = $2 AND role_key = $3`,
		key.Company, key.Batch, key.Role,
	)
	return scanDrive(row)
}

// GetDriveByID retrieves a drive by its UUID, or nil.
func (db *DB) GetDriveByID(ctx context.Context, id uuid.UUID) (*types.Drive, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+driveColumns+` FROM placement_drives WHERE id = $1`,
		id,
	)
	return scanDrive(row)
}

// ListIdentityKeys returns the identity of every stored drive, for the
// in-memory dedup pass.
func (db *DB) ListIdentityKeys(ctx context.Context) ([]types.IdentityKey, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT company_key, batch, role_key FROM placement_drives`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity keys: %w", err)
	}
	defer rows.Close()

	var keys []types.IdentityKey
	for rows.Next() {
		var k types.IdentityKey
		if err := rows.Scan(&k.Company, &k.Batch, &k.Role); err != nil {
			return nil, fmt.Errorf("failed to scan identity key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// DriveFilters holds optional filters for listing drives. Status filters on
// the derived lifecycle state, so open/closed follow the registration
// deadline rather than the stored column.
type DriveFilters struct {
	Company       string
	Batch         string
	DriveType     string
	Status        string
	MinConfidence float64
	Limit         int
	Offset        int
}

// statusCondition translates a lifecycle status into a deadline predicate.
// Deadlines are inclusive: a drive stays open through the end of its
// deadline day. Unknown values filter nothing.
func statusCondition(status string) string {
	switch types.DriveStatus(status) {
	case types.StatusCancelled:
		return ` AND status = 'cancelled'`
	case types.StatusClosed:
		return ` AND status <> 'cancelled' AND registration_deadline + interval '1 day' < NOW()`
	case types.StatusOpen:
		return ` AND status <> 'cancelled' AND (registration_deadline + interval '1 day' >= NOW()
			OR (registration_deadline IS NULL AND status = 'open'))`
	case types.StatusUpcoming:
		return ` AND status <> 'cancelled' AND registration_deadline IS NULL AND status <> 'open'`
	default:
		return ""
	}
}

// ListDrives retrieves drives with optional filters, newest first.
func (db *DB) ListDrives(ctx context.Context, filters DriveFilters) ([]types.Drive, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + driveColumns + ` FROM placement_drives WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Company != "" {
		query += fmt.Sprintf(" AND company_name ILIKE $%d", argNum)
		args = append(args, "%"+filters.Company+"%")
		argNum++
	}
	if filters.Batch != "" {
		query += fmt.Sprintf(" AND batch = $%d", argNum)
		args = append(args, filters.Batch)
		argNum++
	}
	if filters.DriveType != "" {
		query += fmt.Sprintf(" AND drive_type = $%d", argNum)
		args = append(args, filters.DriveType)
		argNum++
	}
	query += statusCondition(filters.Status)
	if filters.MinConfidence > 0 {
		query += fmt.Sprintf(" AND confidence_score >= $%d", argNum)
		args = append(args, filters.MinConfidence)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drives: %w", err)
	}
	defer rows.Close()

	var drives []types.Drive
	for rows.Next() {
		drive, err := scanDriveRow(rows)
		if err != nil {
			return nil, err
		}
		drives = append(drives, *drive)
	}
	return drives, nil
}

// CountDrives counts drives matching the filters, ignoring pagination.
func (db *DB) CountDrives(ctx context.Context, filters DriveFilters) (int, error) {
	query := `SELECT COUNT(*) FROM placement_drives WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Company != "" {
		query += fmt.Sprintf(" AND company_name ILIKE $%d", argNum)
		args = append(args, "%"+filters.Company+"%")
		argNum++
	}
	if filters.Batch != "" {
		query += fmt.Sprintf(" AND batch = $%d", argNum)
		args = append(args, filters.Batch)
		argNum++
	}
	if filters.DriveType != "" {
		query += fmt.Sprintf(" AND drive_type = $%d", argNum)
		args = append(args, filters.DriveType)
		argNum++
	}
	query += statusCondition(filters.Status)
	if filters.MinConfidence > 0 {
		query += fmt.Sprintf(" AND confidence_score >= $%d", argNum)
		args = append(args, filters.MinConfidence)
	}

	var count int
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drives: %w", err)
	}
	return count, nil
}

// ListCompanies returns the distinct company names, for filter dropdowns.
func (db *DB) ListCompanies(ctx context.Context) ([]string, error) {
	return db.listDistinct(ctx, `SELECT DISTINCT company_name FROM placement_drives ORDER BY company_name`)
}

// ListBatches returns the distinct batches.
func (db *DB) ListBatches(ctx context.Context) ([]string, error) {
	return db.listDistinct(ctx, `SELECT DISTINCT batch FROM placement_drives WHERE batch <> '' ORDER BY batch`)
}

func (db *DB) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}

func scanDrive(row pgx.Row) (*types.Drive, error) {
	drive, err := scanInto(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get drive: %w", err)
	}
	return drive, nil
}

func scanDriveRow(rows pgx.Rows) (*types.Drive, error) {
	drive, err := scanInto(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan drive: %w", err)
	}
	return drive, nil
}

func scanInto(row pgx.Row) (*types.Drive, error) {
	var d types.Drive
	var role, driveType, eligibilityText, ctcText, location, link, status, sourceID *string
	err := row.Scan(
		&d.ID, &d.CompanyName, &role, &driveType, &d.Batch, &d.DriveDate, &d.RegistrationDeadline,
		&d.EligibleBranches, &d.MinCGPA, &eligibilityText, &d.CTCAmount, &ctcText, &location,
		&link, &status, &d.Confidence, &d.Issues, &sourceID,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Role = deref(role)
	d.DriveType = types.DriveType(deref(driveType))
	d.EligibilityText = deref(eligibilityText)
	d.CTCText = deref(ctcText)
	d.JobLocation = deref(location)
	d.RegistrationLink = deref(link)
	d.Status = types.DriveStatus(deref(status))
	d.SourceMessageID = deref(sourceID)
	return &d, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
