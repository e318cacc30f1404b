package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/repository"
)

// imageRepository implements repository.ImageRepository for SQLite.
type imageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) repository.ImageRepository {
	return &imageRepository{db: db}
}

const imageWithAuthorColumns = `
	i.id, i.src, i.name, i.created_at, u.id, u.username
`

// Create inserts a new image.
func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (id, src, name, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		image.ID.String(),
		image.Src,
		image.Name,
		image.OwnerID.String(),
		formatTime(image.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner %s", domain.ErrUserNotFound, image.OwnerID)
		}
		return fmt.Errorf("failed to create image: %w", err)
	}

	return nil
}

// GetByID retrieves an image by ID.
func (r *imageRepository) GetByID(ctx context.Context, id domain.ImageID) (*domain.Image, error) {
	query := `
		SELECT id, src, name, owner_id, created_at
		FROM images
		WHERE id = ?
	`

	image := &domain.Image{}
	var imageID, ownerID, createdAt string
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&imageID,
		&image.Src,
		&image.Name,
		&ownerID,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by ID: %w", err)
	}

	image.ID = domain.ImageID(imageID)
	image.OwnerID = domain.UserID(ownerID)
	if image.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return image, nil
}

// GetWithAuthor retrieves an image joined with its author.
func (r *imageRepository) GetWithAuthor(ctx context.Context, id domain.ImageID) (*domain.ImageWithAuthor, error) {
	query := `SELECT ` + imageWithAuthorColumns + `
		FROM images i
		JOIN users u ON u.id = i.owner_id
		WHERE i.id = ?
	`

	image, err := scanImageWithAuthor(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return image, nil
}

// List returns images with their authors, newest first.
func (r *imageRepository) List(ctx context.Context, opts repository.ImageListOptions) ([]*domain.ImageWithAuthor, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + imageWithAuthorColumns + `
		FROM images i
		JOIN users u ON u.id = i.owner_id
	`)
	if opts.Search != "" {
		// LIKE is case-insensitive for ASCII in SQLite; lower() both sides
		// to cover the rest of the range the built-in lower() handles.
		sb.WriteString(` WHERE lower(i.name) LIKE lower(?) ESCAPE '\'`)
		args = append(args, repository.LikePattern(opts.Search))
	}
	sb.WriteString(` ORDER BY i.created_at DESC, i.id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]*domain.ImageWithAuthor, 0)
	for rows.Next() {
		image, err := scanImageWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// UpdateName sets the name of an image.
func (r *imageRepository) UpdateName(ctx context.Context, id domain.ImageID, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE images SET name = ? WHERE id = ?`, name, id.String())
	if err != nil {
		return fmt.Errorf("failed to update image name: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrImageNotFound
	}

	return nil
}

func scanImageWithAuthor(row rowScanner) (*domain.ImageWithAuthor, error) {
	image := &domain.ImageWithAuthor{}
	var imageID, authorID, createdAt string
	err := row.Scan(
		&imageID,
		&image.Src,
		&image.Name,
		&createdAt,
		&authorID,
		&image.Author.Username,
	)
	if err != nil {
		return nil, err
	}

	image.ID = domain.ImageID(imageID)
	image.Author.ID = domain.UserID(authorID)
	if image.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return image, nil
}

// Ensure imageRepository implements repository.ImageRepository.
var _ repository.ImageRepository = (*imageRepository)(nil)
