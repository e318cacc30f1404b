package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/repository"
)

// imageRepository implements repository.ImageRepository for PostgreSQL.
type imageRepository struct {
	db Querier
}

// NewImageRepository creates a new PostgreSQL image repository.
func NewImageRepository(db *DB) repository.ImageRepository {
	return &imageRepository{db: db.Pool}
}

const selectImageWithAuthor = `
	SELECT i.id::text, i.src, i.name, i.created_at, u.id::text, u.username
	FROM images i
	JOIN users u ON u.id = i.owner_id
`

// Create inserts a new image.
func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (id, src, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		image.ID.String(),
		image.Src,
		image.Name,
		image.OwnerID.String(),
		image.CreatedAt,
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
		SELECT id::text, src, name, owner_id::text, created_at
		FROM images
		WHERE id::text = $1
	`

	image := &domain.Image{}
	var imageID, ownerID string
	err := r.db.QueryRow(ctx, query, id.String()).Scan(
		&imageID,
		&image.Src,
		&image.Name,
		&ownerID,
		&image.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by ID: %w", err)
	}

	image.ID = domain.ImageID(imageID)
	image.OwnerID = domain.UserID(ownerID)
	return image, nil
}

// GetWithAuthor retrieves an image joined with its author.
func (r *imageRepository) GetWithAuthor(ctx context.Context, id domain.ImageID) (*domain.ImageWithAuthor, error) {
	image, err := scanImageWithAuthor(r.db.QueryRow(ctx, selectImageWithAuthor+` WHERE i.id::text = $1`, id.String()))
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
		rows pgx.Rows
		err  error
	)
	if opts.Search != "" {
		rows, err = r.db.Query(ctx,
			selectImageWithAuthor+` WHERE i.name ILIKE $1 ESCAPE '\' ORDER BY i.created_at DESC, i.id`,
			repository.LikePattern(opts.Search),
		)
	} else {
		rows, err = r.db.Query(ctx, selectImageWithAuthor+` ORDER BY i.created_at DESC, i.id`)
	}
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
	tag, err := r.db.Exec(ctx, `UPDATE images SET name = $1 WHERE id::text = $2`, name, id.String())
	if err != nil {
		return fmt.Errorf("failed to update image name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func scanImageWithAuthor(row pgx.Row) (*domain.ImageWithAuthor, error) {
	image := &domain.ImageWithAuthor{}
	var imageID, authorID string
	err := row.Scan(
		&imageID,
		&image.Src,
		&image.Name,
		&image.CreatedAt,
		&authorID,
		&image.Author.Username,
	)
	if err != nil {
		return nil, err
	}
	image.ID = domain.ImageID(imageID)
	image.Author.ID = domain.UserID(authorID)
	return image, nil
}

// Ensure imageRepository implements repository.ImageRepository.
var _ repository.ImageRepository = (*imageRepository)(nil)
