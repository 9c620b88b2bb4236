package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

type petRow struct {
	ID        uuid.UUID       `db:"id"`
	OwnerID   uuid.UUID       `db:"owner_id"`
	Name      string          `db:"name"`
	Species   string          `db:"species"`
	Breed     sql.NullString  `db:"breed"`
	BirthDate sql.NullTime    `db:"birth_date"`
	WeightKg  sql.NullFloat64 `db:"weight_kg"`
	Notes     sql.NullString  `db:"notes"`
	PhotoURL  sql.NullString  `db:"photo_url"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r petRow) toModel() *model.Pet {
	p := &model.Pet{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Species:   r.Species,
		Breed:     r.Breed.String,
		WeightKg:  r.WeightKg.Float64,
		Notes:     r.Notes.String,
		PhotoURL:  r.PhotoURL.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.BirthDate.Valid {
		t := r.BirthDate.Time
		p.BirthDate = &t
	}
	return p
}

const petColumns = `id, owner_id, name, species, breed, birth_date, weight_kg, notes, photo_url, created_at, updated_at`

type PetRepository struct {
	BaseRepository
}

func NewPetRepository(base BaseRepository) *PetRepository {
	return &PetRepository{base}
}

func birthDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *PetRepository) Create(ctx context.Context, pet *model.Pet) error {
	pet.ID = uuid.New()
	pet.CreatedAt = time.Now()
	pet.UpdatedAt = pet.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pet.ID, pet.OwnerID, pet.Name, pet.Species, nullString(pet.Breed), birthDate(pet.BirthDate),
		nullFloat(pet.WeightKg), nullString(pet.Notes), nullString(pet.PhotoURL),
		pet.CreatedAt, pet.UpdatedAt,
	)
	return mapError(err, "create pet")
}

func (r *PetRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var row petRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "get pet")
	}
	return row.toModel(), nil
}

func (r *PetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	var rows []petRow
	query := `SELECT ` + petColumns + ` FROM pets WHERE owner_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, mapError(err, "list pets")
	}

	pets := make([]*model.Pet, 0, len(rows))
	for _, row := range rows {
		pets = append(pets, row.toModel())
	}
	return pets, nil
}

func (r *PetRepository) Update(ctx context.Context, pet *model.Pet) error {
	pet.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET name = $1, species = $2, breed = $3, birth_date = $4, weight_kg = $5,
			notes = $6, photo_url = $7, updated_at = $8
		WHERE id = $9`,
		pet.Name, pet.Species, nullString(pet.Breed), birthDate(pet.BirthDate),
		nullFloat(pet.WeightKg), nullString(pet.Notes), nullString(pet.PhotoURL),
		pet.UpdatedAt, pet.ID,
	)
	if err != nil {
		return mapError(err, "update pet")
	}
	return expectRows(res, "update pet")
}

func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete pet")
	}
	return expectRows(res, "delete pet")
}
