package dbstore

import (
	"context"
	"fmt"
	"strings"

	"hbnb-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// table maps one entity kind onto its SQL table. Every table starts with
// id, created_at and updated_at followed by columns.
type table struct {
	name    string
	columns []string
	scan    func(row pgx.Row) (models.Entity, error)
	values  func(e models.Entity) []any

	selectAll  string
	selectByID string
	count      string
	insert     string
	update     string
	delete     string
}

func (t *table) build() {
	cols := append([]string{"id", "created_at", "updated_at"}, t.columns...)

	t.selectAll = fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), t.name)
	t.selectByID = t.selectAll + " WHERE id = $1"
	t.count = fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	t.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(cols, ", "), strings.Join(params, ", "))

	// $1 is id, $2 created_at (unused), $3 updated_at, then columns
	sets := []string{"updated_at = $3"}
	for i, c := range t.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+4))
	}
	t.update = fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND created_at = $2",
		t.name, strings.Join(sets, ", "))

	t.delete = fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name)
}

// args returns the values for every column in table order
func (t *table) args(e models.Entity) []any {
	b := e.Meta()
	return append([]any{b.ID, b.CreatedAt, b.UpdatedAt}, t.values(e)...)
}

var tables = map[models.Kind]*table{
	models.KindState: {
		name:    "states",
		columns: []string{"name"},
		scan: func(row pgx.Row) (models.Entity, error) {
			var st models.State
			err := row.Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt, &st.Name)
			return &st, err
		},
		values: func(e models.Entity) []any {
			st := e.(*models.State)
			return []any{st.Name}
		},
	},
	models.KindCity: {
		name:    "cities",
		columns: []string{"state_id", "name"},
		scan: func(row pgx.Row) (models.Entity, error) {
			var c models.City
			err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.StateID, &c.Name)
			return &c, err
		},
		values: func(e models.Entity) []any {
			c := e.(*models.City)
			return []any{c.StateID, c.Name}
		},
	},
	models.KindAmenity: {
		name:    "amenities",
		columns: []string{"name"},
		scan: func(row pgx.Row) (models.Entity, error) {
			var a models.Amenity
			err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.Name)
			return &a, err
		},
		values: func(e models.Entity) []any {
			a := e.(*models.Amenity)
			return []any{a.Name}
		},
	},
	models.KindUser: {
		name:    "users",
		columns: []string{"email", "password", "first_name", "last_name"},
		scan: func(row pgx.Row) (models.Entity, error) {
			var u models.User
			err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt,
				&u.Email, &u.Password, &u.FirstName, &u.LastName)
			return &u, err
		},
		values: func(e models.Entity) []any {
			u := e.(*models.User)
			return []any{u.Email, u.Password, u.FirstName, u.LastName}
		},
	},
	models.KindPlace: {
		name: "places",
		columns: []string{"city_id", "user_id", "name", "description",
			"number_rooms", "number_bathrooms", "max_guest", "price_by_night",
			"latitude", "longitude"},
		scan: func(row pgx.Row) (models.Entity, error) {
			p := models.Place{AmenityIDs: []string{}}
			err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt,
				&p.CityID, &p.UserID, &p.Name, &p.Description,
				&p.NumberRooms, &p.NumberBathroom, &p.MaxGuest, &p.PriceByNight,
				&p.Latitude, &p.Longitude)
			return &p, err
		},
		values: func(e models.Entity) []any {
			p := e.(*models.Place)
			return []any{p.CityID, p.UserID, p.Name, p.Description,
				p.NumberRooms, p.NumberBathroom, p.MaxGuest, p.PriceByNight,
				p.Latitude, p.Longitude}
		},
	},
	models.KindReview: {
		name:    "reviews",
		columns: []string{"place_id", "user_id", "text"},
		scan: func(row pgx.Row) (models.Entity, error) {
			var r models.Review
			err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.PlaceID, &r.UserID, &r.Text)
			return &r, err
		},
		values: func(e models.Entity) []any {
			r := e.(*models.Review)
			return []any{r.PlaceID, r.UserID, r.Text}
		},
	},
}

func init() {
	for _, t := range tables {
		t.build()
	}
}

// scanEntity reads one row and normalizes its timestamps to UTC
func scanEntity(t *table, row pgx.Row) (models.Entity, error) {
	e, err := t.scan(row)
	if err != nil {
		return nil, err
	}
	b := e.Meta()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return e, nil
}

// loadLinks fills the amenity ids of one place
func loadLinks(ctx context.Context, q querier, p *models.Place) error {
	rows, err := q.Query(ctx,
		`SELECT amenity_id FROM place_amenity WHERE place_id = $1 ORDER BY position, amenity_id`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get place amenities: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan place amenities: %w", err)
	}
	p.AmenityIDs = ids
	if p.AmenityIDs == nil {
		p.AmenityIDs = []string{}
	}
	return nil
}

// loadAllLinks fills the amenity ids of every place in places
func loadAllLinks(ctx context.Context, q querier, places map[string]models.Entity) error {
	rows, err := q.Query(ctx,
		`SELECT place_id, amenity_id FROM place_amenity ORDER BY place_id, position, amenity_id`)
	if err != nil {
		return fmt.Errorf("failed to get place amenities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var placeID, amenityID string
		if err := rows.Scan(&placeID, &amenityID); err != nil {
			return fmt.Errorf("failed to scan place amenity: %w", err)
		}
		if p, ok := places[placeID].(*models.Place); ok {
			p.AmenityIDs = append(p.AmenityIDs, amenityID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating place amenities: %w", err)
	}
	return nil
}

// writeLinks replaces the stored links of a place with its amenity ids
func writeLinks(ctx context.Context, q querier, p *models.Place) error {
	if _, err := q.Exec(ctx, `DELETE FROM place_amenity WHERE place_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear place amenities: %w", err)
	}
	for i, amenityID := range p.AmenityIDs {
		_, err := q.Exec(ctx,
			`INSERT INTO place_amenity (place_id, amenity_id, position) VALUES ($1, $2, $3)`,
			p.ID, amenityID, i)
		if err != nil {
			return fmt.Errorf("failed to link amenity %s: %w", amenityID, err)
		}
	}
	return nil
}
