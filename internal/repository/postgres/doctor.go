package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const doctorColumns = `id, name, specialty, avatar, rating, review_count, education, experience,
		languages, about, consultation_fee, address, city, country, accepts_insurance, services`

type doctorRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Specialty        string         `db:"specialty"`
	Avatar           string         `db:"avatar"`
	Rating           float64        `db:"rating"`
	ReviewCount      int            `db:"review_count"`
	Education        pq.StringArray `db:"education"`
	Experience       int            `db:"experience"`
	Languages        pq.StringArray `db:"languages"`
	About            string         `db:"about"`
	ConsultationFee  float64        `db:"consultation_fee"`
	Address          string         `db:"address"`
	City             string         `db:"city"`
	Country          string         `db:"country"`
	AcceptsInsurance bool           `db:"accepts_insurance"`
	Services         pq.StringArray `db:"services"`
}

type slotRow struct {
	DoctorID string         `db:"doctor_id"`
	Day      string         `db:"day"`
	Time     sql.NullString `db:"time"`
}

func (r doctorRow) toModel() *model.Doctor {
	return &model.Doctor{
		ID:               r.ID,
		Name:             r.Name,
		Specialty:        model.Specialty(r.Specialty),
		Avatar:           r.Avatar,
		Rating:           r.Rating,
		ReviewCount:      r.ReviewCount,
		Education:        []string(r.Education),
		Experience:       r.Experience,
		Languages:        []string(r.Languages),
		About:            r.About,
		ConsultationFee:  r.ConsultationFee,
		Location:         model.Location{Address: r.Address, City: r.City, Country: r.Country},
		AcceptsInsurance: r.AcceptsInsurance,
		Services:         []string(r.Services),
		Availability:     model.Availability{},
	}
}

// DoctorRepository reads the directory from postgres. Availability order is
// kept by the day_position and time_position columns.
type DoctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB, m *metrics.Metrics) *DoctorRepository {
	return &DoctorRepository{BaseRepository: NewBaseRepository(db, m)}
}

var _ repository.DoctorRepository = (*DoctorRepository)(nil)

func (r *DoctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	var row doctorRow
	err := r.observe("doctor_get", func() error {
		return r.db.GetContext(ctx, &row, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	var slots []slotRow
	err = r.observe("doctor_slots", func() error {
		return r.db.SelectContext(ctx, &slots, `
			SELECT doctor_id, day, time
			FROM doctor_slots
			WHERE doctor_id = $1
			ORDER BY day_position, time_position`, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	d := row.toModel()
	d.Availability = buildAvailability(slots)[id]
	if d.Availability == nil {
		d.Availability = model.Availability{}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	var rows []doctorRow
	err := r.observe("doctor_list", func() error {
		return r.db.SelectContext(ctx, &rows, `SELECT `+doctorColumns+` FROM doctors ORDER BY position`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	var slots []slotRow
	err = r.observe("doctor_slots", func() error {
		return r.db.SelectContext(ctx, &slots, `
			SELECT doctor_id, day, time
			FROM doctor_slots
			ORDER BY doctor_id, day_position, time_position`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}

	byDoctor := buildAvailability(slots)
	doctors := make([]*model.Doctor, 0, len(rows))
	for _, row := range rows {
		d := row.toModel()
		if a, ok := byDoctor[d.ID]; ok {
			d.Availability = a
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

// buildAvailability groups ordered slot rows per doctor.
func buildAvailability(slots []slotRow) map[string]model.Availability {
	out := make(map[string]model.Availability)
	for _, s := range slots {
		a := out[s.DoctorID]
		if n := len(a); n == 0 || a[n-1].Day != s.Day {
			a = append(a, model.DaySlots{Day: s.Day, Times: []string{}})
		}
		if s.Time.Valid {
			last := &a[len(a)-1]
			last.Times = append(last.Times, s.Time.String)
		}
		out[s.DoctorID] = a
	}
	return out
}

// Seed replaces the directory with doctors, keeping their order.
func (r *DoctorRepository) Seed(ctx context.Context, doctors []*model.Doctor) error {
	return r.observe("doctor_seed", func() error {
		return r.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM doctors`); err != nil {
				return fmt.Errorf("failed to clear doctors: %w", err)
			}
			for i, d := range doctors {
				if err := insertDoctor(ctx, tx, i, d); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func insertDoctor(ctx context.Context, tx *sqlx.Tx, position int, d *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, position, name, specialty, avatar, rating, review_count, education,
			experience, languages, about, consultation_fee, address, city, country,
			accepts_insurance, services
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := tx.ExecContext(ctx, query,
		d.ID,
		position,
		d.Name,
		string(d.Specialty),
		d.Avatar,
		d.Rating,
		d.ReviewCount,
		pq.StringArray(d.Education),
		d.Experience,
		pq.StringArray(d.Languages),
		d.About,
		d.ConsultationFee,
		d.Location.Address,
		d.Location.City,
		d.Location.Country,
		d.AcceptsInsurance,
		pq.StringArray(d.Services),
	)
	if err != nil {
		return fmt.Errorf("failed to insert doctor %s: %w", d.ID, err)
	}

	for dayPos, day := range d.Availability {
		if len(day.Times) == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO doctor_slots (doctor_id, day, day_position, time, time_position) VALUES ($1, $2, $3, NULL, 0)`,
				d.ID, day.Day, dayPos); err != nil {
				return fmt.Errorf("failed to insert availability for %s: %w", d.ID, err)
			}
			continue
		}
		for timePos, t := range day.Times {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO doctor_slots (doctor_id, day, day_position, time, time_position) VALUES ($1, $2, $3, $4, $5)`,
				d.ID, day.Day, dayPos, t, timePos); err != nil {
				return fmt.Errorf("failed to insert availability for %s: %w", d.ID, err)
			}
		}
	}
	return nil
}
