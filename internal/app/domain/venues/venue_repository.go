package venues

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	database "github.com/FACorreiaa/go-tekuteku/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the venue store.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Venue, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	Insert(ctx context.Context, v *models.Venue) error
	Update(ctx context.Context, actor models.Actor, v models.Venue) error
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

var venueColumns = []string{
	"id", "name", "address", "latitude", "longitude", "business_hours",
	"has_nursing_room", "nursing_room_detail",
	"has_diaper_changing", "diaper_changing_detail",
	"has_tatami_room", "has_private_room", "private_room_detail",
	"stroller_accessible", "has_parking", "parking_detail",
	"has_chair_0_6m", "has_chair_6_18m", "has_chair_18m_3y", "has_chair_3y_plus",
	"chair_count_0_6m", "chair_count_6_18m", "chair_count_18m_3y", "chair_count_3y_plus",
	"comment", "posted_by", "device_id", "likes_count", "created_at", "updated_at",
}

var selectVenues = "SELECT " + strings.Join(venueColumns, ", ") + " FROM venues"

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
	psql   sq.StatementBuilderType
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanVenue(row pgx.Row) (models.Venue, error) {
	var v models.Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.Address, &v.Latitude, &v.Longitude, &v.BusinessHours,
		&v.HasNursingRoom, &v.NursingRoomDetail,
		&v.HasDiaperChanging, &v.DiaperChangingDetail,
		&v.HasTatamiRoom, &v.HasPrivateRoom, &v.PrivateRoomDetail,
		&v.StrollerAccessible, &v.HasParking, &v.ParkingDetail,
		&v.Has0To6m, &v.Has6To18m, &v.Has18mTo3y, &v.Has3yPlus,
		&v.Count0To6m, &v.Count6To18m, &v.Count18mTo3y, &v.Count3yPlus,
		&v.Comment, &v.PostedBy, &v.DeviceID, &v.LikesCount, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

// ListAll returns every venue, most liked first and newest first within a
// like count.
func (r *RepositoryImpl) ListAll(ctx context.Context) ([]models.Venue, error) {
	ctx, span := otel.Tracer("VenueRepository").Start(ctx, "ListAll")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, selectVenues+" ORDER BY likes_count DESC, created_at DESC")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	venues := make([]models.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating venues: %w", err)
	}

	span.SetAttributes(attribute.Int("venues.count", len(venues)))
	span.SetStatus(codes.Ok, "venues listed")
	return venues, nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	v, err := scanVenue(r.pgpool.QueryRow(ctx, selectVenues+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venue %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return &v, nil
}

// Insert stores v and fills in the generated id and timestamps.
func (r *RepositoryImpl) Insert(ctx context.Context, v *models.Venue) error {
	ctx, span := otel.Tracer("VenueRepository").Start(ctx, "Insert", trace.WithAttributes(
		attribute.String("venue.name", v.Name),
	))
	defer span.End()

	cols := venueColumns[1:25]
	cols = append(cols[:len(cols):len(cols)], "posted_by", "device_id")

	query := r.psql.Insert("venues").
		Columns(cols...).
		Values(
			v.Name, v.Address, v.Latitude, v.Longitude, v.BusinessHours,
			v.HasNursingRoom, v.NursingRoomDetail,
			v.HasDiaperChanging, v.DiaperChangingDetail,
			v.HasTatamiRoom, v.HasPrivateRoom, v.PrivateRoomDetail,
			v.StrollerAccessible, v.HasParking, v.ParkingDetail,
			v.Has0To6m, v.Has6To18m, v.Has18mTo3y, v.Has3yPlus,
			v.Count0To6m, v.Count6To18m, v.Count18mTo3y, v.Count3yPlus,
			v.Comment, v.PostedBy, v.DeviceID,
		).
		Suffix("RETURNING id, likes_count, created_at, updated_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	err = r.pgpool.QueryRow(ctx, sqlStr, args...).Scan(&v.ID, &v.LikesCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert venue: %w", err)
	}

	span.SetStatus(codes.Ok, "venue inserted")
	return nil
}

// Update writes the editable fields of v. The WHERE clause repeats the
// ownership rule so a stale permission check cannot slip through.
func (r *RepositoryImpl) Update(ctx context.Context, actor models.Actor, v models.Venue) error {
	ctx, span := otel.Tracer("VenueRepository").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("venue.id", v.ID.String()),
	))
	defer span.End()

	query := r.psql.Update("venues").
		SetMap(map[string]any{
			"name":                   v.Name,
			"address":                v.Address,
			"latitude":               v.Latitude,
			"longitude":              v.Longitude,
			"business_hours":         v.BusinessHours,
			"has_nursing_room":       v.HasNursingRoom,
			"nursing_room_detail":    v.NursingRoomDetail,
			"has_diaper_changing":    v.HasDiaperChanging,
			"diaper_changing_detail": v.DiaperChangingDetail,
			"has_tatami_room":        v.HasTatamiRoom,
			"has_private_room":       v.HasPrivateRoom,
			"private_room_detail":    v.PrivateRoomDetail,
			"stroller_accessible":    v.StrollerAccessible,
			"has_parking":            v.HasParking,
			"parking_detail":         v.ParkingDetail,
			"has_chair_0_6m":         v.Has0To6m,
			"has_chair_6_18m":        v.Has6To18m,
			"has_chair_18m_3y":       v.Has18mTo3y,
			"has_chair_3y_plus":      v.Has3yPlus,
			"chair_count_0_6m":       v.Count0To6m,
			"chair_count_6_18m":      v.Count6To18m,
			"chair_count_18m_3y":     v.Count18mTo3y,
			"chair_count_3y_plus":    v.Count3yPlus,
			"comment":                v.Comment,
			"updated_at":             sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": v.ID})

	if owner := ownershipPredicate(actor); owner != nil {
		query = query.Where(owner)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.pgpool.Exec(ctx, sqlStr, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.rejection(ctx, v.ID)
	}

	span.SetStatus(codes.Ok, "venue updated")
	return nil
}

// Delete removes a venue. Only admins may delete.
func (r *RepositoryImpl) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin {
		return fmt.Errorf("delete requires admin: %w", models.ErrForbidden)
	}

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM venues WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("venue %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// rejection tells a missing row apart from one the actor may not touch.
func (r *RepositoryImpl) rejection(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pgpool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM venues WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check venue: %w", err)
	}
	if !exists {
		return fmt.Errorf("venue %s: %w", id, models.ErrNotFound)
	}
	r.logger.Warn("Store rejected venue write", zap.String("venue_id", id.String()))
	return fmt.Errorf("venue %s: %w", id, models.ErrForbidden)
}

func ownershipPredicate(actor models.Actor) sq.Sqlizer {
	if actor.IsAdmin {
		return nil
	}
	owner := sq.Or{}
	if actor.Authenticated() {
		owner = append(owner, sq.Eq{"posted_by": actor.UserID})
	}
	if actor.DeviceID != "" {
		owner = append(owner, sq.Eq{"device_id": actor.DeviceID})
	}
	if len(owner) == 0 {
		return sq.Expr("FALSE")
	}
	return owner
}
