// Package reviews lets customers rate menu items they have eaten.
package reviews

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/repo"
)

type Querier interface {
	HasCompletedOrderWithItem(ctx context.Context, arg dbgen.HasCompletedOrderWithItemParams) (bool, error)
	CreateReview(ctx context.Context, arg dbgen.CreateReviewParams) (dbgen.Review, error)
	ListReviewsByMenuItem(ctx context.Context, arg dbgen.ListReviewsByMenuItemParams) ([]dbgen.ListReviewsByMenuItemRow, error)
	ReviewStatsByMenuItem(ctx context.Context, arg dbgen.ReviewStatsByMenuItemParams) (dbgen.ReviewStatsByMenuItemRow, error)
	DeleteReview(ctx context.Context, arg dbgen.DeleteReviewParams) (int64, error)
}

type Service struct {
	Q      Querier
	Events events.Emitter
	Log    zerolog.Logger
}

var (
	// ErrNotEligible means the caller has no completed order containing the item.
	ErrNotEligible = errors.New("item not ordered in a completed order")
	// ErrAlreadyReviewed means the caller already reviewed the item.
	ErrAlreadyReviewed = errors.New("item already reviewed")
)

// View is a published review.
type View struct {
	ID         string    `json:"id"`
	MenuItemID string    `json:"menu_item_id"`
	Author     string    `json:"author,omitempty"`
	Rating     int32     `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func view(r dbgen.Review, author string) View {
	return View{
		ID:         common.UUIDString(r.ID),
		MenuItemID: common.UUIDString(r.MenuItemID),
		Author:     author,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.Time,
	}
}

// Stats is the rating distribution of an item.
type Stats struct {
	Count   int64           `json:"count"`
	Average float64         `json:"average"`
	Stars   map[int32]int64 `json:"stars"`
}

type Input struct {
	Rating  int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func caller(ctx context.Context) (pgtype.UUID, error) {
	raw, ok := common.UserID(ctx)
	if !ok {
		return pgtype.UUID{}, common.Unauthorized()
	}
	return common.ParseUUID("user_id", raw)
}

// Create stores the caller's review of an item. Only items from one of the
// caller's completed orders can be reviewed, once each.
func (s *Service) Create(ctx context.Context, menuItemID string, in Input) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	uid, err := caller(ctx)
	if err != nil {
		return View{}, err
	}
	itemID, err := common.ParseUUID("id", menuItemID)
	if err != nil {
		return View{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	ok, err := s.Q.HasCompletedOrderWithItem(ctx, dbgen.HasCompletedOrderWithItemParams{TenantID: tid, UserID: uid, MenuItemID: itemID})
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, &common.AppError{Code: "NOT_ELIGIBLE", Message: "only items from a completed order can be reviewed",
			HTTPStatus: http.StatusForbidden, Err: ErrNotEligible}
	}
	r, err := s.Q.CreateReview(ctx, dbgen.CreateReviewParams{
		TenantID:   tid,
		MenuItemID: itemID,
		UserID:     uid,
		Rating:     in.Rating,
		Comment:    in.Comment,
	})
	if err != nil {
		if common.IsUniqueViolation(err) {
			return View{}, &common.AppError{Code: "ALREADY_REVIEWED", Message: "you already reviewed this item",
				HTTPStatus: http.StatusConflict, Err: errors.Join(ErrAlreadyReviewed, common.ErrConflict)}
		}
		return View{}, err
	}
	if s.Events != nil {
		payload := events.ReviewCreated{
			ReviewID:   common.UUIDString(r.ID),
			UserID:     common.UUIDString(uid),
			MenuItemID: common.UUIDString(itemID),
			Rating:     r.Rating,
		}
		if _, err := s.Events.Emit(ctx, events.TopicReviewCreated, r.ID, payload); err != nil {
			s.Log.Warn().Err(err).Str("review", payload.ReviewID).Msg("emit review event")
		}
	}
	return view(r, ""), nil
}

// List returns an item's reviews, newest first.
func (s *Service) List(ctx context.Context, menuItemID string, page, perPage int) ([]View, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	itemID, err := common.ParseUUID("id", menuItemID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListReviewsByMenuItem(ctx, dbgen.ListReviewsByMenuItemParams{
		TenantID:   tid,
		MenuItemID: itemID,
		Limit:      int32(perPage),
		Offset:     common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	stats, err := s.Q.ReviewStatsByMenuItem(ctx, dbgen.ReviewStatsByMenuItemParams{TenantID: tid, MenuItemID: itemID})
	if err != nil {
		return nil, 0, err
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, view(row.Review, row.AuthorName))
	}
	return out, stats.Count, nil
}

// Stats returns count, average and star distribution for an item.
func (s *Service) Stats(ctx context.Context, menuItemID string) (Stats, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Stats{}, err
	}
	itemID, err := common.ParseUUID("id", menuItemID)
	if err != nil {
		return Stats{}, err
	}
	row, err := s.Q.ReviewStatsByMenuItem(ctx, dbgen.ReviewStatsByMenuItemParams{TenantID: tid, MenuItemID: itemID})
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Count:   row.Count,
		Average: math.Round(row.Average*100) / 100,
		Stars:   map[int32]int64{1: row.Star1, 2: row.Star2, 3: row.Star3, 4: row.Star4, 5: row.Star5},
	}, nil
}

// Delete removes one of the caller's own reviews.
func (s *Service) Delete(ctx context.Context, reviewID string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	uid, err := caller(ctx)
	if err != nil {
		return err
	}
	id, err := common.ParseUUID("id", reviewID)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteReview(ctx, dbgen.DeleteReviewParams{TenantID: tid, ID: id, UserID: uid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("review not found")
	}
	return nil
}
