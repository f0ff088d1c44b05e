package httpgin

import (
	"fmt"
	"time"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

type CreateTrainRequest struct {
	ID            string   `json:"id" binding:"required"`
	Stations      []string `json:"stations" binding:"required,min=2"`
	SeatNum       int      `json:"seat_num" binding:"required,gt=0"`
	Prices        []int    `json:"prices" binding:"required"`
	StartTime     string   `json:"start_time" binding:"required"`
	TravelTimes   []int    `json:"travel_times" binding:"required"`
	StopoverTimes []int    `json:"stopover_times"`
	SaleStart     string   `json:"sale_start" binding:"required"`
	SaleEnd       string   `json:"sale_end" binding:"required"`
	Type          string   `json:"type" binding:"required"`
}

func (r CreateTrainRequest) spec() (domain.TrainSpec, error) {
	start, err := domain.ParseClock(r.StartTime)
	if err != nil {
		return domain.TrainSpec{}, fmt.Errorf("invalid start_time: %w", err)
	}

	saleStart, err := domain.ParseDay(r.SaleStart)
	if err != nil {
		return domain.TrainSpec{}, fmt.Errorf("invalid sale_start: %w", err)
	}

	saleEnd, err := domain.ParseDay(r.SaleEnd)
	if err != nil {
		return domain.TrainSpec{}, fmt.Errorf("invalid sale_end: %w", err)
	}

	return domain.TrainSpec{
		ID:            r.ID,
		Stations:      r.Stations,
		SeatNum:       r.SeatNum,
		Prices:        r.Prices,
		StartTime:     start,
		TravelTimes:   r.TravelTimes,
		StopoverTimes: r.StopoverTimes,
		SaleStart:     saleStart,
		SaleEnd:       saleEnd,
		Type:          r.Type,
	}, nil
}

type PurchaseRequest struct {
	TrainID string `json:"train_id" binding:"required"`
	// Date the passenger leaves From, MM-DD.
	Date  string `json:"date" binding:"required"`
	From  string `json:"from" binding:"required"`
	To    string `json:"to" binding:"required"`
	Seats int    `json:"seats"`
	Queue bool   `json:"queue"`
}

type RefundRequest struct {
	// N counts back from the most recent order, which is 1. Defaults to 1.
	N int `json:"n" binding:"omitempty,gt=0"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderResponse struct {
	OrderID   int64              `json:"order_id"`
	Status    domain.OrderStatus `json:"status"`
	TrainID   string             `json:"train_id"`
	From      string             `json:"from"`
	To        string             `json:"to"`
	Leaving   domain.Stamp       `json:"leaving"`
	Arriving  domain.Stamp       `json:"arriving"`
	Price     int                `json:"price"`
	Seats     int                `json:"seats"`
	CreatedAt time.Time          `json:"created_at"`
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderResponse{
			OrderID:   o.ID,
			Status:    o.Status,
			TrainID:   o.TrainID,
			From:      o.From,
			To:        o.To,
			Leaving:   o.Leaving,
			Arriving:  o.Arriving,
			Price:     o.Price,
			Seats:     o.Seats,
			CreatedAt: o.CreatedAt,
		})
	}
	return out
}

type TicketsResponse struct {
	Count   int                       `json:"count"`
	Tickets []domain.ItinerarySummary `json:"tickets"`
}

type TransferResponse struct {
	Found bool                 `json:"found"`
	Plan  *domain.TransferPlan `json:"plan,omitempty"`
}
