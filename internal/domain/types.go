package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderSuccess  OrderStatus = "success"
	OrderPending  OrderStatus = "pending"
	OrderRefunded OrderStatus = "refunded"
)

type SortKey string

const (
	SortByTime SortKey = "time"
	SortByCost SortKey = "cost"
)

// TrainSpec is the already-parsed input of add_train. Prices are per leg,
// the store turns them into cumulative prices.
type TrainSpec struct {
	ID            string   `json:"id" validate:"required,max=20"`
	Stations      []string `json:"stations" validate:"required,min=2,max=100,dive,required"`
	SeatNum       int      `json:"seat_num" validate:"gt=0"`
	Prices        []int    `json:"prices" validate:"required,dive,gte=0"`
	StartTime     int      `json:"start_time" validate:"gte=0,lt=1440"`
	TravelTimes   []int    `json:"travel_times" validate:"required,dive,gt=0"`
	StopoverTimes []int    `json:"stopover_times" validate:"dive,gte=0"`
	SaleStart     Day      `json:"sale_start" validate:"gte=0"`
	SaleEnd       Day      `json:"sale_end" validate:"gtefield=SaleStart"`
	Type          string   `json:"type" validate:"required,len=1"`
}

type Train struct {
	ID        string
	Stations  []string
	SeatNum   int
	Prices    []int // cumulative, Prices[0] == 0
	StartTime int
	SaleStart Day
	SaleEnd   Day
	Type      string
	Released  bool

	// minutes after 00:00 of the origin departure day
	arrivals   []int
	departures []int
}

func (t *Train) StationNum() int { return len(t.Stations) }

// StationIndex returns the stop position of name or -1.
func (t *Train) StationIndex(name string) int {
	for i, s := range t.Stations {
		if s == name {
			return i
		}
	}
	return -1
}

// Arrival is the offset in minutes of the arrival at stop i (i > 0).
func (t *Train) Arrival(i int) int { return t.arrivals[i] }

// Departure is the offset in minutes of the departure from stop i (i < n-1).
func (t *Train) Departure(i int) int { return t.departures[i] }

// Fare is the per-ticket price between stops i and j.
func (t *Train) Fare(i, j int) int { return t.Prices[j] - t.Prices[i] }

func (t *Train) OnSale(d Day) bool { return d >= t.SaleStart && d <= t.SaleEnd }

// SaleDayFor converts the date a passenger leaves stop i into the origin sale date.
func (t *Train) SaleDayFor(i int, leaving Day) Day {
	return leaving - Day(t.departures[i]/MinutesPerDay)
}

// NewTrain builds the timetable record from a validated spec.
func NewTrain(spec TrainSpec) *Train {
	n := len(spec.Stations)

	t := &Train{
		ID:         spec.ID,
		Stations:   append([]string(nil), spec.Stations...),
		SeatNum:    spec.SeatNum,
		Prices:     make([]int, n),
		StartTime:  spec.StartTime,
		SaleStart:  spec.SaleStart,
		SaleEnd:    spec.SaleEnd,
		Type:       spec.Type,
		arrivals:   make([]int, n),
		departures: make([]int, n),
	}

	for i, p := range spec.Prices {
		t.Prices[i+1] = t.Prices[i] + p
	}

	clock := spec.StartTime
	t.departures[0] = clock
	for i := 1; i < n; i++ {
		clock += spec.TravelTimes[i-1]
		t.arrivals[i] = clock
		if i < n-1 {
			clock += spec.StopoverTimes[i-1]
		}
		t.departures[i] = clock
	}

	return t
}

type Order struct {
	ID        int64
	Username  string
	TrainID   string
	SaleDay   Day
	From      string
	To        string
	FromIdx   int
	ToIdx     int
	Leaving   Stamp
	Arriving  Stamp
	Seats     int
	Price     int
	Status    OrderStatus
	CreatedAt time.Time
}

func (o Order) Total() int { return o.Seats * o.Price }

type Receipt struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
	Total   int         `json:"total"`
}

// Queued reports whether the purchase was accepted as a pending order.
func (r Receipt) Queued() bool { return r.Status == OrderPending }

type ItinerarySummary struct {
	TrainID  string `json:"train_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Leaving  Stamp  `json:"leaving"`
	Arriving Stamp  `json:"arriving"`
	Price    int    `json:"price"`
	Seats    int    `json:"seats"`
}

func (s ItinerarySummary) Duration() int { return int(s.Arriving - s.Leaving) }

type TransferPlan struct {
	First  ItinerarySummary `json:"first"`
	Second ItinerarySummary `json:"second"`
}

func (p TransferPlan) Duration() int { return int(p.Second.Arriving - p.First.Leaving) }
func (p TransferPlan) Price() int    { return p.First.Price + p.Second.Price }

type StationRow struct {
	Station  string `json:"station"`
	Arriving *Stamp `json:"arriving,omitempty"`
	Leaving  *Stamp `json:"leaving,omitempty"`
	Price    int    `json:"price"`
	Seats    *int   `json:"seats,omitempty"`
}

type TrainItinerary struct {
	TrainID string       `json:"train_id"`
	Type    string       `json:"type"`
	Rows    []StationRow `json:"rows"`
}

type OrderEventKind string

const (
	OrderPlaced   OrderEventKind = "order.placed"
	OrderQueued   OrderEventKind = "order.queued"
	OrderPromoted OrderEventKind = "order.promoted"
	OrderRevoked  OrderEventKind = "order.refunded"
)

// OrderEvent is emitted after a purchase or refund commits.
type OrderEvent struct {
	Kind OrderEventKind `json:"kind"`
	At   time.Time      `json:"at"`

	OrderID  int64       `json:"order_id"`
	Username string      `json:"username"`
	TrainID  string      `json:"train_id"`
	SaleDay  Day         `json:"sale_day"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Seats    int         `json:"seats"`
	Price    int         `json:"price"`
	Status   OrderStatus `json:"status"`
}

func NewOrderEvent(kind OrderEventKind, o Order, at time.Time) OrderEvent {
	return OrderEvent{
		Kind:     kind,
		At:       at,
		OrderID:  o.ID,
		Username: o.Username,
		TrainID:  o.TrainID,
		SaleDay:  o.SaleDay,
		From:     o.From,
		To:       o.To,
		Seats:    o.Seats,
		Price:    o.Price,
		Status:   o.Status,
	}
}
