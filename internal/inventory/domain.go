package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn records oil entering a tank, normally from a collection.
	MovementIn MovementType = "IN"
	// MovementOut records oil leaving a tank, normally a sale to a recycler.
	MovementOut MovementType = "OUT"
	// MovementTransfer is used for tank-to-tank transfer records.
	MovementTransfer MovementType = "TRANSFER"
	// MovementAdjust indicates manual corrections after tank measurement.
	MovementAdjust MovementType = "ADJUST"
)

// Movement models a posted stock movement header.
type Movement struct {
	ID        int64
	Code      string
	Type      MovementType
	TankID    int64
	Liters    float64
	UnitCost  float64
	RefModule string
	RefID     int64
	Note      string
	PostedAt  time.Time
	CreatedBy int64
	CreatedAt time.Time
}

// TankBalance summarises the oil held in one tank.
type TankBalance struct {
	TankID    int64
	Liters    float64
	AvgCost   float64
	UpdatedAt time.Time
}

// StockCardEntry describes one tank card line for reports.
type StockCardEntry struct {
	Code        string
	Type        MovementType
	PostedAt    time.Time
	LitersIn    float64
	LitersOut   float64
	BalanceQty  float64
	UnitCost    float64
	BalanceCost float64
	Note        string
}

// InboundInput posts oil into a tank.
type InboundInput struct {
	Code      string
	TankID    int64
	Liters    float64
	UnitCost  float64
	Note      string
	ActorID   int64
	RefModule string
	RefID     int64
}

// OutboundInput posts oil out of a tank.
type OutboundInput struct {
	Code      string
	TankID    int64
	Liters    float64
	Note      string
	ActorID   int64
	RefModule string
	RefID     int64
}

// AdjustmentInput corrects a tank balance up or down.
type AdjustmentInput struct {
	Code     string
	TankID   int64
	Liters   float64
	UnitCost float64
	Note     string
	ActorID  int64
}

// TransferInput moves oil between tanks.
type TransferInput struct {
	Code    string
	SrcTank int64
	DstTank int64
	Liters  float64
	Note    string
	ActorID int64
}

// StockCardFilter filters card entries.
type StockCardFilter struct {
	TankID int64
	From   time.Time
	To     time.Time
	Limit  int
}

// ErrNegativeStock triggered when a movement would leave a tank below zero.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates a zero or wrongly signed liter amount.
var ErrInvalidQuantity = errors.New("inventory: liters must be non zero")

// ErrInvalidUnitCost indicates an invalid cost value.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
