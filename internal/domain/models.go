package domain

import "time"

// SalesRecord is one day of sales history for an item.
type SalesRecord struct {
	Date        time.Time
	Qty         float64
	WasStockout bool
}

// Item identifies a product together with the attributes the decision core
// needs. Category codes select the forecast strategy; margin and turnover
// feed the cost adjuster.
type Item struct {
	Code         string
	Name         string
	CategoryCode string
	OrderUnit    int     // order quantity multiple enforced by the supplier
	Margin       float64 // gross margin ratio (0..1)
	TurnoverDays float64 // average days to sell through one order unit
}

// Confidence labels a prediction by how much history backed it.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PredictionResult is the per-item output of one prediction run. It is
// created once and never mutated afterwards.
type PredictionResult struct {
	ItemCode     string
	Date         time.Time
	PredictedQty float64
	WeekdayCoef  float64
	AdjustedQty  float64
	SafetyStock  float64
	CurrentStock float64
	PendingQty   float64
	OrderQty     int
	Confidence   Confidence
	DataDays     int

	// Blend components, logged so the daily calibrator can correlate each
	// one against realized demand.
	RecentMean  float64
	WeekdayMean float64
	TrendMean   float64
}

// Decision is the terminal outcome of the pre-order evaluation.
type Decision string

const (
	DecisionForceOrder  Decision = "FORCE_ORDER"
	DecisionUrgentOrder Decision = "URGENT_ORDER"
	DecisionNormalOrder Decision = "NORMAL_ORDER"
	DecisionPass        Decision = "PASS"
	DecisionSkip        Decision = "SKIP"
)

// EvalDecision pairs a decision with its audit reason for one item.
type EvalDecision struct {
	ItemCode string
	Date     time.Time
	Decision Decision
	Reason   string
	OrderQty int
}

// ItemStats carries the exposure/popularity/stockout statistics the
// evaluator consumes. Missing values stay at their zero value and the
// evaluator falls back conservatively.
type ItemStats struct {
	DailyAvg             float64
	CurrentStock         float64
	PendingQty           float64
	StockoutDays30       int
	ObservedDays30       int
	PopularityPercentile float64
	HasPopularity        bool
}

// AccuracyStats is the aggregated outcome picture over a lookback window.
type AccuracyStats struct {
	Total        int
	Correct      int
	OverOrder    int
	Missed       int
	WasteRate    float64
	StockoutRate float64
}

// DecisionOutcome joins yesterday's decision with the realized result for
// the same item, as consumed by the daily calibrator.
type DecisionOutcome struct {
	ItemCode     string
	Date         time.Time
	Decision     Decision
	PredictedQty float64
	RealizedQty  float64
	WasStockout  bool
	RecentMean   float64
	WeekdayMean  float64
	TrendMean    float64
}

// DiffClass classifies how a user changed a system-recommended order.
type DiffClass string

const (
	DiffUnchanged     DiffClass = "unchanged"
	DiffQtyChanged    DiffClass = "qty_changed"
	DiffAdded         DiffClass = "added"
	DiffRemoved       DiffClass = "removed"
	DiffReceivingDiff DiffClass = "receiving_diff"
)

// DiffRecord is one historized system-vs-user order difference.
type DiffRecord struct {
	ItemCode     string
	OrderDate    time.Time
	Class        DiffClass
	SystemQty    float64
	ConfirmedQty float64
	ReceivedQty  float64
}

// RemovalStat is the pre-aggregated removal count for one item over a
// lookback window.
type RemovalStat struct {
	ItemCode string
	Removals int
}

// AdditionStat is the pre-aggregated user-addition count and average added
// quantity for one item over a lookback window.
type AdditionStat struct {
	ItemCode  string
	Additions int
	AvgQty    float64
}

// OptimizationStatus describes how a weekly optimization run ended.
type OptimizationStatus string

const (
	StatusApplied          OptimizationStatus = "applied"
	StatusConfirmed        OptimizationStatus = "confirmed"
	StatusRolledBack       OptimizationStatus = "rolled_back"
	StatusNoImprovement    OptimizationStatus = "no_improvement"
	StatusUnavailable      OptimizationStatus = "unavailable"
	StatusInsufficientData OptimizationStatus = "insufficient_data"
)

// OptimizationResult is the audit record of one weekly optimization run.
// Only the rollback check mutates it after creation (status and reason).
type OptimizationResult struct {
	ID             string
	RunAt          time.Time
	Status         OptimizationStatus
	Objective      float64
	BaseObjective  float64
	ErrorTerms     map[string]float64
	ParamsBefore   map[string]float64
	ParamsAfter    map[string]float64
	Deltas         map[string]float64
	Algorithm      string
	Trials         int
	WindowDays     int
	Reason         string
}

// FreqAddedItem is an item the user keeps adding by hand; it is injected as
// an order candidate even when prediction would skip it.
type FreqAddedItem struct {
	ItemCode string
	Count    int
	AvgQty   float64
}

// CalibrationEntry is one appended record in the calibration history log.
type CalibrationEntry struct {
	Date         time.Time
	SampleCount  int
	Changes      map[string]float64
	Correlations map[string]float64
}
