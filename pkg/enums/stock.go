package enums

// StockTarget is the record a stock movement was applied to.
type StockTarget string

const (
	StockTargetProduct StockTarget = "product"
	StockTargetVariant StockTarget = "variant"
)

// StockMovementKind is the direction of a stock movement.
type StockMovementKind string

const (
	StockMovementReserve StockMovementKind = "reserve"
	StockMovementRestore StockMovementKind = "restore"
)

// PaymentProofOutcome is what the upload flow did with an analyzed proof.
type PaymentProofOutcome string

const (
	PaymentProofOutcomeConfirmed PaymentProofOutcome = "confirmed"
	PaymentProofOutcomeQueued    PaymentProofOutcome = "queued"
)
