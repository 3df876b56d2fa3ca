package models

// Action classifies what the simulated strategy "did" in one alert cycle.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
)
