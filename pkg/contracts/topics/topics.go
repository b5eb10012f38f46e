package topics

// Mensagens do socket do jogo
const (
	// cliente -> servidor
	StartRace  = "start-race"
	DrawCard   = "draw-card"
	ClaimBonus = "claim-bonus"

	// servidor -> cliente
	RaceStarted  = "race-started"
	CardDrawn    = "card-drawn"
	RaceFinished = "race-finished"
	BonusClaimed = "bonus-claimed"
	ErrorMessage = "error-message"
)

const (
	// Kafka
	RaceSettled    = "race_settled"
	RaceSettledDLQ = "race_settled_dlq"

	// Redis Pub/Sub
	RaceNotifications = "race_notifications"
)
