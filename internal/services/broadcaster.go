package services

// Broadcaster pushes server-initiated events to connected clients. The
// websocket layer implements it; services hold the interface so they stay
// transport-agnostic.
type Broadcaster interface {
	NotifyMatchFound(userID, gameID string)
	NotifyGameCancelled(gameID, player1ID, player2ID, reason string)
}
