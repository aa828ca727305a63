package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler is the realtime channel for live games: clients send
// game commands and receive state updates, match notifications and
// settlement results over one connection.
type WebSocketHandler struct {
	gameEngine *services.GameEngine
	settlement *services.SettlementEngine
	fraud      *services.FraudService
	hub        *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	UserID string
	GameID string
	Conn   *websocket.Conn
}

type Message struct {
	Type       string      `json:"type"`
	UserID     string      `json:"user_id,omitempty"`
	GameID     string      `json:"game_id,omitempty"`
	PieceIndex int         `json:"piece_index,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func NewWebSocketHandler(gameEngine *services.GameEngine, settlement *services.SettlementEngine, fraud *services.FraudService) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		gameEngine: gameEngine,
		settlement: settlement,
		fraud:      fraud,
		hub:        hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
		if client.GameID != "" {
			if err := h.gameEngine.HandleDisconnect(client.GameID, client.UserID); err != nil {
				log.Printf("Failed to record disconnect for %s: %v", client.UserID, err)
			}
		}
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendToClient(client, &Message{
			Type: "PONG",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	case "JOIN_GAME":
		h.handleJoinGame(client, msg.GameID)
	case "START_GAME":
		h.handleStartGame(client, msg.GameID)
	case "ROLL_DICE":
		h.handleRollDice(client, msg.GameID)
	case "MAKE_MOVE":
		h.handleMakeMove(client, msg.GameID, msg.PieceIndex)
	default:
		h.sendError(client, msg.GameID, "unknown message type")
	}
}

// handleJoinGame subscribes the connection to a game the user plays in and
// returns the current state, clearing any disconnect mark.
func (h *WebSocketHandler) handleJoinGame(client *Client, gameID string) {
	game, err := h.gameEngine.GetGame(gameID)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	if !game.HasPlayer(client.UserID) {
		h.sendError(client, gameID, models.ErrNotParticipant.Error())
		return
	}

	client.GameID = gameID

	game, err = h.gameEngine.HandleReconnect(gameID, client.UserID)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	h.sendToClient(client, &Message{
		Type:   "GAME_STATE",
		GameID: gameID,
		Data:   game,
	})
}

func (h *WebSocketHandler) handleStartGame(client *Client, gameID string) {
	game, err := h.gameEngine.GetGame(gameID)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	if !game.HasPlayer(client.UserID) {
		h.sendError(client, gameID, models.ErrNotParticipant.Error())
		return
	}

	game, err = h.gameEngine.Start(gameID)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	client.GameID = gameID
	h.broadcastToGame(game, "GAME_STARTED", game)
}

func (h *WebSocketHandler) handleRollDice(client *Client, gameID string) {
	value, game, err := h.gameEngine.RollDice(gameID, client.UserID)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	h.broadcastToGame(game, "DICE_ROLLED", gin.H{
		"player_id": client.UserID,
		"value":     value,
		"nonce":     game.GameState.RollNonce,
		"state":     game.GameState,
	})
}

func (h *WebSocketHandler) handleMakeMove(client *Client, gameID string, pieceIndex int) {
	game, err := h.gameEngine.MakeMove(gameID, client.UserID, pieceIndex)
	if err != nil {
		h.sendError(client, gameID, err.Error())
		return
	}

	h.broadcastToGame(game, "MOVE_MADE", gin.H{
		"player_id":   client.UserID,
		"piece_index": pieceIndex,
		"state":       game.GameState,
	})

	if game.Status != models.GameStatusCompleted {
		return
	}

	// Settlement must land before the completion event; a client that sees
	// GAME_COMPLETED and immediately fetches its balance must see the credit.
	if err := h.settlement.ValidateAndSettleGame(gameID, client.UserID); err != nil {
		log.Printf("Settlement failed for game %s: %v", gameID, err)
		h.sendError(client, gameID, "settlement failed")
		return
	}

	h.broadcastToGame(game, "GAME_COMPLETED", gin.H{
		"winner_id":    game.WinnerID,
		"final_result": game.FinalResult,
	})

	go h.fraud.CheckGame(game)
}

// sendToClient routes the reply through the hub so the hub goroutine is the
// only writer on any connection. gorilla/websocket forbids concurrent
// writers, and a direct reply here can race a broadcast from the opponent's
// move landing on the same connection.
func (h *WebSocketHandler) sendToClient(client *Client, msg *Message) {
	msg.UserID = client.UserID
	h.hub.broadcast <- msg
}

func (h *WebSocketHandler) sendError(client *Client, gameID, message string) {
	h.sendToClient(client, &Message{
		Type:   "ERROR",
		GameID: gameID,
		Data:   gin.H{"message": message},
	})
}

func (h *WebSocketHandler) broadcastToGame(game *models.Game, msgType string, data interface{}) {
	for _, userID := range []string{game.Player1ID, game.Player2ID} {
		h.hub.broadcast <- &Message{
			Type:   msgType,
			UserID: userID,
			GameID: game.ID,
			Data:   data,
		}
	}
}

// NotifyMatchFound implements services.Broadcaster.
func (h *WebSocketHandler) NotifyMatchFound(userID, gameID string) {
	h.hub.broadcast <- &Message{
		Type:   "MATCH_FOUND",
		UserID: userID,
		GameID: gameID,
		Data:   gin.H{"game_id": gameID},
	}
}

// NotifyGameCancelled implements services.Broadcaster.
func (h *WebSocketHandler) NotifyGameCancelled(gameID, player1ID, player2ID, reason string) {
	for _, userID := range []string{player1ID, player2ID} {
		h.hub.broadcast <- &Message{
			Type:   "GAME_CANCELLED",
			UserID: userID,
			GameID: gameID,
			Data:   gin.H{"reason": reason},
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			log.Printf("Client registered: %s", client.UserID)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				log.Printf("Client unregistered: %s", client.UserID)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.UserID != "" {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}
