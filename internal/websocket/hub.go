package websocket

import "github.com/rs/zerolog/log"

// directMessage targets every client subscribed to one account.
type directMessage struct {
	userID  string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Targeted messages for a single account's subscribers.
	direct chan directMessage

	// A map of user IDs to a set of clients subscribed to that account.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		direct:        make(chan directMessage),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If the client carries an account ID on registration, subscribe them.
			if client.UserID != "" {
				h.addSubscription(client, client.UserID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				// Remove from global clients and any subscriptions
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		case dm := <-h.direct:
			h.sendToSubscribers(dm.userID, dm.payload)
		}
	}
}

// BroadcastTo sends a message to all clients subscribed to a specific user ID.
// The send is handed to the hub loop, so it is safe to call from any goroutine.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	h.direct <- directMessage{userID: userID, payload: message}
}

// sendToSubscribers delivers a targeted message. Only the Run loop may call
// this; it mutates the client maps.
func (h *Hub) sendToSubscribers(userID string, message []byte) {
	for client := range h.subscriptions[userID] {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
			delete(h.subscriptions[userID], client)
		}
	}
}

func (h *Hub) addSubscription(client *Client, userID string) {
	if h.subscriptions[userID] == nil {
		h.subscriptions[userID] = make(map[*Client]bool)
	}
	h.subscriptions[userID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for userID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, userID)
			}
		}
	}
}
