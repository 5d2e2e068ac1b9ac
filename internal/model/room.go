package model

const (
	RoomsTable  = "Rooms"
	RoomKeyAttr = "id"
)

// RoomItem is the persisted snapshot of a live room. The password is never
// stored in clear.
type RoomItem struct {
	ID           string   `dynamodbav:"id"`
	Creator      string   `dynamodbav:"creator"`
	Players      []string `dynamodbav:"players"`
	Spectators   []string `dynamodbav:"spectators"`
	PasswordHash string   `dynamodbav:"passwordHash,omitempty"`
	Status       string   `dynamodbav:"status"`
	CreatedAt    int64    `dynamodbav:"createdAt"`
	UpdatedAt    string   `dynamodbav:"updatedAt"`
}
