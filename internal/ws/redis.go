package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/game"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartFrameSubscriber subscribes to the table frames channel and rebroadcasts each payload
// to the viewers of its table. With Redis configured this is the only path frames take to
// viewers, so every instance sees every table.
func StartFrameSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; frame subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.FramesChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.FramesChannel)
		for msg := range ch {
			var head struct {
				Type    string `json:"type"`
				TableID string `json:"table_id"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil {
				log.Printf("[WS] invalid frame payload: %v", err)
				continue
			}

			switch head.Type {
			case "frame", "settled":
				if TableHub.RoomSize(head.TableID) == 0 {
					continue
				}
				TableHub.broadcastRaw(head.TableID, []byte(msg.Payload))
			default:
				log.Printf("[WS] unknown event type: %s", head.Type)
			}
		}
	}()
}
