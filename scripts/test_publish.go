//go:build ignore

// Ручная проверка headless-гостя: публикует calculateRoute в stream:map:headless
// и ждёт ответ гостя в stream:map:events.
//
//	go run scripts/test_publish.go -redis localhost:6379
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	placeID := flag.String("place", "1", "Place ID for the route")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	sessionID := uuid.NewString()
	const generation = 1

	// Plaza 14 de Septiembre -> Cristo de la Concordia
	origin := domain.Coordinate{Lat: -17.3935, Lng: -66.1570}
	destination := domain.Coordinate{Lat: -17.3842, Lng: -66.1344}

	// запоминаем хвост стрима событий до публикации
	lastID := "$"
	if last, err := client.XRevRangeN(ctx, domain.StreamMapGuestEvents, "+", "-", 1).Result(); err == nil && len(last) > 0 {
		lastID = last[0].ID
	}

	for _, cmd := range []bridge.Command{
		bridge.CenterOn(origin.Lat, origin.Lng, 13),
		bridge.CalculateRoute(origin, destination, *placeID, 1),
	} {
		raw, err := json.Marshal(cmd)
		if err != nil {
			log.Fatalf("Failed to marshal command: %v", err)
		}
		data, err := json.Marshal(domain.CommandEnvelope{
			SessionID:  sessionID,
			Generation: generation,
			Command:    raw,
		})
		if err != nil {
			log.Fatalf("Failed to marshal envelope: %v", err)
		}

		id, err := client.XAdd(ctx, &redis.XAddArgs{
			Stream: domain.StreamMapHeadlessCommands,
			Values: map[string]interface{}{"data": string(data)},
		}).Result()
		if err != nil {
			log.Fatalf("Failed to publish command: %v", err)
		}
		fmt.Printf("Published %s as %s\n", cmd.Type, id)
	}

	fmt.Printf("Session: %s\nWaiting for guest messages in %s...\n", sessionID, domain.StreamMapGuestEvents)

	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			fmt.Println("Timeout waiting for ROUTE_CALCULATED")
			return
		default:
		}

		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamMapGuestEvents, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("Failed to read events: %v", err)
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var env domain.GuestMessageEnvelope
				if err := json.Unmarshal([]byte(dataStr), &env); err != nil || env.SessionID != sessionID {
					continue
				}

				fmt.Printf("<- %s\n", env.Message)
				switch event := bridge.ParseEvent(env.Message).(type) {
				case bridge.RouteCalculated:
					fmt.Printf("Route: %.2f km, %.0f min\n", event.DistanceKm, event.ETAMinutes)
					return
				case bridge.RouteFailed:
					fmt.Printf("Route failed: %s\n", event.Reason)
					return
				}
			}
		}
	}
}
